// Package handler wires HTTP routes to the core services.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/haven-space/sanctum-backend/internal/config"
	chatHandler "github.com/haven-space/sanctum-backend/internal/handler/chat"
	journalHandler "github.com/haven-space/sanctum-backend/internal/handler/journal"
	moodHandler "github.com/haven-space/sanctum-backend/internal/handler/mood"
	postsHandler "github.com/haven-space/sanctum-backend/internal/handler/posts"
	middlewarePkg "github.com/haven-space/sanctum-backend/internal/middleware"
	chatService "github.com/haven-space/sanctum-backend/internal/service/chat"
	journalService "github.com/haven-space/sanctum-backend/internal/service/journal"
	moodService "github.com/haven-space/sanctum-backend/internal/service/mood"
	postsService "github.com/haven-space/sanctum-backend/internal/service/posts"
	"github.com/haven-space/sanctum-backend/internal/store"
	"github.com/haven-space/sanctum-backend/pkg/utils"
)

// NewRouter assembles the middleware stack and mounts every API surface.
func NewRouter(
	cfg config.ServerConfig,
	st store.Store,
	postsSvc *postsService.Service,
	chatSvc *chatService.Service,
	journalSvc *journalService.Service,
	moodSvc *moodService.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(cfg.FrontendURL))
	r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := st.Ping(req.Context()); err != nil {
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "degraded",
				"timestamp": time.Now().UTC(),
				"service":   "Sanctum API",
			})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":    "OK",
			"timestamp": time.Now().UTC(),
			"service":   "Sanctum API",
		})
	})

	r.Route("/api", func(api chi.Router) {
		postsHandler.New(postsSvc).RegisterRoutes(api)
		chatHandler.New(chatSvc).RegisterRoutes(api)
		journalHandler.New(journalSvc).RegisterRoutes(api)
		moodHandler.New(moodSvc).RegisterRoutes(api)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "Route not found")
	})

	return r
}
