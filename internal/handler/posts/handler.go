// Package posts exposes the anonymous feed over HTTP.
package posts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	postsService "github.com/haven-space/sanctum-backend/internal/service/posts"
	"github.com/haven-space/sanctum-backend/pkg/utils"
)

// Handler serves the post routes.
type Handler struct {
	svc *postsService.Service
}

func New(svc *postsService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the post routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/posts", h.handleCreate)
	r.Get("/posts", h.handleList)
	r.Get("/posts/stats", h.handleStats)
	r.Post("/posts/{postID}/support", h.handleSupport)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
		Feeling string `json:"feeling"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Submit(r.Context(), payload.Content, payload.Feeling)
	switch {
	case errors.Is(err, postsService.ErrEmptyContent), errors.Is(err, postsService.ErrContentTooLong):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, postsService.ErrBlocked):
		utils.RespondJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Content violates community guidelines",
			"details": "Your post contains content that may be harmful. Please revise and try again.",
			"blocked": true,
		})
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	response := map[string]any{
		"success": true,
		"post":    result.Post,
	}
	if result.SupportResources != nil {
		response["supportResources"] = result.SupportResources
	}
	utils.RespondJSON(w, http.StatusCreated, response)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	includeSupport := r.URL.Query().Get("includeSupport") == "true"

	feed, err := h.svc.List(r.Context(), limit, includeSupport)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch posts")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"posts":     feed,
		"total":     len(feed),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) handleSupport(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	count, err := h.svc.Support(r.Context(), postID)
	if errors.Is(err, postsService.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Post not found or expired")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to add support")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"supportCount": count,
		"message":      "Support added to post",
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}
