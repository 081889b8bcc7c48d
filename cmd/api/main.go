package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
	"github.com/haven-space/sanctum-backend/internal/config"
	"github.com/haven-space/sanctum-backend/internal/handler"
	"github.com/haven-space/sanctum-backend/internal/pkg/logger"
	aiService "github.com/haven-space/sanctum-backend/internal/service/ai"
	chatService "github.com/haven-space/sanctum-backend/internal/service/chat"
	journalService "github.com/haven-space/sanctum-backend/internal/service/journal"
	moodService "github.com/haven-space/sanctum-backend/internal/service/mood"
	postsService "github.com/haven-space/sanctum-backend/internal/service/posts"
	"github.com/haven-space/sanctum-backend/internal/service/safety"
	sentimentService "github.com/haven-space/sanctum-backend/internal/service/sentiment"
	"github.com/haven-space/sanctum-backend/internal/store"

	openai "github.com/sashabaranov/go-openai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Server.LogMode)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	st := newStore(cfg, logg)
	defer st.Close()

	// Moderation runs in permanent keyword-fallback mode without a key.
	var moderationClient safety.ModerationClient
	if cfg.Safety.ModerationEnabled() {
		moderationClient = openai.NewClient(cfg.Safety.OpenAIAPIKey)
		logg.Info("external moderation enabled")
	} else {
		logg.Warn("moderation credentials missing, using keyword fallback only")
	}
	gate := safety.NewService(moderationClient, crisis.NewDetector(), cfg.Safety.Timeout, logg)

	// The reply generator and sentiment classifier share one chat model.
	// Without credentials both degrade: canned replies, lexicon scoring.
	var chatModel model.ChatModel
	var replyGen chatService.ReplyGenerator
	var promptGen journalService.PromptGenerator
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			logg.Warn("failed to construct chat model, continuing degraded", "error", err)
			chatModel = nil
		}
	} else {
		logg.Warn("generation model credentials missing, replies come from canned pools")
	}
	if chatModel != nil {
		aiSvc, err := aiService.NewService(ctx, chatModel, logg)
		if err != nil {
			logg.Warn("failed to initialize generation service, continuing degraded", "error", err)
		} else {
			replyGen = aiSvc
			promptGen = aiSvc
			logg.Info("generation service initialized")
		}
	}

	sentimentSvc, err := sentimentService.NewService(ctx, chatModel, logg)
	if err != nil {
		logg.Warn("failed to initialize sentiment classifier, using lexicon only", "error", err)
		sentimentSvc, _ = sentimentService.NewService(ctx, nil, logg)
	}

	postsSvc := postsService.NewService(st, gate, cfg.TTL.Post, logg)
	chatSvc := chatService.NewService(st, gate, replyGen, cfg.TTL.Chat, cfg.AI.Timeout, logg)
	journalSvc := journalService.NewService(st, gate, promptGen, cfg.TTL.Journal, cfg.AI.Timeout, logg)
	moodSvc := moodService.NewService(st, sentimentSvc, cfg.TTL.Mood, logg)

	router := handler.NewRouter(cfg.Server, st, postsSvc, chatSvc, journalSvc, moodSvc)

	startServer(ctx, cfg.Server, router, logg)
}

// newStore picks Redis when configured and falls back to the in-memory
// store otherwise. A configured but unreachable Redis is fatal: silently
// downgrading would break the multi-instance deployments that set it.
func newStore(cfg *config.Config, logg *logger.Logger) store.Store {
	if !cfg.Redis.Enabled() {
		logg.Info("no redis configured, using in-memory store")
		return store.NewMemoryStore()
	}

	st, err := store.NewRedisStore(store.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logg.Fatal("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
	}
	logg.Info("redis store connected", "addr", cfg.Redis.Addr)
	return st
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logg *logger.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logg.Info("sanctum backend listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		logg.Fatal("server error", "error", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
