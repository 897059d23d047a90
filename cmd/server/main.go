package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"garbanzo/internal/auth"
	"garbanzo/internal/config"
	"garbanzo/internal/domain"
	"garbanzo/internal/handler"
	"garbanzo/internal/middleware"
	"garbanzo/internal/repository/postgres"
	authsvc "garbanzo/internal/service/auth"
	chatsvc "garbanzo/internal/service/chat"
	conversationsvc "garbanzo/internal/service/conversation"
	"garbanzo/internal/service/llm"
	"garbanzo/internal/service/llm/providers/lorem"
	"garbanzo/internal/service/llm/providers/ollama"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting server",
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"table_prefix", cfg.TablePrefix,
	)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.InitSchema(ctx, pool, tables); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	userRepo := postgres.NewUserRepository(repoConfig)
	conversationRepo := postgres.NewConversationRepository(repoConfig)
	messageRepo := postgres.NewMessageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL())

	providers := llm.NewRegistry()
	providers.Register(ollama.NewProvider(cfg.OllamaBaseURL, logger))
	providers.Register(lorem.NewProvider())
	cancels := chatsvc.NewCancelRegistry()

	authService := authsvc.NewService(userRepo, tokens, logger)
	conversationService := conversationsvc.NewService(conversationRepo, messageRepo, txManager, logger)
	chatService := chatsvc.NewService(
		conversationRepo,
		messageRepo,
		txManager,
		providers,
		cancels,
		cfg.LLMProvider,
		logger,
	)

	if cfg.Environment != "prod" {
		seedTestUser(ctx, cfg, authService, logger)
	}

	authHandler := handler.NewAuthHandler(authService, logger)
	conversationHandler := handler.NewConversationHandler(conversationService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	healthHandler := handler.NewHealthHandler(cfg.Environment)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)
	mux.HandleFunc("POST /api/conversations", conversationHandler.Create)
	mux.HandleFunc("GET /api/conversations", conversationHandler.List)
	mux.HandleFunc("GET /api/conversations/{id}", conversationHandler.Get)
	mux.HandleFunc("PATCH /api/conversations/{id}", conversationHandler.Update)
	mux.HandleFunc("DELETE /api/conversations/{id}", conversationHandler.Delete)
	mux.HandleFunc("POST /api/conversations/{id}/chat", chatHandler.Stream)
	mux.HandleFunc("DELETE /api/conversations/{id}/chat", chatHandler.Cancel)
	mux.HandleFunc("GET /api/models", chatHandler.ListModels)
	mux.HandleFunc("GET /api/health/llm", chatHandler.LLMHealth)

	var root http.Handler = mux
	root = middleware.Auth(tokens)(root)
	root = middleware.Recovery(logger)(root)
	root = cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(root)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays disabled to allow long-lived SSE streams.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// seedTestUser creates the configured development account if it does not
// exist yet.
func seedTestUser(ctx context.Context, cfg *config.Config, authService *authsvc.Service, logger *slog.Logger) {
	if cfg.TestUserEmail == "" || cfg.TestUserPassword == "" {
		return
	}

	_, err := authService.Register(ctx, &authsvc.RegisterRequest{
		Email:    cfg.TestUserEmail,
		Password: cfg.TestUserPassword,
	})
	switch {
	case err == nil:
		logger.Info("test user created", "email", cfg.TestUserEmail)
	case errors.Is(err, domain.ErrConflict):
		logger.Debug("test user already exists", "email", cfg.TestUserEmail)
	default:
		logger.Warn("failed to seed test user", "error", err)
	}
}
