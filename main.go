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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"semantic_notes_go/auth"
	"semantic_notes_go/config"
	"semantic_notes_go/controllers"
	"semantic_notes_go/data"
	"semantic_notes_go/embedding"
	"semantic_notes_go/middleware"
	"semantic_notes_go/services"
	"semantic_notes_go/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализация базы данных
	db, err := data.InitDB(ctx, cfg.DatabaseURL, cfg.EmbeddingDimensions)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Без бакета и региона сервер не стартует
	store, err := storage.NewS3Storage(ctx, storage.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
	})
	if err != nil {
		log.Fatalf("Failed to configure storage: %v", err)
	}

	embedder, err := embedding.NewEmbedder(cfg.EmbeddingProvider, embedding.Options{
		URL:     cfg.EmbeddingURL,
		Model:   cfg.EmbeddingModel,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to configure embedder: %v", err)
	}

	jwtService, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		log.Fatalf("Failed to configure JWT: %v", err)
	}
	hasher, err := auth.NewBcryptHasher(cfg.BcryptSaltRounds)
	if err != nil {
		log.Fatalf("Failed to configure password hashing: %v", err)
	}

	authService := services.NewAuthService(data.NewUserStore(db), hasher, jwtService)
	notesService := services.NewNotesService(data.NewNoteStore(db), store, embedder, cfg.EmbeddingDimensions)

	router := controllers.NewRouter(controllers.RouterConfig{
		Auth:        controllers.NewAuthController(authService),
		Notes:       controllers.NewNotesController(notesService, controllers.DefaultFileValidation(cfg.MaxUploadSize)),
		Health:      controllers.NewHealthController(db),
		RequireUser: middleware.JWTMiddleware(jwtService, authService),
	})

	var handler http.Handler = router
	handler = middleware.Timeout(cfg.RequestTimeout)(handler)
	handler = middleware.CORS(cfg.CORSOrigin)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Recovery(handler)
	handler = otelhttp.NewHandler(handler, "semantic-notes")

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Could not start server: %s\n", err)
	}
	log.Println("Server stopped")
}
