package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"FindIt/internal/api/middleware"
	"FindIt/internal/api/routes"
	"FindIt/internal/config"
	"FindIt/internal/core/identity"
	"FindIt/internal/core/images"
	"FindIt/internal/core/lifecycle"
	"FindIt/internal/core/posts"
	"FindIt/internal/core/session"
	"FindIt/internal/core/users"
	firestoreRepo "FindIt/internal/db/firestore"
	postgresRepo "FindIt/internal/db/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	ctx := context.Background()

	postRepo, userRepo, closeStore, err := openDocumentStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	authClient, err := identity.NewClient(ctx, identity.ClientConfig{
		APIKey:    cfg.AuthAPIKey,
		APIBase:   cfg.AuthAPIBase,
		TokenBase: cfg.AuthTokenBase,
	})
	if err != nil {
		log.Fatal("Failed to create auth client: ", err)
	}
	verifier := identity.NewVerifier(cfg.AuthProjectID, identity.NewCachedJWKSFetcher(cfg.AuthJWKSURL, cfg.JWKSCacheTTL))

	uploader, err := images.NewCloudinaryUploader(images.CloudinaryConfig{
		CloudName:    cfg.CloudinaryCloudName,
		UploadPreset: cfg.CloudinaryUploadPreset,
		Folder:       cfg.CloudinaryFolder,
		APIBase:      cfg.CloudinaryAPIBase,
	})
	if err != nil {
		log.Fatal("Failed to create image uploader: ", err)
	}

	// Initialize services
	postService := posts.NewPostService(postRepo)
	userService := users.NewUserService(userRepo, postService)
	controller := lifecycle.NewController(postService, uploader, userService)

	registry, err := session.NewRegistry(cfg.SessionCacheSize, postService)
	if err != nil {
		log.Fatal("Failed to create session registry: ", err)
	}
	cookies, err := middleware.NewCookieStore(cfg.SessionSecret, cfg.CookieSecure)
	if err != nil {
		log.Fatal(err)
	}
	sessions := middleware.NewSessionMiddleware(cookies, registry, verifier, authClient)

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Printf("Failed to write health response: %v", err)
		}
	})

	r.Group(func(r chi.Router) {
		if cfg.CORSOrigin != "" {
			r.Use(routes.CORSMiddleware([]string{cfg.CORSOrigin}))
		}
		r.Use(sessions.LoadSession)

		routes.RegisterPostRoutes(r, controller)
		routes.RegisterProfileRoutes(r, userService)
		routes.RegisterStateRoutes(r)
		if err := routes.RegisterWebRoutes(r, authClient, sessions, userService); err != nil {
			log.Fatal("Failed to load web templates: ", err)
		}
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		fmt.Printf("FindIt starting on port %s (document store: %s)\n", cfg.Port, cfg.DocumentStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

// openDocumentStore connects the configured posts/users backend
func openDocumentStore(ctx context.Context, cfg config.Config) (posts.Repository, users.UserRepository, func(), error) {
	switch cfg.DocumentStore {
	case config.StoreFirestore:
		store, err := firestoreRepo.NewStore(ctx, firestoreRepo.Config{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
			Endpoint:        cfg.FirestoreEndpoint,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to firestore: %w", err)
		}
		log.Printf("Connected to Firestore project %s", cfg.FirestoreProjectID)
		return firestoreRepo.NewPostRepository(store), firestoreRepo.NewUserRepository(store), func() {}, nil

	default:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Println("Connected to PostgreSQL")

		if err := goose.SetDialect("postgres"); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("failed to set goose dialect: %w", err)
		}
		if err := goose.Up(db, cfg.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Println("Migrations completed successfully")

		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Printf("Failed to close database: %v", err)
			}
		}
		return postgresRepo.NewPostRepository(db), postgresRepo.NewUserRepository(db), closeDB, nil
	}
}
