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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/examdeck/examdeck/internal/api/http"
	"github.com/examdeck/examdeck/internal/auth"
	"github.com/examdeck/examdeck/internal/catalog"
	"github.com/examdeck/examdeck/internal/config"
	"github.com/examdeck/examdeck/internal/ingest"
	"github.com/examdeck/examdeck/internal/session"
)

func main() {
	cfg := config.FromEnv()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("data dir: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	cat, err := catalog.Open(ctx, cfg.DataDir)
	if err != nil {
		cancel()
		log.Fatalf("catalog open failed: %v", err)
	}
	defer cat.Close()

	// Ingest on every start: new bundles insert, newer versions update,
	// everything else is a logged no-op.
	src := ingest.NewSource(cfg.BundleDir, "template.json")
	if err := ingest.NewPipeline(cat, cfg.DataDir).Run(ctx, src); err != nil {
		cancel()
		log.Fatalf("ingest failed: %v", err)
	}
	cancel()

	mgr := session.NewManager(cat, cfg.DataDir)
	defer mgr.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	if cfg.EnableLocalAuth {
		authSvc := auth.NewService(cfg.AuthHMACSecret, cfg.AdminUser, cfg.AdminPassHash)
		r.Post("/auth/login", auth.LoginHandler(authSvc))
		r.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(authSvc))
			api.Mount(pr, cat, mgr)
		})
	} else {
		api.Mount(r, cat, mgr)
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Printf("listening on %s (data=%s, bundles=%s)", cfg.HTTPAddr, cfg.DataDir, cfg.BundleDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
