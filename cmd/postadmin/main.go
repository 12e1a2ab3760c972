package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masterboxer.com/posts-admin/cache"
	"masterboxer.com/posts-admin/config"
	"masterboxer.com/posts-admin/database"
	"masterboxer.com/posts-admin/handlers"
	"masterboxer.com/posts-admin/queries"
	"masterboxer.com/posts-admin/remote"
	"masterboxer.com/posts-admin/routes"
	"masterboxer.com/posts-admin/services"
)

func main() {
	envFile := flag.String("env", ".env", "env file to load before reading the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("PostAdmin: config load failed:", err)
	}
	if err := cfg.RequireAdmin(); err != nil {
		log.Fatal("PostAdmin: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewStore(cache.WithRetention(cfg.Policy.Retention))
	store.Start(ctx)

	opts := []queries.Option{queries.WithPolicy(cfg.Policy)}
	var audit *database.AuditLog
	var notifier *services.RollbackNotifier

	if cfg.DatabaseURL != "" {
		db, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("PostAdmin: DB connection failed:", err)
		}
		defer db.Close()

		audit = database.NewAuditLog(db)
		if err := audit.Migrate(ctx); err != nil {
			log.Fatal("PostAdmin: audit migration failed:", err)
		}
		opts = append(opts, queries.WithObserver(audit))
	} else {
		log.Println("[PostAdmin] DATABASE_URL not set, mutation audit disabled")
	}

	if cfg.FirebasePath != "" {
		if err := services.InitFirebase(cfg.FirebasePath); err != nil {
			log.Printf("PostAdmin: Firebase init failed: %v", err)
		} else if messaging, err := services.GetMessagingClient(); err == nil {
			notifier = services.NewRollbackNotifier(messaging, cfg.AlertTopic)
			opts = append(opts, queries.WithObserver(notifier))
		}
	}

	client := queries.NewClient(remote.NewClient(cfg.APIBaseURL), store, opts...)
	auth := handlers.NewAuthenticator(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret)

	server := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           routes.NewRouter(client, auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[PostAdmin] Shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Admin console listening on %s (api=%s)", cfg.AdminAddr, cfg.APIBaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("PostAdmin: server failed:", err)
	}
	<-stopped

	// in-flight requests are done, so no more mutations settle
	if audit != nil {
		audit.Close()
	}
	if notifier != nil {
		notifier.Close()
	}
	log.Println("✅ Admin console stopped")
}
