package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pressdesk.org/internal/config"
	"pressdesk.org/internal/gateway"
	"pressdesk.org/internal/obs"
	"pressdesk.org/internal/session"
	"pressdesk.org/internal/web"
)

var version = "0.3.0"

func main() {
	obs.Init()

	cfg := config.Load()

	// Sessions live in Postgres when a DSN is set, in memory otherwise.
	var (
		db    *sql.DB
		store session.Store
	)
	if cfg.PGDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		pg := session.NewPGStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pg.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("ensure schema: %v", err)
		}
		cancel()
		store = pg
	} else {
		store = session.NewMemoryStore()
	}

	srvr := web.NewServer(cfg, gateway.New(cfg.APIBaseURL, nil), session.NewWatched(store))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srvr.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting pressdesk-console %s on %s (api=%s)", version, srv.Addr, cfg.APIBaseURL)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
