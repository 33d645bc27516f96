package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"timeline-service/internal/realtime"
	"timeline-service/internal/timeline"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("timeline-service: pg: %v", err)
	}
	defer pool.Close()

	if err := timeline.AutoMigrate(ctx, pool); err != nil {
		log.Fatalf("timeline-service: migrate: %v", err)
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("timeline-service: invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	store := timeline.NewPostgresStore(pool)
	srv := timeline.NewServer(store, rdb)
	if cfg.JWTSecret != "" {
		srv.WithAuthSecret([]byte(cfg.JWTSecret))
	}

	// Blocks embedding removed resources or scenes are purged on bus events.
	go timeline.NewSubscriber(store, rdb).Run(ctx)

	hub := realtime.NewHub()
	rt := realtime.NewServer(hub, rdb, cfg.WSAllowedOrigin)
	go hub.Run(ctx)
	go rt.RunRedisSubscriber(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(timeline.CORS(cfg.CORSAllowedOrigin))

	// Long-lived websocket connections stay outside the request timeout.
	r.Get("/ws", rt.HandleWS)
	r.Mount("/", srv.Router(
		middleware.Timeout(cfg.RequestTimeout),
		timeline.BodyLimit(cfg.MaxBodyBytes),
	))

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Printf("timeline-service listening on :%s", cfg.Port)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("timeline-service: %v", err)
	}
}
