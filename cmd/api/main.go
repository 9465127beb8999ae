package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostel/internal/httpapi"
	"hostel/internal/kafka"
	"hostel/internal/occupancy"
	"hostel/internal/realtime"
	"hostel/internal/redisx"
	"hostel/internal/request"
	"hostel/internal/room"
	"hostel/pkg/config"
	"hostel/pkg/db"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s, caches will miss: %v", cfg.RedisAddr, err)
	}

	deps := httpapi.Dependencies{
		Cfg: cfg,
		DB:  conn,
		Rdb: rdb,
		Hub: realtime.NewHub(),
	}

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, request.TopicTransitioned, 1024)
		producer.Start(ctx)
		deps.Publisher = producer
	}

	listenConn, err := db.OpenListener(ctx, cfg)
	if err != nil {
		log.Fatalf("db listener: %v", err)
	}
	go func() {
		defer listenConn.Close(context.Background())
		l := &realtime.PGListener{Conn: listenConn, Hub: deps.Hub}
		if err := l.Run(ctx); err != nil {
			log.Printf("realtime listener stopped: %v", err)
		}
	}()

	if cfg.OccupancySyncInterval > 0 {
		sched, err := occupancy.Schedule(room.NewRepository(conn), cfg.OccupancySyncInterval)
		if err != nil {
			log.Fatalf("occupancy scheduler: %v", err)
		}
		defer func() { _ = sched.Shutdown() }()
	}

	router := httpapi.NewRouter(deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ends open SSE streams so Shutdown does not wait on them.
	deps.Hub.Close()
	_ = srv.Shutdown(shutdownCtx)

	if producer != nil {
		producer.Close()
		producer.WaitClosed()
	}
}
