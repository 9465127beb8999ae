package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hostel/internal/billing"
	"hostel/internal/kafka"
	"hostel/internal/redisx"
	"hostel/internal/request"
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

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	accrual := &billing.Accrual{DB: conn, Rdb: rdb}
	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.Billing.ConsumerGroup, request.TopicTransitioned, cfg.Billing.Workers)

	log.Printf("billing-worker consuming %s as %s (%d workers)", request.TopicTransitioned, cfg.Billing.ConsumerGroup, cfg.Billing.Workers)
	if err := consumer.Start(ctx, accrual.HandleTransition); err != nil {
		log.Fatalf("consumer: %v", err)
	}
	log.Printf("billing-worker stopped")
}
