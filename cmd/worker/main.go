package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nmoreno/go-commerce-api/internal/config"
	kafkax "github.com/nmoreno/go-commerce-api/internal/kafka"
	"github.com/nmoreno/go-commerce-api/internal/orders"
	"github.com/nmoreno/go-commerce-api/internal/redisx"
	"github.com/nmoreno/go-commerce-api/internal/statusproj"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	proj := &statusproj.Projector{
		Redis:       rdb,
		Cache:       &redisx.StatusCache{Client: rdb},
		ServiceName: cfg.ServiceName + "-worker",
	}

	// One consumer per topic, same group, shared handler.
	topics := []string{orders.TopicOrderPlaced, orders.TopicStatusChanged}
	done := make(chan struct{}, len(topics))
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, topic, cfg.WorkerCount)
		go func(topic string) {
			defer func() { done <- struct{}{} }()
			log.Printf("status projector started: group=%s topic=%s workers=%d",
				cfg.WorkerGroup, topic, cfg.WorkerCount)
			if err := cons.Start(ctx, proj.Handle); err != nil {
				log.Printf("consumer %s exit: %v", topic, err)
				cancel()
			}
		}(topic)
	}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Println("shutting down projector...")
		cancel()
	case <-ctx.Done():
	}
	for range topics {
		<-done
	}
}
