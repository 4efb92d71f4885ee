package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nmoreno/go-commerce-api/internal/carts"
	"github.com/nmoreno/go-commerce-api/internal/catalog"
	"github.com/nmoreno/go-commerce-api/internal/checkout"
	"github.com/nmoreno/go-commerce-api/internal/config"
	"github.com/nmoreno/go-commerce-api/internal/httpx"
	kafkax "github.com/nmoreno/go-commerce-api/internal/kafka"
	"github.com/nmoreno/go-commerce-api/internal/orders"
	"github.com/nmoreno/go-commerce-api/internal/postgres"
	"github.com/nmoreno/go-commerce-api/internal/redisx"
	"github.com/nmoreno/go-commerce-api/internal/session"
	"github.com/nmoreno/go-commerce-api/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.MaxDBConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	placedProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	placedProd.Start(ctx)
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	statusProd.Start(ctx)

	// Repos
	userRepo := &users.Repo{DB: db}
	productRepo := &catalog.Repo{DB: db}
	cartRepo := &carts.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}

	// Services
	sessions := &session.Store{Redis: rdb, TTL: cfg.SessionTTL}
	cartSvc := &carts.Service{Store: cartRepo, Catalog: productRepo}
	statusCache := &redisx.StatusCache{Client: rdb}
	notifier := &checkout.EventNotifier{
		Producer:       placedProd,
		StatusProducer: statusProd,
		Cache:          statusCache,
		Service:        cfg.ServiceName,
	}
	checkoutSvc := &checkout.Service{
		Catalog: productRepo,
		Carts:   cartRepo,
		Orders:  orderRepo,
		Atomic:  db,
		Notify:  notifier,
	}

	// Router & handlers
	router := httpx.NewRouter(cfg.RequestTimeout, session.Authenticate(sessions))

	(&httpx.HealthHandler{DB: db, Redis: rdb}).Register(router)
	(&httpx.SessionsHandler{Users: userRepo, Sessions: sessions, BcryptCost: cfg.BcryptCost}).Register(router)
	(&httpx.UsersHandler{Store: userRepo}).Register(router)
	(&httpx.ProductsHandler{Store: productRepo}).Register(router)
	(&httpx.CartsHandler{Carts: cartSvc}).Register(router)
	(&httpx.OrdersHandler{Store: orderRepo, Checkout: checkoutSvc, Notify: notifier, Cache: statusCache}).Register(router)
	(&httpx.MocksHandler{Users: userRepo, Products: productRepo, BcryptCost: cfg.BcryptCost}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	placedProd.Close()
	statusProd.Close()
	cancel()
	placedProd.WaitClosed()
	statusProd.WaitClosed()
}
