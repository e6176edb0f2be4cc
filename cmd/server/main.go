package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/client/auth"
	"github.com/vogiaan1904/ticketbottle-booking/internal/client/catalog"
	httpDelivery "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/http"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/producer"
	pgRepo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/postgres"
	redisRepo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/breaker"
	pkgKafka "github.com/vogiaan1904/ticketbottle-booking/pkg/kafka"
	pkgLog "github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	pkgPostgres "github.com/vogiaan1904/ticketbottle-booking/pkg/postgres"
	pkgRedis "github.com/vogiaan1904/ticketbottle-booking/pkg/redis"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	redisCli, err := pkgRedis.Connect(ctx, pkgRedis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redisCli.Close()

	pgPool, err := pkgPostgres.Connect(ctx, pkgPostgres.Config{
		URL:             cfg.Postgres.URL,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		ConnectTimeout:  cfg.Postgres.ConnectTimeout,
	})
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Postgres: %v", err)
	}
	defer pgPool.Close()

	counterRepo := redisRepo.NewRedisCounterRepository(redisCli, l)
	rlRepo := redisRepo.NewRedisRateLimitRepository(redisCli, l)
	bookingRepo := pgRepo.NewPostgresBookingRepository(pgPool, l)

	// Initialize Kafka producer
	kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RetryMax:     cfg.Kafka.ProducerRetryMax,
		RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		Timeout:      cfg.Kafka.ProducerTimeout,
	})
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
	}

	// Initialize Kafka consumer
	kafkaConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.ConsumerGroupID,
	})
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
	}

	prod := producer.NewProducer(kafkaSyncProd, l)
	defer prod.Close()

	disp := service.NewDispatcher(cfg.Publisher.QueueSize, l)
	defer disp.Close()

	// Outbound service clients, each behind its own breaker. Breaker state
	// is process-local; multiple instances trip independently.
	catalogCli := catalog.NewClient(catalog.Config{
		BaseURL:         cfg.Catalog.BaseURL,
		CapacityTimeout: cfg.Catalog.CapacityTimeout,
		CommitTimeout:   cfg.Catalog.CommitTimeout,
	}, l)
	authCli := auth.NewClient(auth.Config{
		BaseURL:   cfg.Auth.BaseURL,
		Timeout:   cfg.Auth.Timeout,
		JWTSecret: cfg.JWT.Secret,
	}, l)

	catalogBrk := breaker.New("catalog", cfg.Breaker.FailureThreshold, cfg.Breaker.RecoveryTimeout)
	authBrk := breaker.New("auth", cfg.Breaker.FailureThreshold, cfg.Breaker.RecoveryTimeout)
	retrier := retry.New(retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		BackoffBase: cfg.Retry.BackoffBase,
		MaxDelay:    cfg.Retry.MaxDelay,
		Jitter:      true,
	})

	// Initialize services
	bkSvc := service.NewReservationService(counterRepo, bookingRepo, catalogCli, prod, disp, catalogBrk, retrier, l)
	idSvc := service.NewIdentityService(authCli, authBrk, retrier, l)
	rlSvc := service.NewRateLimitService(rlRepo, map[string]service.RateLimitRule{
		service.ActionBook: {Limit: cfg.RateLimit.BookLimit, Window: cfg.RateLimit.BookWindow},
		service.ActionRead: {Limit: cfg.RateLimit.ReadLimit, Window: cfg.RateLimit.ReadWindow},
	}, l)

	// Booking Consumer
	cons := consumer.NewConsumer(kafkaConsGr, bkSvc, l)
	cons.Start(ctx)
	defer cons.Close()

	// HTTP server
	h := httpDelivery.NewHandler(bkSvc, l)
	mw := httpDelivery.NewMiddleware(idSvc, rlSvc, l)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpDelivery.NewRouter(h, mw),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatalf(ctx, "Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info(ctx, "Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf(ctx, "HTTP server shutdown: %v", err)
	}

	cancel()
	l.Info(ctx, "Server exited")
}
