package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sapliy/emergency-dispatch/internal/config"
	"github.com/sapliy/emergency-dispatch/internal/directory"
	"github.com/sapliy/emergency-dispatch/internal/dispatch"
	"github.com/sapliy/emergency-dispatch/internal/events"
	"github.com/sapliy/emergency-dispatch/internal/notification"
	"github.com/sapliy/emergency-dispatch/pkg/database"
	"github.com/sapliy/emergency-dispatch/pkg/messaging"
	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Consume document events and serve the push endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		return serve(ctx, cfg, newLogger(cfg))
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	shutdownTracer, err := observability.InitTracer(ctx, observability.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Tracing.Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Environment:    cfg.Tracing.Environment,
		Logger:         logger,
	})
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error("failed to shut down tracer", "error", err)
			}
		}()
	}

	db, err := database.Connect(ctx, cfg.Database.DSN, database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// Optional collaborators are only assigned to their interfaces when
	// present, so a nil pointer never hides behind a non-nil interface.
	var claims dispatch.ClaimStore
	rdb, err := notification.ConnectRedis(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("redis unavailable, de-duplication disabled", "error", err)
	} else if rdb != nil {
		defer rdb.Close()
		claims = notification.NewRedisClaimStore(rdb)
	}
	if claims == nil && cfg.Dispatch.LocalDedup {
		logger.Info("using in-memory de-duplication")
		claims = notification.NewMemoryClaimStore(10 * time.Minute)
	}

	var deadLetters dispatch.DeadLetterPublisher
	var rabbit *messaging.RabbitMQClient
	if cfg.RabbitMQ.URL != "" {
		rabbit, err = messaging.NewRabbitMQClient(messaging.DefaultConfig(cfg.RabbitMQ.URL), logger.Logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, reaper dead-letters disabled", "error", err)
		} else {
			defer rabbit.Close()
			deadLetters = rabbit
		}
	}

	var alerter dispatch.Alerter
	if mailer := notification.NewAlertMailer(cfg.Alerts, cfg.ServiceName); mailer != nil {
		alerter = mailer
	}

	gateway := notification.NewSMSSender(cfg.Messaging, logger)
	notifier := dispatch.NewNotifier(directory.NewRepository(db), gateway, claims, cfg.Messaging, cfg.Dispatch, logger)
	reaper := dispatch.NewReaper(directory.NewIdentityRepository(db), deadLetters, cfg.RabbitMQ.DeadLetterQueue, alerter, logger)
	router := events.NewRouter(notifier, reaper, logger)

	server := events.NewServer(router, cfg.HTTP.PushSecret, logger)
	server.AddHealthCheck("postgres", db.PingContext)
	if rdb != nil {
		server.AddHealthCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	if rabbit != nil {
		server.AddHealthCheck("rabbitmq", func(context.Context) error {
			if !rabbit.IsHealthy() {
				return errors.New("no open channel")
			}
			return nil
		})
	}

	consumerDone := make(chan struct{})
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := messaging.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, logger.Logger)
		go func() {
			defer close(consumerDone)
			defer consumer.Close()
			if err := consumer.Consume(ctx, router.Handle); err != nil {
				logger.Error("kafka consumer stopped", "error", err)
			}
		}()
	} else {
		logger.Info("no kafka brokers configured, only push events will be handled")
		close(consumerDone)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("dispatcher listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down dispatcher")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	server.Wait()
	<-consumerDone

	logger.Info("dispatcher stopped")
	return nil
}
