package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/common/database"
	"github.com/rasheedharab/PayGuestMarketplace/internal/common/logger"
	mqttcommon "github.com/rasheedharab/PayGuestMarketplace/internal/common/mqtt"
	rediscommon "github.com/rasheedharab/PayGuestMarketplace/internal/common/redis"
	"github.com/rasheedharab/PayGuestMarketplace/internal/config"
	"github.com/rasheedharab/PayGuestMarketplace/internal/events"
	httpapi "github.com/rasheedharab/PayGuestMarketplace/internal/http"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
	"github.com/rasheedharab/PayGuestMarketplace/internal/service"
	"github.com/rasheedharab/PayGuestMarketplace/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Entity store: Postgres，DB 未就绪时回退到内存 store
	var db *sql.DB
	var entityStore repository.Store
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			entityStore = repository.NewPostgresStore(db, cfg.TxTimeout, log)
			log.Info("DB enabled for payguest-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if entityStore == nil {
		entityStore = repository.NewMemoryStore(cfg.TxTimeout)
	}

	// Redis: 幂等键 + 事件 stream；不可用时幂等键使用内存 KV
	var redisClient *goredis.Client
	var kv store.KV = store.NewMemoryKV()
	var publishers events.MultiPublisher
	if cfg.Redis.Addr != "" {
		c := rediscommon.NewRedisClient(&cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rediscommon.Ping(pingCtx, c)
		cancel()
		if err == nil {
			redisClient = c
			kv = store.NewRedisKV(c)
			if cfg.Events.RedisStream != "" {
				publishers = append(publishers, events.NewRedisStreamPublisher(c, cfg.Events.RedisStream, log))
			}
		} else {
			log.Warn("Redis unreachable, using in-memory idempotency store", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		}
	}

	var mqttClient *mqttcommon.Client
	if cfg.MQTT.Enabled {
		if c, err := mqttcommon.NewClient(&cfg.MQTT, log); err == nil {
			mqttClient = c
			publishers = append(publishers, events.NewMQTTPublisher(c, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS))
		} else {
			log.Warn("MQTT enabled but connection failed", zap.Error(err))
		}
	}

	if cfg.Events.WebhookURL != "" {
		publishers = append(publishers, events.NewWebhookPublisher(cfg.Events.WebhookURL, cfg.Events.WebhookSecret, log))
	}

	var amqpPublisher *events.AMQPPublisher
	if cfg.Events.AMQPURL != "" {
		if p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.AMQPExchange); err == nil {
			amqpPublisher = p
			publishers = append(publishers, p)
		} else {
			log.Warn("AMQP connection failed", zap.Error(err))
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(publishers) > 0 {
		publisher = publishers
	}
	log.Info("Event publishers configured", zap.Int("count", len(publishers)))

	resolver := service.NewOwnershipResolver(log)
	inventorySvc := service.NewInventoryService(entityStore, resolver, publisher, log)
	bookingSvc := service.NewBookingService(entityStore, resolver, publisher, log)
	analyticsSvc := service.NewAnalyticsService(entityStore, log)

	router := httpapi.NewRouter(
		httpapi.NewInventoryHandler(inventorySvc, log),
		httpapi.NewBookingHandler(bookingSvc, kv, cfg.IdempotencyTTL, log),
		httpapi.NewAnalyticsHandler(analyticsSvc, log),
		log,
	)
	srv := service.NewServer(cfg.ServiceName, cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)

	if amqpPublisher != nil {
		_ = amqpPublisher.Close()
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = rediscommon.Close(redisClient)
	}
	_ = database.Close(db)
}
