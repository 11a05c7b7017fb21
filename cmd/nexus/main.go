package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahsan1011664/Buiseness-Nexus/internal/api"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/auth"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/config"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/discovery"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/events"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/logger"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/metrics"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/presence"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/repository"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/service"
	"github.com/ahsan1011664/Buiseness-Nexus/internal/ws"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	lg, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// storage
	mongoClient, err := repository.NewMongoClient(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	db := mongoClient.Database(cfg.Mongo.Database)

	users, err := repository.NewMongoUserRepo(ctx, db, cfg.MongoTimeout)
	if err != nil {
		return err
	}
	messages, err := repository.NewMongoMessageRepo(ctx, db, cfg.MongoTimeout)
	if err != nil {
		return err
	}
	conns, err := repository.NewMongoConnectionRepo(ctx, mongoClient, db, cfg.MongoTimeout, cfg.Mongo.Transactions)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// redis is optional: presence and the shared rate limiter need it
	var (
		sessions   ws.Presence
		onlineView api.PresenceReader
		limiter    api.Limiter
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Pass, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn("redis not reachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		ps := presence.NewStore(rdb, cfg.Redis.Prefix, cfg.PresenceTTL)
		sessions, onlineView = ps, ps
		limiter = api.NewRedisLimiter(rdb, cfg.Redis.Prefix, cfg.RateLimit.Limit, cfg.RateLimitWindow)
	} else {
		lg.Info("redis disabled; presence is node-local and rate limiting is off")
	}

	var (
		publisher service.EventPublisher
		breaker   api.BreakerState
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent, cfg.Kafka.TopicConnectionEvents, lg)
		defer func() {
			if err := producer.Close(); err != nil {
				lg.Warn("kafka producer close", zap.Error(err))
			}
		}()
		publisher, breaker = producer, producer
	}

	clock := service.NewClock()
	tokens := auth.NewJWTManager(cfg.App.JWTSecret, cfg.TokenTTL)
	store := service.NewMessageStore(messages, clock)
	chat := service.NewChatService(store, users, publisher, lg)
	graph := service.NewConnectionGraph(conns, users, publisher, clock,
		service.GraphOptions{AllowRequestAfterReject: cfg.Connections.AllowRequestAfterReject}, lg)

	router := ws.NewRouter(ws.NewHub(), tokens, chat, sessions, m, lg, ws.Options{
		PingInterval:      cfg.PingInterval,
		WriteDeadline:     cfg.WriteDeadline,
		AuthTimeout:       cfg.AuthTimeout,
		MaxMessageSize:    cfg.WS.MaxMessageSizeBytes,
		SendBuffer:        cfg.WS.SendBuffer,
		MessagesPerSecond: cfg.WS.MessagesPerSecond,
		OpTimeout:         cfg.MongoTimeout,
	})

	srv := api.NewServer(api.Deps{
		Auth:     auth.NewService(users, tokens, lg),
		Verifier: tokens,
		Chat:     chat,
		Convs:    service.NewConversationAggregator(store, users),
		Graph:    graph,
		Router:   router,
		Presence: onlineView,
		Limiter:  limiter,
		Events:   breaker,
		Ready: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		},
		Metrics:  m,
		Gatherer: reg,
		Log:      lg,
	})

	registrar, err := discovery.NewRegistrar(discovery.Options{
		ConsulAddr:  cfg.Consul.Addr,
		ServiceName: cfg.Consul.ServiceName,
		Address:     cfg.Consul.ServiceAddress,
		Port:        cfg.App.Port,
	}, uuid.NewString(), lg)
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		lg.Info("starting business nexus", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		errs <- srv.Listen(cfg.App.Addr())
	}()
	if err := registrar.Register(ctx); err != nil {
		lg.Warn("consul registration failed", zap.Error(err))
	}

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-ctx.Done():
		lg.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := registrar.Deregister(shutdownCtx); err != nil {
		lg.Warn("consul deregistration failed", zap.Error(err))
	}
	router.Shutdown()
	if err := srv.Shutdown(cfg.ShutdownTimeout); err != nil {
		lg.Warn("http shutdown", zap.Error(err))
	}
	lg.Info("shut down cleanly")
	return nil
}
