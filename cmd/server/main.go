package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/course_market/internal/cache"
	"github.com/Skotchmaster/course_market/internal/config"
	"github.com/Skotchmaster/course_market/internal/es"
	"github.com/Skotchmaster/course_market/internal/handlers"
	"github.com/Skotchmaster/course_market/internal/mykafka"
	"github.com/Skotchmaster/course_market/internal/service"
	"github.com/Skotchmaster/course_market/internal/service/search"
	httpserver "github.com/Skotchmaster/course_market/internal/transport/http"
	"github.com/Skotchmaster/course_market/pkg/logging"
	metricsmw "github.com/Skotchmaster/course_market/pkg/middleware/metrics"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := config.OpenStore(initCtx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("store init error: %v", err)
	}

	var producer mykafka.Publisher = mykafka.Noop{}
	var kafkaProducer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			cancel()
			log.Fatalf("kafka init error: %v", err)
		}
		producer = kafkaProducer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var searcher search.Searcher = search.StoreSearcher{Repo: store}
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(logging.IntoContext(initCtx, logger), es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			cancel()
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searcher = search.NewElasticSearcher(esClient, cfg.ESIndex)
	} else {
		logger.Warn("elasticsearch_disabled", "reason", "ES_URL is empty, searching the store")
	}

	var courseCache *cache.CourseCache
	if cfg.RedisURL != "" {
		courseCache, err = cache.Open(initCtx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			cancel()
			log.Fatalf("redis init error: %v", err)
		}
	}
	cancel()

	e := httpserver.New(logger, &httpserver.Deps{
		UserHandler: &handlers.UserHTTP{Svc: &service.UserService{
			Repo:      store,
			Producer:  producer,
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  cfg.AccessTokenTTL,
		}},
		CourseHandler: &handlers.CourseHTTP{Svc: &service.CourseService{
			Repo:     store,
			Producer: producer,
			Search:   searcher,
			Cache:    courseCache,
		}},
		JWTSecret:     cfg.JWTSecret,
		Metrics:       metricsmw.New(cfg.ServiceName),
		Ready:         store.Ping,
		AuthRateLimit: cfg.AuthRateLimit,
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("server_started", "addr", addr, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_error", "error", err)
	}
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if err := courseCache.Close(); err != nil {
		logger.Error("redis_close_error", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("store_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
