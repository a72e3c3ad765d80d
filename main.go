package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldmetrics-dashboard/internal/aggregator"
	"fieldmetrics-dashboard/internal/config"
	"fieldmetrics-dashboard/internal/db"
	httpapi "fieldmetrics-dashboard/internal/http"
	"fieldmetrics-dashboard/internal/http/handlers"
	"fieldmetrics-dashboard/internal/logger"
	"fieldmetrics-dashboard/internal/queue"
	"fieldmetrics-dashboard/internal/scoring"
	"fieldmetrics-dashboard/internal/source"
	"fieldmetrics-dashboard/internal/storage"
	"fieldmetrics-dashboard/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	// Bad score ranges are a deploy error, not something to discover at
	// request time.
	scores, err := scoring.LoadOverrides(cfg.ScoreRangesPath)
	if err != nil {
		log.Fatal("score ranges invalid", zap.Error(err))
	}

	var pool source.Querier
	if cfg.DatabaseURL != "" {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer p.Close()
		pool = p
	} else {
		log.Info("database disabled (DATABASE_URL is empty)")
	}

	var store *storage.ObjectStore
	if cfg.ObjectStoreBucket != "" {
		store, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
		})
		if err != nil {
			log.Fatal("object store init failed", zap.Error(err))
		}
	} else {
		log.Info("object store disabled (bucket is empty)")
	}

	sources := buildSources(cfg, store, pool, log)

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without events", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureRefreshTopology(ctx, qc, cfg.EventsExchange); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; continuing without events", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}
		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}
	} else {
		log.Info("events disabled (RABBITMQ_URL is empty)")
	}

	aggOpts := []aggregator.Option{aggregator.WithTimeout(cfg.FetchTimeout)}
	if queueClient != nil {
		aggOpts = append(aggOpts, aggregator.WithPublisher(queueClient, cfg.EventsExchange))
	}
	agg := aggregator.New(sources, cfg.Rules(), log, aggOpts...)

	if queueClient != nil {
		log.Info("refresh consumer enabled", zap.String("queue", queue.RefreshQueue))
		go func() {
			err := queueClient.ConsumeWithRetry(queue.RefreshQueue, func(ctx context.Context, body []byte) error {
				return queue.ProcessRefreshEvent(ctx, agg, body)
			}, 5, 5*time.Second)
			if err != nil {
				log.Error("refresh consumer stopped", zap.Error(err))
			}
		}()
	}

	h := &handlers.Handler{
		Logger: log,
		Config: cfg,
		Agg:    agg,
		Scores: scores,
		Queue:  queueClient,
		Store:  store,
	}

	wsServer := ws.New(agg, log, cfg)
	defer wsServer.Close()
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(h, log, cfg, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("dashboard api ready", zap.String("base", "/api"))
		log.Info("dashboard ws ready", zap.String("base", "/ws"))
		log.Info("dashboard listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}

// buildSources wires each configured descriptor to its backend. Descriptors
// whose backend is unavailable are skipped with a warning; the aggregator
// degrades to demo data when nothing survives.
func buildSources(cfg config.Config, store *storage.ObjectStore, pool source.Querier, log *zap.Logger) []source.Source {
	configs, err := cfg.LoadSources()
	if err != nil {
		log.Fatal("source configuration invalid", zap.Error(err))
	}
	if len(configs) == 0 {
		log.Info("no sources configured; dashboard serves demo data")
		return nil
	}

	var sources []source.Source
	for _, sc := range configs {
		switch {
		case sc.WorkbookKey != "":
			if store == nil {
				log.Warn("workbook source skipped, object store not configured", zap.String("source", sc.ID))
				continue
			}
			src, err := source.NewSheetSource(sc, store)
			if err != nil {
				log.Warn("workbook source invalid", zap.String("source", sc.ID), zap.Error(err))
				continue
			}
			sources = append(sources, src)
		case sc.Table != "":
			if pool == nil {
				log.Warn("table source skipped, database not configured", zap.String("source", sc.ID))
				continue
			}
			src, err := source.NewTableSource(sc, pool)
			if err != nil {
				log.Warn("table source invalid", zap.String("source", sc.ID), zap.Error(err))
				continue
			}
			sources = append(sources, src)
		default:
			log.Warn("source has neither workbook nor table", zap.String("source", sc.ID))
		}
	}
	log.Info("sources wired", zap.Int("count", len(sources)))
	return sources
}
