package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewhub/internal/adapters/messaging"
	"reviewhub/internal/adapters/observability"
	redisad "reviewhub/internal/adapters/redis"
	"reviewhub/internal/app"
	"reviewhub/internal/domain"
	"reviewhub/internal/platform"
	"reviewhub/internal/shared"
	mysqlrepo "reviewhub/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.Workers).
		Int("review_limit", cfg.ReviewLimit).
		Msg("syncer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	registry := platform.New(cfg)

	var notifier domain.AnalysisNotifier
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewSentimentProducer(cfg.KafkaBrokers, cfg.SentimentTopic)
		defer producer.Close()
		notifier = producer
	}

	svc := app.NewSyncService(registry, repo, cache, notifier)

	targets, err := repo.ListActiveConnections(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list active connections failed")
	}
	log.Info().Int("connections", len(targets)).Msg("refreshing connections")

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, t := range targets {
		t := t

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(target domain.SyncTarget) {
			defer wg.Done()
			defer sem.Release(1)

			res := svc.Sync(ctx, app.SyncRequest{
				LocationID:  target.LocationID,
				Platform:    target.PlatformName,
				PageID:      target.PlatformLocationID,
				PostedAfter: target.LastSyncAt, // incremental where supported
				Limit:       cfg.ReviewLimit,
			})
			if !res.Success {
				log.Warn().
					Int64("connection", target.ID).
					Str("platform", target.PlatformName).
					Str("error", res.Error).
					Msg("refresh failed")
				return
			}
			log.Info().
				Int64("connection", target.ID).
				Str("platform", target.PlatformName).
				Int("imported", res.ReviewsImported).
				Msg("refresh ok")
		}(t)
	}

	wg.Wait()
	log.Info().Msg("refresh completed")
}
