package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "reviewhub/internal/adapters/http_server"
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
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	registry := platform.New(cfg)

	var notifier domain.AnalysisNotifier
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewSentimentProducer(cfg.KafkaBrokers, cfg.SentimentTopic)
		defer producer.Close()
		notifier = producer
	}

	syncSvc := app.NewSyncService(registry, repo, cache, notifier)
	querySvc := app.NewQueryService(repo, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: querySvc, S: syncSvc, Reg: registry})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
