package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GooglePlacesKey    string
	FacebookAppID      string
	FacebookAppSecret  string
	YelpAPIKey         string
	ZembraToken        string

	KafkaBrokers   []string
	SentimentTopic string

	Workers     int
	ReviewLimit int
	CacheTTL    time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviewhub?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		GoogleClientID:     env("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: env("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  env("GOOGLE_REDIRECT_URI", ""),
		GooglePlacesKey:    env("GOOGLE_PLACES_API_KEY", ""),
		FacebookAppID:      env("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:  env("FACEBOOK_APP_SECRET", ""),
		YelpAPIKey:         env("YELP_API_KEY", ""),
		ZembraToken:        env("ZEMBRA_TOKEN", ""),

		KafkaBrokers:   splitCSV(env("KAFKA_BROKERS", "")),
		SentimentTopic: env("SENTIMENT_TOPIC", "review-analysis"),

		Workers:     atoi("SYNC_WORKERS", 8),
		ReviewLimit: atoi("SYNC_REVIEW_LIMIT", 100),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if len(c.KafkaBrokers) == 0 {
		log.Warn().Msg("KAFKA_BROKERS is empty; sentiment analysis trigger disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
