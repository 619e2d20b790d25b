package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
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
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	JWTTTL      time.Duration
	CacheTTL    time.Duration
	CORSOrigins []string
	RateRPS     float64
	RateBurst   int
	Allocators  int
	PricingFile string
	TaxPercent  float64
	ChannelBase string
	ChannelKey  string
	ChannelRPS  int
	SyncWorkers int
	SyncDays    int
	// WorkerEvery is the worker loop period; 0 runs a single pass.
	WorkerEvery time.Duration

	// TrustedProxies lists proxy addresses or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

func Load() Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Msg("ignoring non-integer config value")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Msg("ignoring non-numeric config value")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/pms?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		MongoURI:    env("MONGO_URI", ""),
		MongoDB:     env("MONGO_DB", "pms"),
		JWTSecret:   env("JWT_SECRET", ""),
		JWTTTL:      time.Duration(atoi("JWT_TTL_MINUTES", 720)) * time.Minute,
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		CORSOrigins: splitList(env("CORS_ORIGINS", "*")),
		RateRPS:     atof("RATE_LIMIT_RPS", 5),
		RateBurst:   atoi("RATE_LIMIT_BURST", 20),
		Allocators:  atoi("ALLOCATOR_WORKERS", 4),
		PricingFile: env("PRICING_FILE", ""),
		TaxPercent:  atof("TAX_PERCENT", 10),
		ChannelBase: env("CHANNEL_BASE_URL", ""),
		ChannelKey:  env("CHANNEL_API_KEY", ""),
		ChannelRPS:  atoi("CHANNEL_RPS", 5),
		SyncWorkers: atoi("SYNC_WORKERS", 4),
		SyncDays:    atoi("SYNC_DAYS", 90),
		WorkerEvery: time.Duration(atoi("WORKER_INTERVAL_MINUTES", 15)) * time.Minute,
	}
	c.TrustedProxies = splitList(env("TRUSTED_PROXIES", ""))
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; staff endpoints will reject every token")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
