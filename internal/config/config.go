package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port          string
	DBDSN         string
	LogFile       string
	TemplatesDir  string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	PageSize int
	PriceMin int
	PriceMax int

	TaxRate          decimal.Decimal
	ShippingFlat     decimal.Decimal
	FreeShippingOver decimal.Decimal

	SearchDebounce time.Duration
	PruneSchedule  string

	// RateLimit is the per-IP request budget per minute.
	RateLimit int
}

// Load reads the environment, after merging in a .env file when one exists.
// Values already set in the environment win over the file.
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Config{
		Port:          str("PORT", "8080"),
		DBDSN:         str("DB_DSN", "storefront.db"),
		LogFile:       str("LOG_FILE", "./storefront.log"),
		TemplatesDir:  str("TEMPLATES_DIR", "./web/templates"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SessionTTL:    dur("SESSION_TTL", 30*24*time.Hour),

		PageSize: num("PAGE_SIZE", 12),
		PriceMin: num("PRICE_MIN", 1),
		PriceMax: num("PRICE_MAX", 1000),

		TaxRate:          dec("TAX_RATE", "0.08"),
		ShippingFlat:     dec("SHIPPING_FLAT", "5.99"),
		FreeShippingOver: dec("FREE_SHIPPING_OVER", "50"),

		SearchDebounce: dur("SEARCH_DEBOUNCE", 300*time.Millisecond),
		PruneSchedule:  str("PRUNE_SCHEDULE", "@hourly"),

		RateLimit: num("RATE_LIMIT", 120),
	}
	if cfg.RateLimit < 1 {
		cfg.RateLimit = 120
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 12
	}
	if cfg.PriceMin < 0 || cfg.PriceMax < cfg.PriceMin {
		cfg.PriceMin, cfg.PriceMax = 1, 1000
	}

	redis := "off"
	if cfg.RedisAddr != "" {
		redis = cfg.RedisAddr
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s REDIS=%s PAGE_SIZE=%d", cfg.Port, cfg.DBDSN, cfg.LogFile, redis, cfg.PageSize)
	return cfg
}

func str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func num(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Printf("[config] %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}

func dec(key, def string) decimal.Decimal {
	fallback := decimal.RequireFromString(def)
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		log.Printf("[config] %s=%q is not a decimal, using %s", key, v, def)
		return fallback
	}
	return d
}
