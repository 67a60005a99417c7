package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

var (
	ErrMissingBackendURL = errors.New("BACKEND_URL is not set")
	ErrInvalidValue      = errors.New("invalid config value")
)

const (
	DraftDiffPosition = "position"
	DraftDiffID       = "id"
)

type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	StoreDriver string
	StorePath   string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	BackendURL    string
	BackendToken  string
	JWTSecret     string
	CallbackToken string
	CORSOrigins   []string

	PollInterval time.Duration
	DeliveryFee  int64
	DraftDiff    string

	// Location is the shop's time zone. Business days, and with them the
	// voucher cutoff, follow its calendar.
	Location *time.Location
}

// LoadConfig reads .env and the environment and exits when the result is unusable.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}
	return cfg
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        os.Getenv("APP_ENV"),
		AppPort:       envOr("APP_PORT", "8080"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		StoreDriver:   envOr("STORE_DRIVER", "file"),
		StorePath:     envOr("STORE_PATH", "./data"),
		DBHost:        os.Getenv("DB_HOST"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBPort:        envOr("DB_PORT", "5432"),
		DBSSLMode:     envOr("DB_SSLMODE", "disable"),
		BackendURL:    strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		BackendToken:  os.Getenv("BACKEND_TOKEN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CallbackToken: os.Getenv("PAYMENT_CALLBACK_TOKEN"),
		CORSOrigins:   splitList(envOr("CORS_ORIGINS", "http://localhost:3000")),
		DraftDiff:     envOr("DRAFT_DIFF", DraftDiffPosition),
	}

	if cfg.BackendURL == "" {
		return nil, ErrMissingBackendURL
	}

	seconds, err := envInt("POLL_INTERVAL_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: POLL_INTERVAL_SECONDS must be positive", ErrInvalidValue)
	}
	cfg.PollInterval = time.Duration(seconds) * time.Second

	if cfg.DeliveryFee, err = envInt("DELIVERY_FEE", 0); err != nil {
		return nil, err
	}

	if cfg.DraftDiff != DraftDiffPosition && cfg.DraftDiff != DraftDiffID {
		return nil, fmt.Errorf("%w: DRAFT_DIFF must be %q or %q", ErrInvalidValue, DraftDiffPosition, DraftDiffID)
	}

	tz := envOr("BUSINESS_TZ", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("%w: BUSINESS_TZ=%q", ErrInvalidValue, tz)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
