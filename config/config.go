package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	Debug     bool
	DB        DBConfig
	JWTSecret string
	JWTTTL    time.Duration
	AWSRegion string
	SESEmail  string // sender for moderation notices; empty disables mail
}

type DBConfig struct {
	Driver     string // "postgres" or "sqlite"
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SQLitePath string
	Debug      bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	ttlHours, err := strconv.Atoi(getenv("JWT_TTL_HOURS", "72"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("JWT_TTL_HOURS must be a positive integer")
	}

	debug := os.Getenv("DEBUG") == "true"
	cfg := &Config{
		Port:  getenv("PORT", "8080"),
		Debug: debug,
		DB: DBConfig{
			Driver:     getenv("DB_DRIVER", "postgres"),
			Host:       getenv("DB_HOST", "localhost"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       getenv("DB_NAME", "caketruth"),
			Port:       getenv("DB_PORT", "5432"),
			SQLitePath: getenv("SQLITE_PATH", "caketruth.db"),
			Debug:      debug,
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    time.Duration(ttlHours) * time.Hour,
		AWSRegion: os.Getenv("AWS_REGION"),
		SESEmail:  os.Getenv("SES_EMAIL"),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	if cfg.SESEmail != "" && cfg.AWSRegion == "" {
		log.Printf("SES_EMAIL set without AWS_REGION; relying on the default AWS region chain")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
