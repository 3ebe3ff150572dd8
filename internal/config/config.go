package config

import (
	"os"
	"time"

	"github.com/harsha08-2k6/studyplan/internal/store"
)

type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DBPath         string
}

func Load() (Config, error) {
	dbPath := os.Getenv("STUDYPLAN_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
	}

	return Config{
		APIBaseURL:     getenv("STUDYPLAN_API_URL", "http://localhost:8000/api"),
		RequestTimeout: getenvDuration("STUDYPLAN_TIMEOUT", 15*time.Second),
		DBPath:         dbPath,
	}, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
