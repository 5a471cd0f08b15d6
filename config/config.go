package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type ConfigStruct struct {
	Server   ServerConfig
	Store    StoreConfig
	Catalog  CatalogConfig
	Player   PlayerConfig
	Sentry   SentryConfig
	LogLevel string
}

type ServerConfig struct {
	Port string
}

type StoreConfig struct {
	Driver       string // "sqlite" or "mongo"
	Path         string
	MongoURI     string
	HistoryLimit int
}

type CatalogConfig struct {
	BaseURL string
}

type PlayerConfig struct {
	Tick                    time.Duration
	AutoplayRequiresGesture bool
}

type SentryConfig struct {
	DSN     string
	Release string
}

func (s *StoreConfig) IsMongo() bool {
	return s.Driver == "mongo"
}

func (s *SentryConfig) IsEnabled() bool {
	return s.DSN != ""
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Server: ServerConfig{
			Port: getPort(),
		},
		Store: StoreConfig{
			Driver:       getStoreDriver(),
			Path:         getDBPath(),
			MongoURI:     getMongoURI(),
			HistoryLimit: getHistoryLimit(),
		},
		Catalog: CatalogConfig{
			BaseURL: getCatalogURL(),
		},
		Player: PlayerConfig{
			Tick:                    getTick(),
			AutoplayRequiresGesture: os.Getenv("AUTOPLAY_REQUIRES_GESTURE") == "true",
		},
		Sentry: SentryConfig{
			DSN:     os.Getenv("SENTRY_DSN"),
			Release: os.Getenv("RELEASE"),
		},
		LogLevel: getLogLevel(),
	}

	Config = config
}

func getPort() string {
	port := os.Getenv("PORT")
	if port == "" {
		return "4000"
	}
	return port
}

func getStoreDriver() string {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE")))
	if driver == "mongo" || driver == "mongodb" {
		return "mongo"
	}
	return "sqlite"
}

func getDBPath() string {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		return "data/musicstream.db"
	}
	return dbPath
}

func getMongoURI() string {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		return "mongodb://localhost:27017"
	}
	return strings.TrimSuffix(uri, "/")
}

func getCatalogURL() string {
	url := os.Getenv("CATALOG_URL")
	if url == "" {
		return "http://localhost:4000"
	}
	return strings.TrimSuffix(url, "/")
}

func getTick() time.Duration {
	msStr := os.Getenv("TICK_MILLIS")
	if msStr == "" {
		return 250 * time.Millisecond
	}
	ms, err := strconv.Atoi(msStr)
	if err != nil || ms <= 0 {
		return 250 * time.Millisecond
	}
	if ms < 50 {
		return 50 * time.Millisecond
	}
	if ms > 1000 {
		return time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

func getHistoryLimit() int {
	limitStr := os.Getenv("HISTORY_LIMIT")
	if limitStr == "" {
		return 20
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func getLogLevel() string {
	level := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if level == "" {
		return "info"
	}
	return level
}
