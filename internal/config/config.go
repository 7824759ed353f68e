package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Crawler   CrawlerConfig
	Extractor ExtractorConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Relay     RelayConfig
	Feed      FeedConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type CrawlerConfig struct {
	StartURL      string
	AllowedDomain string
	Source        string
	UserAgent     string
	Parallelism   int
	Delay         time.Duration
	RandomDelay   time.Duration
	MaxRetries    int
}

// ExtractorConfig carries the site-specific keywords and selectors the row
// classifier matches on. They are configuration, not code, so a listing-text
// change is an env edit rather than a release.
type ExtractorConfig struct {
	PassengerKeyword     string
	MileageKeyword       string
	WheelchairKeyword    string
	LuggageKeyword       string
	MainImageSelector    string
	ThumbnailSelector    string
	DetailsTableSelector string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

type FeedConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, with a .env file as an
// optional local override. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Crawler: CrawlerConfig{
			StartURL:      getEnvOrDefault("CRAWLER_START_URL", "http://absolutebus.com/listings/"),
			AllowedDomain: getEnvOrDefault("CRAWLER_ALLOWED_DOMAIN", "absolutebus.com"),
			Source:        getEnvOrDefault("CRAWLER_SOURCE", "absolutebus"),
			UserAgent:     getEnvOrDefault("CRAWLER_USER_AGENT", "bus-scraper/1.0 (+https://github.com/busmarket/bus-scraper)"),
			Parallelism:   getIntOrDefault("CRAWLER_PARALLELISM", 2),
			Delay:         getDurationOrDefault("CRAWLER_DELAY", 2*time.Second),
			RandomDelay:   getDurationOrDefault("CRAWLER_RANDOM_DELAY", time.Second),
			MaxRetries:    getIntOrDefault("CRAWLER_MAX_RETRIES", 2),
		},
		Extractor: ExtractorConfig{
			PassengerKeyword:     getEnvOrDefault("EXTRACTOR_PASSENGER_KEYWORD", "psssanger"),
			MileageKeyword:       getEnvOrDefault("EXTRACTOR_MILEAGE_KEYWORD", "miles"),
			WheelchairKeyword:    getEnvOrDefault("EXTRACTOR_WHEELCHAIR_KEYWORD", "wheelchair"),
			LuggageKeyword:       getEnvOrDefault("EXTRACTOR_LUGGAGE_KEYWORD", "luggage"),
			MainImageSelector:    getEnvOrDefault("EXTRACTOR_MAIN_IMAGE_SELECTOR", "#bodytext > img:first-child, p.style5 > img, p.style4 > img"),
			ThumbnailSelector:    getEnvOrDefault("EXTRACTOR_THUMBNAIL_SELECTOR", ".thumbnails a img"),
			DetailsTableSelector: getEnvOrDefault("EXTRACTOR_DETAILS_TABLE_SELECTOR", "table.posttable:first-of-type"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "bus_market"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Relay: RelayConfig{
			PollInterval: getDurationOrDefault("RELAY_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getIntOrDefault("RELAY_BATCH_SIZE", 100),
		},
		Feed: FeedConfig{
			Path: getEnvOrDefault("FEED_PATH", "raw_buses.json"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Crawler.StartURL == "" {
		return fmt.Errorf("CRAWLER_START_URL must not be empty")
	}

	if c.Crawler.Parallelism < 1 {
		return fmt.Errorf("CRAWLER_PARALLELISM must be at least 1")
	}

	if c.Crawler.MaxRetries < 0 {
		return fmt.Errorf("CRAWLER_MAX_RETRIES cannot be negative")
	}

	if c.Relay.BatchSize < 1 {
		return fmt.Errorf("RELAY_BATCH_SIZE must be at least 1")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
