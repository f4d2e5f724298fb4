package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Studio   StudioConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type StoreConfig struct {
	// Driver is one of "file", "postgres", "memory".
	Driver  string
	DataDir string
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type RedisConfig struct {
	// Addr empty disables the limiter, idempotency store and list cache.
	Addr     string
	Password string
	DB       int
}

type StudioConfig struct {
	// DefaultTimezone is the zone assumed for naive timestamps and for
	// "now" when comparing schedules.
	DefaultTimezone string
	// StrictClientName rejects empty or whitespace-only client names on
	// booking when true; otherwise names are only trimmed.
	StrictClientName bool
	SeedSampleData   bool
	BookRateLimit    int
	BookRateWindow   time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080"
	}

	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	storeDriver := os.Getenv("STORE_DRIVER")
	if storeDriver == "" {
		storeDriver = "file"
	}

	switch storeDriver {
	case "file", "postgres", "memory":
	default:
		return nil, fmt.Errorf("%s: unknown STORE_DRIVER %q", op, storeDriver)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}

	storeCfg := StoreConfig{
		Driver:  storeDriver,
		DataDir: dataDir,
	}

	postgresCfg := PostgresConfig{}
	if storeDriver == "postgres" {
		postgresHost := os.Getenv("POSTGRES_HOST")
		if postgresHost == "" {
			postgresHost = "localhost"
		}

		postgresPortStr := os.Getenv("POSTGRES_PORT")
		if postgresPortStr == "" {
			postgresPortStr = "5432"
		}

		postgresPort, err := strconv.Atoi(postgresPortStr)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid POSTGRES_PORT: %w", op, err)
		}

		postgresUser := os.Getenv("POSTGRES_USER")
		if postgresUser == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
		}

		postgresPassword := os.Getenv("POSTGRES_PASSWORD")
		if postgresPassword == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
		}

		postgresDB := os.Getenv("POSTGRES_DB")
		if postgresDB == "" {
			return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
		}

		postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
		if postgresSSLMode == "" {
			postgresSSLMode = "disable"
		}

		postgresCfg = PostgresConfig{
			User:     postgresUser,
			Password: postgresPassword,
			Name:     postgresDB,
			Host:     postgresHost,
			Port:     postgresPort,
			SSLMode:  postgresSSLMode,
		}
	}

	redisCfg := RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}

	defaultTZ := os.Getenv("DEFAULT_TIMEZONE")
	if defaultTZ == "" {
		defaultTZ = "Asia/Kolkata"
	}

	if _, err := time.LoadLocation(defaultTZ); err != nil {
		return nil, fmt.Errorf("%s: invalid DEFAULT_TIMEZONE: %w", op, err)
	}

	strictName := true
	if v := os.Getenv("STRICT_CLIENT_NAME"); v != "" {
		strictName, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid STRICT_CLIENT_NAME: %w", op, err)
		}
	}

	seed := false
	if v := os.Getenv("SEED_SAMPLE_DATA"); v != "" {
		seed, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid SEED_SAMPLE_DATA: %w", op, err)
		}
	}

	rateLimit := 10
	if v := os.Getenv("BOOK_RATE_LIMIT"); v != "" {
		rateLimit, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid BOOK_RATE_LIMIT: %w", op, err)
		}
	}

	rateWindow := time.Minute
	if v := os.Getenv("BOOK_RATE_WINDOW"); v != "" {
		rateWindow, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid BOOK_RATE_WINDOW: %w", op, err)
		}
	}

	studioCfg := StudioConfig{
		DefaultTimezone:  defaultTZ,
		StrictClientName: strictName,
		SeedSampleData:   seed,
		BookRateLimit:    rateLimit,
		BookRateWindow:   rateWindow,
	}

	return &Config{
		Server:   serverCfg,
		Store:    storeCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Studio:   studioCfg,
	}, nil
}
