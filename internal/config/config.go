package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string   `yaml:"port"`
		ReadTimeout  string   `yaml:"read_timeout"`
		WriteTimeout string   `yaml:"write_timeout"`
		Mode         string   `yaml:"mode"`
		CORSOrigins  []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Storage struct {
		// Driver is memory, mongo or postgres.
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		QuizTTL  string `yaml:"quiz_ttl"`
		LockTTL  string `yaml:"lock_ttl"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Play struct {
		RequireQuizMembership bool   `yaml:"require_quiz_membership"`
		PerQuizPoints         bool   `yaml:"per_quiz_points"`
		AttemptTTL            string `yaml:"attempt_ttl"`
		LeaderboardSize       int    `yaml:"leaderboard_size"`
	} `yaml:"play"`
}

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = "15s"
	cfg.Server.WriteTimeout = "15s"
	cfg.Server.Mode = "release"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Storage.Driver = DriverMemory
	cfg.Mongo.Database = "quiz_api"
	cfg.Redis.QuizTTL = "10m"
	cfg.Redis.LockTTL = "5s"
	cfg.RabbitMQ.Exchange = "quiz.events"
	cfg.Play.LeaderboardSize = 10
	return cfg
}

// LoadDotEnv loads .env into the process environment. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads YAML config from path on top of the defaults, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMemory
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"PORT", &cfg.Server.Port},
		{"STORAGE_DRIVER", &cfg.Storage.Driver},
		{"MONGO_URI", &cfg.Mongo.URI},
		{"MONGO_DATABASE", &cfg.Mongo.Database},
		{"POSTGRES_URL", &cfg.Postgres.URL},
		{"REDIS_ADDR", &cfg.Redis.Addr},
		{"RABBITMQ_URL", &cfg.RabbitMQ.URL},
		{"LOG_LEVEL", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst = v
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
