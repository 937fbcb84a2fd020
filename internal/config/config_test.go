package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Storage.Driver != DriverMemory || cfg.Play.LeaderboardSize != 10 || cfg.Play.PerQuizPoints {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9000"
  cors_origins: ["http://localhost:3000"]
storage:
  driver: Mongo
mongo:
  uri: mongodb://file:27017
play:
  require_quiz_membership: true
  attempt_ttl: 30m
  per_quiz_points: true
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MONGO_URI", "mongodb://env:27017")
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("empty env must not override port, got %q", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverMongo || cfg.Mongo.URI != "mongodb://env:27017" {
		t.Fatalf("unexpected storage config: %+v %+v", cfg.Storage, cfg.Mongo)
	}
	if cfg.Mongo.Database != "quiz_api" || cfg.Redis.QuizTTL != "10m" {
		t.Fatalf("defaults lost when merging file: %+v", cfg)
	}
	if !cfg.Play.RequireQuizMembership || !cfg.Play.PerQuizPoints || TTLDuration(cfg.Play.AttemptTTL, 0) != 30*time.Minute {
		t.Fatalf("unexpected play config: %+v", cfg.Play)
	}
	if len(cfg.Server.CORSOrigins) != 1 {
		t.Fatalf("unexpected cors origins: %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("empty: %v", got)
	}
	if got := TTLDuration("nonsense", time.Minute); got != time.Minute {
		t.Fatalf("invalid: %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("valid: %v", got)
	}
}
