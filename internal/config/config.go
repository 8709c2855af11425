// Package config loads the YAML configuration file, the optional .env
// file and KBAN_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gmllt/kban/internal/kv"
	"github.com/gmllt/kban/internal/logging"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Server ServerConfig   `yaml:"server"`
	Store  kv.Config      `yaml:"store"`
	Log    logging.Config `yaml:"log"`
	// Seed is an optional YAML task list used instead of the built-in
	// initial data.
	Seed string `yaml:"seed"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Store: kv.Config{
			Backend: kv.BackendFile,
			File:    kv.FileConfig{Path: "kban.json"},
			Redis:   kv.RedisConfig{Addr: "localhost:6379", Prefix: "kban:"},
			S3:      kv.S3Config{Region: "us-east-1", UsePathStyle: true, Prefix: "kban/"},
			Timeout: 10 * time.Second,
			Breaker: kv.BreakerConfig{MaxFailures: 3, OpenTimeout: 5 * time.Second},
		},
		Log: logging.Config{Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28, Compress: true},
	}
}

// Load reads path on top of Default. A missing file is not an error.
// Variables from envFile (if it exists) are exported before the KBAN_*
// overrides are applied; variables already set in the environment win.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		dec := yaml.NewDecoder(f)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("error decoding config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("error opening config: %w", err)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"KBAN_ADDR":           &cfg.Server.Addr,
		"KBAN_STORE":          &cfg.Store.Backend,
		"KBAN_STORE_FILE":     &cfg.Store.File.Path,
		"KBAN_REDIS_ADDR":     &cfg.Store.Redis.Addr,
		"KBAN_REDIS_PASSWORD": &cfg.Store.Redis.Password,
		"KBAN_S3_ENDPOINT":    &cfg.Store.S3.Endpoint,
		"KBAN_S3_BUCKET":      &cfg.Store.S3.Bucket,
		"KBAN_S3_REGION":      &cfg.Store.S3.Region,
		"KBAN_S3_ACCESS_KEY":  &cfg.Store.S3.AccessKey,
		"KBAN_S3_SECRET_KEY":  &cfg.Store.S3.SecretKey,
		"KBAN_LOG_LEVEL":      &cfg.Log.Level,
		"KBAN_LOG_FILE":       &cfg.Log.File,
		"KBAN_SEED":           &cfg.Seed,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("KBAN_STORE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid KBAN_STORE_TIMEOUT: %w", err)
		}
		cfg.Store.Timeout = d
	}
	if v, ok := os.LookupEnv("KBAN_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid KBAN_REDIS_DB: %w", err)
		}
		cfg.Store.Redis.DB = n
	}
	return nil
}
