package kv

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Backend string        `yaml:"backend"`
	File    FileConfig    `yaml:"file"`
	Redis   RedisConfig   `yaml:"redis"`
	S3      S3Config      `yaml:"s3"`
	Timeout time.Duration `yaml:"timeout"`
	Breaker BreakerConfig `yaml:"breaker"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

// Open builds the Store selected by cfg.Backend. Remote backends come back
// wrapped in a Breaker.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case "", BackendFile:
		return OpenFile(cfg.File.Path)
	case BackendRedis:
		r, err := DialRedis(ctx, cfg.Redis, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return NewBreaker("redis-store", r, cfg.Breaker, log), nil
	case BackendS3:
		s, err := OpenS3(ctx, cfg.S3, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return NewBreaker("s3-store", s, cfg.Breaker, log), nil
	default:
		return nil, ErrUnknownBackend{Name: cfg.Backend}
	}
}
