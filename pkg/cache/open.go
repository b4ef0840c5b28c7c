package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string `koanf:"backend"`

	// file
	Dir string `koanf:"dir"`

	// memory
	Size int `koanf:"size"`

	// redis
	Redis RedisConfig `koanf:"redis"`

	// mongo
	Mongo MongoConfig `koanf:"mongo"`
}

// Open creates the configured backend. An empty backend name means none.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, fmt.Errorf("cache dir: %w", err)
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendMemory:
		return NewMemoryCache(cfg.Size)
	case BackendRedis:
		return NewRedisCache(ctx, cfg.Redis)
	case BackendMongo:
		return NewMongoCache(ctx, cfg.Mongo)
	}
	return nil, fmt.Errorf("unknown cache backend %q (want none, file, memory, redis or mongo)", cfg.Backend)
}
