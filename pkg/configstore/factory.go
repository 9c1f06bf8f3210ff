package configstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Options struct {
	Backend          Backend
	FilePath         string
	RedisURL         string
	PostgresURL      string
	EncryptionSecret string
}

// Open builds the configured backend and wraps it in an EncryptedStore.
// Persistent backends refuse to start without an encryption secret.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		inner Store
		err   error
	)

	switch opts.Backend {
	case BackendMemory, "":
		inner = NewMemoryStore()
	case BackendFile:
		inner, err = NewFileStore(opts.FilePath)
	case BackendRedis:
		var redisStore *RedisStore
		redisStore, err = NewRedisStore(RedisStoreOpts{URL: opts.RedisURL})
		if err == nil {
			if pingErr := redisStore.Ping(ctx); pingErr != nil {
				redisStore.Close()
				return nil, pingErr
			}
			inner = redisStore
		}
	case BackendPostgres:
		inner, err = NewPostgresStore(ctx, opts.PostgresURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", opts.Backend, err)
	}

	if opts.EncryptionSecret == "" {
		if opts.Backend == BackendMemory || opts.Backend == "" {
			log.Warn().Msg("In-memory settings store is not encrypted and is lost on restart")
			return inner, nil
		}

		inner.Close()
		return nil, fmt.Errorf("store.encryption_key is required for the %s backend", opts.Backend)
	}

	encrypted, err := NewEncryptedStore(inner, opts.EncryptionSecret)
	if err != nil {
		inner.Close()
		return nil, err
	}

	log.Debug().Str("backend", string(opts.Backend)).Msg("Settings store opened")

	return encrypted, nil
}
