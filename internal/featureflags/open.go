package featureflags

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tempoair/airservice/internal/config"
	"github.com/tempoair/airservice/internal/database"
)

// OpenRepository returns the repository for backend. For postgres it connects
// using DB_* settings and creates the table if needed; the returned close
// function releases the pool and is never nil.
func OpenRepository(ctx context.Context, backend string, logger zerolog.Logger) (Repository, func(), error) {
	switch backend {
	case config.FlagsBackendMemory, "":
		return NewInMemoryRepository(), func() {}, nil
	case config.FlagsBackendPostgres:
		dbConfig, err := database.ConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			return nil, nil, err
		}
		repo := NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().
			Str("host", dbConfig.Host).
			Str("database", dbConfig.Database).
			Msg("feature flags stored in postgres")
		return repo, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown feature flags backend %q", backend)
	}
}
