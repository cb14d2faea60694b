package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/botfluent/botfluent/pkg/persistence"
	"github.com/botfluent/botfluent/pkg/persistence/file"
	"github.com/botfluent/botfluent/pkg/persistence/memory"
	"github.com/botfluent/botfluent/pkg/persistence/postgresql"
	"github.com/botfluent/botfluent/pkg/persistence/redis"
)

// NewFlowRepository creates a flow repository from the database URL
// scheme. Anything that is not PostgreSQL is treated as a file path.
func NewFlowRepository(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.FlowRepository {
	switch scheme(databaseURL) {
	case "postgres", "postgresql":
		repository, err := postgresql.NewRepository(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL repository: %w", err))
		}

		return repository
	default:
		return file.NewRepository(databaseURL)
	}
}

// NewSessionStore creates a session store from the session store URL. An
// empty URL selects the in-memory store.
func NewSessionStore(ctx context.Context, logger *slog.Logger, storeURL string, ttl time.Duration) persistence.SessionStore {
	switch scheme(storeURL) {
	case "redis", "rediss":
		store, err := redis.NewSessionStore(ctx, logger, storeURL, ttl)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis session store: %w", err))
		}

		return store
	default:
		return memory.NewSessionStore()
	}
}

func scheme(url string) string {
	parts := strings.SplitN(url, "://", 2)
	if len(parts) < 2 {
		return ""
	}

	return parts[0]
}
