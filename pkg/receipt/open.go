package receipt

import (
	"context"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Mongo   MongoOptions
}

// Open constructs the configured store. An empty backend selects memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendMongo:
		s, err := NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown receipt backend %q", cfg.Backend)
}
