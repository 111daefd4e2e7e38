package repository

import (
	"context"
	"fmt"

	"github.com/okian/rollcall/internal/config"
)

// Open builds the Store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		return NewMemoryStore(opts...), nil
	case config.StorePostgres:
		opts = append([]Option{WithAutoMigrate(cfg.AutoMigrate)}, opts...)
		return OpenPostgres(ctx, cfg.DatabaseDSN, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
