package repository

import (
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	roster      []model.RosterEntry
	autoMigrate bool
	maxIdle     int
	maxOpen     int
	connMaxLife time.Duration
	log         logger.Logger
}

func defaultOptions() options {
	return options{
		autoMigrate: true,
		maxIdle:     2,
		maxOpen:     10,
		connMaxLife: 30 * time.Minute,
		log:         logger.Discard(),
	}
}

// WithRoster seeds the store's roster.
func WithRoster(entries []model.RosterEntry) Option {
	return func(o *options) {
		o.roster = entries
	}
}

// WithAutoMigrate toggles schema migration on open (gorm store only).
func WithAutoMigrate(enabled bool) Option {
	return func(o *options) {
		o.autoMigrate = enabled
	}
}

// WithPool sets connection pool limits (gorm store only).
func WithPool(maxIdle, maxOpen int, maxLifetime time.Duration) Option {
	return func(o *options) {
		if maxIdle > 0 {
			o.maxIdle = maxIdle
		}
		if maxOpen > 0 {
			o.maxOpen = maxOpen
		}
		if maxLifetime > 0 {
			o.connMaxLife = maxLifetime
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
