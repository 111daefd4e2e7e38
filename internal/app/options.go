package service

import (
	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/domain/pipeline"
	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore uses store instead of opening the configured driver.
// The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngine replaces the Tesseract engine.
func WithEngine(e pipeline.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithRoster replaces the configured roster source. Its entries are copied
// into the store on Start.
func WithRoster(src pipeline.RosterSource) Option {
	return func(s *Service) {
		if src != nil {
			s.rosterSrc = src
		}
	}
}
