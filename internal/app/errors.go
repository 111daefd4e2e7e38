package service

import (
	"errors"
	"fmt"

	"github.com/okian/rollcall/internal/adapters/repository"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrJobNotFound = fmt.Errorf("upload job %w", repository.ErrNotFound)
)
