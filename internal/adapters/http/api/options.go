package api

import "github.com/okian/rollcall/pkg/logger"

// Option configures the Server.
type Option func(*options)

type options struct {
	maxUploadBytes int64
	maxLimit       int
	log            logger.Logger
}

func defaultOptions() options {
	return options{
		maxUploadBytes: 64 << 20,
		maxLimit:       200,
		log:            logger.Discard(),
	}
}

// WithMaxUploadBytes caps the size of one multipart upload.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithMaxLimit caps the limit parameter of list endpoints.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
