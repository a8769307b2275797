package app

import (
	"time"

	"github.com/okian/runboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCooldown sets the minimum interval between forced refreshes.
func WithCooldown(cooldown time.Duration) Option {
	return func(s *Service) {
		if cooldown >= 0 {
			s.cooldown = cooldown
		}
	}
}

// WithNow replaces the time source. Tests use this to control the
// cooldown window.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
