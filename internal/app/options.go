package service

import (
	"time"

	"github.com/okian/logoduel/internal/domain/rating"
	"github.com/okian/logoduel/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngine replaces the default rating engine.
func WithEngine(engine *rating.Engine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// WithLeaderboardSize caps the leaderboard returned by GetMetrics.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.leaderboardSize = n
		}
	}
}

// WithClock overrides the time source, used by tests for deterministic
// match timestamps.
func WithClock(now func() time.Time) Option {
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
