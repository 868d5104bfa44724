package audit

import "github.com/okian/logoduel/pkg/logger"

// Option applies a configuration option to the Log.
type Option func(*Log)

// WithLogger sets a custom logger for the audit log.
func WithLogger(log logger.Logger) Option {
	return func(l *Log) {
		if log != nil {
			l.log = log
		}
	}
}
