package rating

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKFactor sets the maximum rating swing from a single match.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.kFactor = k
		}
	}
}

// WithDefaultRating sets the rating assigned to unseen participants.
func WithDefaultRating(r float64) Option {
	return func(e *Engine) {
		if r > 0 {
			e.defaultRating = r
		}
	}
}

// WithHistoryLimit caps the number of retained history records.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}
