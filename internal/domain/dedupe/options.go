package dedupe

// settings holds construction-time configuration for a deduper.
type settings struct {
	initialCapacity int
}

// Option applies a configuration option to a deduper.
type Option func(*settings)

// WithInitialCapacity pre-sizes the seen set when the caller knows roughly
// how many keys to expect.
func WithInitialCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.initialCapacity = n
		}
	}
}
