package recovery

// Option configures a Recoverer.
type Option func(*Recoverer)

// WithMaxAttempts bounds the number of truncation repair candidates.
func WithMaxAttempts(n int) Option {
	return func(r *Recoverer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithExcerptLength sets how many runes of the input a RecoveryError keeps.
func WithExcerptLength(n int) Option {
	return func(r *Recoverer) {
		if n > 0 {
			r.excerptLen = n
		}
	}
}
