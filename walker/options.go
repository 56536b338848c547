package walker

import "context"

// Option configures the Walker.
type Option func(*Walker)

// WithContext sets the context checked for cancellation between elements.
func WithContext(ctx context.Context) Option {
	return func(w *Walker) {
		if ctx != nil {
			w.ctx = ctx
		}
	}
}

// WithMaxDepth sets the maximum element nesting depth.
// If depth is <= 0, the default (100) is kept.
func WithMaxDepth(depth int) Option {
	return func(w *Walker) {
		if depth > 0 {
			w.maxDepth = depth
		}
	}
}

// WithComponents controls whether the components tables are walked.
// Default: true.
func WithComponents(enabled bool) Option {
	return func(w *Walker) { w.components = enabled }
}
