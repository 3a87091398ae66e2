package dedupe

// Option applies a configuration option to the deduper.
type Option func(*ringDeduper)

// WithMaxSize bounds the number of remembered ids. Oldest ids are
// evicted first once the bound is hit. maxSize <= 0 disables eviction.
func WithMaxSize(maxSize int) Option {
	return func(d *ringDeduper) {
		d.maxSize = maxSize
	}
}
