package mockdata

import "time"

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithCatalog sets the catalog to sample from. The catalog is copied.
func WithCatalog(c Catalog) Option {
	return func(g *Generator) {
		g.catalog = c.Clone()
	}
}

// WithSeed makes the generator deterministic.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
		g.seeded = true
	}
}

// WithClock overrides the time source used for win timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}
