package mockdata

import (
	"context"
	"math"
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	moneyPlaces = 2
	nanosPerSec = 1e9
)

// Generator samples fresh mock payloads on every call.
//
// math/rand.Rand is not safe for concurrent use, so the source is guarded by
// mu; a single Generator can back every HTTP handler.
type Generator struct {
	catalog Catalog
	now     func() time.Time

	seed   int64
	seeded bool

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a generator. Without WithCatalog the live preset is used and
// without WithSeed the source is seeded from the wall clock.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		catalog: LivePreset(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	if err := g.catalog.Validate(); err != nil {
		return nil, err
	}

	seed := g.seed
	if !g.seeded {
		seed = time.Now().UnixNano()
	}
	g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // demo data, not security sensitive
	return g, nil
}

// Catalog returns a copy of the catalog the generator samples from.
func (g *Generator) Catalog() Catalog {
	return g.catalog.Clone()
}

// Metrics synthesizes the marketing headline payload.
func (g *Generator) Metrics(_ context.Context) MetricsResponse {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := &g.catalog
	return MetricsResponse{
		TotalExtraRevenueMonth: roundMoney(g.uniform(c.RevenueMin, c.RevenueMax)),
		Wins:                   g.wins(),
		BeforeAfter:            g.beforeAfter(),
	}
}

// Trials synthesizes the recent trial signups, soonest first.
func (g *Generator) Trials(_ context.Context) []TrialSignup {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := &g.catalog
	out := make([]TrialSignup, c.TrialCount)
	for i := range out {
		out[i] = TrialSignup{
			AnonID:     g.anonID(),
			MinutesAgo: g.intBetween(1, c.TrialMaxMinutes),
			Market:     c.Markets[g.rng.Intn(len(c.Markets))],
		}
	}
	slices.SortStableFunc(out, func(a, b TrialSignup) int {
		return a.MinutesAgo - b.MinutesAgo
	})
	return out
}

func (g *Generator) wins() []Win {
	c := &g.catalog
	nowSec := float64(g.now().UnixNano()) / nanosPerSec

	out := make([]Win, c.WinCount)
	for i := range out {
		w := Win{Brand: c.Brands[g.rng.Intn(len(c.Brands))]}
		if c.WinDeltaInteger {
			lo, hi := int(math.Ceil(c.WinDeltaMin)), int(math.Floor(c.WinDeltaMax))
			w.DeltaRevenue = float64(g.intBetween(lo, hi))
		} else {
			w.DeltaRevenue = roundMoney(g.uniform(c.WinDeltaMin, c.WinDeltaMax))
		}
		if c.WinTimestamps {
			ts := nowSec - float64(g.intBetween(c.WinAgeMinSec, c.WinAgeMaxSec))
			w.Timestamp = &ts
		}
		out[i] = w
	}

	if c.WinTimestamps {
		// most recent first
		slices.SortStableFunc(out, func(a, b Win) int {
			switch {
			case *a.Timestamp > *b.Timestamp:
				return -1
			case *a.Timestamp < *b.Timestamp:
				return 1
			default:
				return 0
			}
		})
	}
	return out
}

func (g *Generator) beforeAfter() []BeforeAfter {
	c := &g.catalog
	if c.BeforeAfterSample <= 0 {
		return slices.Clone(c.BeforeAfter)
	}
	k := c.BeforeAfterCount()
	perm := g.rng.Perm(len(c.BeforeAfter))
	out := make([]BeforeAfter, k)
	for i := range k {
		out[i] = c.BeforeAfter[perm[i]]
	}
	return out
}

func (g *Generator) anonID() string {
	c := &g.catalog
	if c.AnonIDFormat == AnonIDTag {
		return c.AnonIDPrefix + strconv.Itoa(g.intBetween(c.AnonIDTagMin, c.AnonIDTagMax))
	}
	alphabet := []rune(c.AnonIDAlphabet)
	var b strings.Builder
	b.WriteString(c.AnonIDPrefix)
	for range c.AnonIDTokenLength {
		b.WriteRune(alphabet[g.rng.Intn(len(alphabet))])
	}
	return b.String()
}

// uniform samples [lo, hi].
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// intBetween samples [lo, hi] inclusive.
func (g *Generator) intBetween(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(moneyPlaces).InexactFloat64()
}
