package mockdata

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ValidateMetrics checks a metrics payload against the catalog's shape and
// range contract. All violations are joined into one error.
func ValidateMetrics(c Catalog, m MetricsResponse) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrShape}, args...)...))
	}

	if !inRange(m.TotalExtraRevenueMonth, c.RevenueMin, c.RevenueMax) {
		fail("total_extra_revenue_month %v outside [%v, %v]", m.TotalExtraRevenueMonth, c.RevenueMin, c.RevenueMax)
	}
	if !hasMoneyPrecision(m.TotalExtraRevenueMonth) {
		fail("total_extra_revenue_month %v has more than two decimals", m.TotalExtraRevenueMonth)
	}

	if len(m.Wins) != c.WinCount {
		fail("wins has %d entries, want %d", len(m.Wins), c.WinCount)
	}
	for i, w := range m.Wins {
		if !slices.Contains(c.Brands, w.Brand) {
			fail("wins[%d].brand %q not in brand set", i, w.Brand)
		}
		if !inRange(w.DeltaRevenue, c.WinDeltaMin, c.WinDeltaMax) {
			fail("wins[%d].delta_revenue %v outside [%v, %v]", i, w.DeltaRevenue, c.WinDeltaMin, c.WinDeltaMax)
		}
		if c.WinDeltaInteger && w.DeltaRevenue != math.Trunc(w.DeltaRevenue) {
			fail("wins[%d].delta_revenue %v is not an integer", i, w.DeltaRevenue)
		}
		if !c.WinDeltaInteger && !hasMoneyPrecision(w.DeltaRevenue) {
			fail("wins[%d].delta_revenue %v has more than two decimals", i, w.DeltaRevenue)
		}
		if c.WinTimestamps != (w.Timestamp != nil) {
			fail("wins[%d].timestamp presence is %t, want %t", i, w.Timestamp != nil, c.WinTimestamps)
		}
		if i > 0 && w.Timestamp != nil && m.Wins[i-1].Timestamp != nil && *w.Timestamp > *m.Wins[i-1].Timestamp {
			fail("wins not sorted most recent first at index %d", i)
		}
	}

	if want := c.BeforeAfterCount(); len(m.BeforeAfter) != want {
		fail("before_after has %d entries, want %d", len(m.BeforeAfter), want)
	}
	seen := make(map[BeforeAfter]struct{}, len(m.BeforeAfter))
	for i, p := range m.BeforeAfter {
		if !slices.Contains(c.BeforeAfter, p) {
			fail("before_after[%d] %q -> %q not in pool", i, p.Before, p.After)
		}
		if _, dup := seen[p]; dup {
			fail("before_after[%d] repeats a pair", i)
		}
		seen[p] = struct{}{}
	}

	return errors.Join(errs...)
}

// ValidateWinAges checks that every win timestamp lies inside the catalog's
// age window measured back from now. slack widens the window on both sides to
// absorb clock skew and request latency. Catalogs without timestamps pass.
func ValidateWinAges(c Catalog, m MetricsResponse, now time.Time, slack time.Duration) error {
	if !c.WinTimestamps {
		return nil
	}
	nowSec := float64(now.UnixNano()) / nanosPerSec
	slackSec := slack.Seconds()
	oldest := nowSec - float64(c.WinAgeMaxSec) - slackSec
	newest := nowSec - float64(c.WinAgeMinSec) + slackSec

	var errs []error
	for i, w := range m.Wins {
		if w.Timestamp == nil {
			continue
		}
		if !inRange(*w.Timestamp, oldest, newest) {
			errs = append(errs, fmt.Errorf("%w: wins[%d].timestamp %.3f outside age window [%d, %d]s before %.3f",
				ErrShape, i, *w.Timestamp, c.WinAgeMinSec, c.WinAgeMaxSec, nowSec))
		}
	}
	return errors.Join(errs...)
}

// ValidateTrials checks a trial feed against the catalog's shape and range
// contract. All violations are joined into one error.
func ValidateTrials(c Catalog, trials []TrialSignup) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrShape}, args...)...))
	}

	if len(trials) != c.TrialCount {
		fail("trials has %d entries, want %d", len(trials), c.TrialCount)
	}
	pattern := c.AnonIDPattern()
	for i, t := range trials {
		if !slices.Contains(c.Markets, t.Market) {
			fail("trials[%d].market %q not in market set", i, t.Market)
		}
		if t.MinutesAgo < 1 || t.MinutesAgo > c.TrialMaxMinutes {
			fail("trials[%d].minutes_ago %d outside [1, %d]", i, t.MinutesAgo, c.TrialMaxMinutes)
		}
		if i > 0 && t.MinutesAgo < trials[i-1].MinutesAgo {
			fail("trials not sorted by minutes_ago at index %d", i)
		}
		match := pattern.FindStringSubmatch(t.AnonID)
		if match == nil {
			fail("trials[%d].anon_id %q does not match %s", i, t.AnonID, pattern)
			continue
		}
		if c.AnonIDFormat == AnonIDTag {
			n, err := strconv.Atoi(match[1])
			if err != nil || n < c.AnonIDTagMin || n > c.AnonIDTagMax {
				fail("trials[%d].anon_id %q tag outside [%d, %d]", i, t.AnonID, c.AnonIDTagMin, c.AnonIDTagMax)
			}
		}
	}

	return errors.Join(errs...)
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func hasMoneyPrecision(v float64) bool {
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(moneyPlaces))
}
