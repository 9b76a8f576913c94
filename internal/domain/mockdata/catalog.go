package mockdata

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// AnonIDFormat selects how trial signup ids are generated.
type AnonIDFormat string

// Supported anonymized id formats.
const (
	// AnonIDTag renders <prefix><number>, e.g. "cmo-4821".
	AnonIDTag AnonIDFormat = "tag"
	// AnonIDToken renders <prefix> followed by random alphabet characters, e.g. "QK7M2PX".
	AnonIDToken AnonIDFormat = "token"
)

// Preset names.
const (
	PresetLive    = "live"
	PresetCatalog = "catalog"
)

// DefaultTokenAlphabet omits visually ambiguous characters (0/O, 1/I/L).
const DefaultTokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Catalog is the fixed configuration the generator samples from: closed
// enumerations and numeric bounds. A Catalog held by a Generator is never
// mutated after construction.
type Catalog struct {
	RevenueMin float64
	RevenueMax float64

	Brands          []string
	WinCount        int
	WinDeltaMin     float64
	WinDeltaMax     float64
	WinDeltaInteger bool
	WinTimestamps   bool
	WinAgeMinSec    int
	WinAgeMaxSec    int

	// BeforeAfter is the fixed list when BeforeAfterSample is 0, otherwise
	// the pool sampled without replacement.
	BeforeAfter       []BeforeAfter
	BeforeAfterSample int

	Markets         []string
	TrialCount      int
	TrialMaxMinutes int

	AnonIDFormat      AnonIDFormat
	AnonIDPrefix      string
	AnonIDAlphabet    string
	AnonIDTokenLength int
	AnonIDTagMin      int
	AnonIDTagMax      int
}

// LivePreset is the canonical marketing-site shape: float deltas with
// timestamps, a fixed before/after list and tagged signup ids.
func LivePreset() Catalog {
	return Catalog{
		RevenueMin: 1_500_000,
		RevenueMax: 4_500_000,
		Brands: []string{
			"Flipkart", "Swiggy", "Zalora", "Nykaa", "Myntra", "BigBasket", "Ajio",
			"Noon", "Tokopedia", "Lazada", "ShopClues", "Croma",
		},
		WinCount:      6,
		WinDeltaMin:   1_500,
		WinDeltaMax:   150_000,
		WinTimestamps: true,
		WinAgeMinSec:  5,
		WinAgeMaxSec:  3600,
		BeforeAfter: []BeforeAfter{
			{Title: "SKU titles normalized", Before: "nike run sh 9 blu", After: "Nike Running Shoes | Blue | Size 9"},
			{Title: "Missing GTIN fixed", Before: "GTIN: —", After: "GTIN: 0012345678905"},
			{Title: "Wrong category", Before: "Men > Misc", After: "Men > Shoes > Running"},
		},
		Markets:           []string{"US", "IN", "SG", "AE", "ID", "PH", "MY", "TH", "VN", "EU"},
		TrialCount:        8,
		TrialMaxMinutes:   60,
		AnonIDFormat:      AnonIDTag,
		AnonIDPrefix:      "cmo-",
		AnonIDAlphabet:    DefaultTokenAlphabet,
		AnonIDTokenLength: 6,
		AnonIDTagMin:      1000,
		AnonIDTagMax:      9999,
	}
}

// CatalogPreset is the product-catalog demo shape: integer deltas without
// timestamps, sampled before/after pairs and random token ids.
func CatalogPreset() Catalog {
	return Catalog{
		RevenueMin:      1_500_000,
		RevenueMax:      3_200_000,
		Brands:          []string{"Flipkart", "Swiggy", "Zalora", "Nykaa", "Myntra", "Ajio", "BigBasket", "Reliance"},
		WinCount:        8,
		WinDeltaMin:     20_000,
		WinDeltaMax:     300_000,
		WinDeltaInteger: true,
		BeforeAfter: []BeforeAfter{
			{Before: "nike run sh 9 blu", After: "Nike Running Shoes | Blue | Size 9"},
			{Before: "GTIN —", After: "GTIN: 0012345678905"},
			{Before: "Men > Misc", After: "Men > Shoes > Running"},
			{Before: "SKU_991_no-img", After: "High-res image stitched"},
			{Before: "20% title duplication", After: "No duplicates, semantic titles"},
		},
		BeforeAfterSample: 4,
		Markets:           []string{"IN", "SG", "UAE", "US", "ID", "MY"},
		TrialCount:        12,
		TrialMaxMinutes:   120,
		AnonIDFormat:      AnonIDToken,
		AnonIDPrefix:      "Q",
		AnonIDAlphabet:    DefaultTokenAlphabet,
		AnonIDTokenLength: 6,
		AnonIDTagMin:      1000,
		AnonIDTagMax:      9999,
	}
}

// Preset returns the named preset catalog.
func Preset(name string) (Catalog, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetLive:
		return LivePreset(), nil
	case PresetCatalog:
		return CatalogPreset(), nil
	default:
		return Catalog{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// Clone returns a deep copy so callers cannot alias the generator's slices.
func (c Catalog) Clone() Catalog {
	out := c
	out.Brands = append([]string(nil), c.Brands...)
	out.Markets = append([]string(nil), c.Markets...)
	out.BeforeAfter = append([]BeforeAfter(nil), c.BeforeAfter...)
	return out
}

// BeforeAfterCount is the number of pairs each metrics payload carries.
func (c Catalog) BeforeAfterCount() int {
	if c.BeforeAfterSample > 0 {
		return min(c.BeforeAfterSample, len(c.BeforeAfter))
	}
	return len(c.BeforeAfter)
}

// Validate reports every inconsistency in the catalog at once.
func (c Catalog) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.RevenueMin < 0 || c.RevenueMax < c.RevenueMin {
		add("revenue range [%v, %v] is invalid", c.RevenueMin, c.RevenueMax)
	}
	if len(c.Brands) == 0 {
		add("brands must not be empty")
	}
	if c.WinCount < 1 {
		add("win count must be positive")
	}
	if c.WinDeltaMin < 0 || c.WinDeltaMax < c.WinDeltaMin {
		add("win delta range [%v, %v] is invalid", c.WinDeltaMin, c.WinDeltaMax)
	}
	if c.WinDeltaInteger && math.Ceil(c.WinDeltaMin) > math.Floor(c.WinDeltaMax) {
		add("win delta range [%v, %v] holds no integer", c.WinDeltaMin, c.WinDeltaMax)
	}
	if c.WinTimestamps && (c.WinAgeMinSec < 0 || c.WinAgeMaxSec < c.WinAgeMinSec) {
		add("win age range [%d, %d] is invalid", c.WinAgeMinSec, c.WinAgeMaxSec)
	}
	if c.BeforeAfterSample < 0 {
		add("before/after sample must not be negative")
	}
	if c.BeforeAfterSample > 0 && len(c.BeforeAfter) == 0 {
		add("before/after pool must not be empty when sampling")
	}
	if len(c.Markets) == 0 {
		add("markets must not be empty")
	}
	if c.TrialCount < 1 {
		add("trial count must be positive")
	}
	if c.TrialMaxMinutes < 1 {
		add("trial max minutes must be at least 1")
	}
	switch c.AnonIDFormat {
	case AnonIDToken:
		if c.AnonIDAlphabet == "" {
			add("anon id alphabet must not be empty")
		}
		if c.AnonIDTokenLength < 1 {
			add("anon id token length must be positive")
		}
	case AnonIDTag:
		if c.AnonIDTagMin < 0 || c.AnonIDTagMax < c.AnonIDTagMin {
			add("anon id tag range [%d, %d] is invalid", c.AnonIDTagMin, c.AnonIDTagMax)
		}
	default:
		add("unknown anon id format %q", c.AnonIDFormat)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
}

// AnonIDPattern returns the anchored expression every generated anon_id matches.
func (c Catalog) AnonIDPattern() *regexp.Regexp {
	prefix := regexp.QuoteMeta(c.AnonIDPrefix)
	if c.AnonIDFormat == AnonIDTag {
		return regexp.MustCompile("^" + prefix + `(\d+)$`)
	}
	class := strings.ReplaceAll(regexp.QuoteMeta(c.AnonIDAlphabet), "-", `\-`)
	return regexp.MustCompile("^" + prefix + "[" + class + "]{" + strconv.Itoa(c.AnonIDTokenLength) + "}$")
}
