package games

import (
	"fmt"
	"strings"
	"time"

	"github.com/gamedex/gamedex/pkg/errors"
)

// Currency is the ISO code used for price bounds.
type Currency string

// Supported currencies.
const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyAUD Currency = "AUD"
)

// EpochDate is the default lower bound for release-date ranges.
var EpochDate = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Filter is a validated, structured search filter. Build one with
// NewFilter or call Normalize followed by Validate on a literal.
// Genre/platform/tag membership is order-irrelevant; the date range is
// always populated (epoch and today when unspecified) so downstream
// range checks never deal with zero values.
type Filter struct {
	Query    string   `json:"query,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Currency Currency `json:"currency,omitempty"`

	Genres    []string `json:"genres,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	ReleaseFrom time.Time `json:"release_date_from,omitempty"`
	ReleaseTo   time.Time `json:"release_date_to,omitempty"`
}

// NewFilter normalizes and validates a filter, returning a copy ready for use.
func NewFilter(f Filter) (Filter, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Normalize trims, lowercases, and deduplicates the term lists, defaults
// the currency to USD, and fills the release-date range with epoch/today
// when unset.
func (f *Filter) Normalize() {
	f.Query = strings.TrimSpace(f.Query)
	f.Genres = normalizeTerms(f.Genres)
	f.Platforms = normalizeTerms(f.Platforms)
	f.Tags = normalizeTerms(f.Tags)

	if f.Currency == "" {
		f.Currency = CurrencyUSD
	}
	if f.ReleaseFrom.IsZero() {
		f.ReleaseFrom = EpochDate
	}
	if f.ReleaseTo.IsZero() {
		now := time.Now().UTC()
		f.ReleaseTo = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Validate checks the filter's invariants.
func (f *Filter) Validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return errors.NewValidationError("min_price", *f.MinPrice, "must be non-negative")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return errors.NewValidationError("max_price", *f.MaxPrice, "must be non-negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MaxPrice < *f.MinPrice {
		return errors.NewValidationError("max_price", *f.MaxPrice,
			fmt.Sprintf("must be >= min_price (%g)", *f.MinPrice))
	}
	switch f.Currency {
	case CurrencyUSD, CurrencyEUR, CurrencyAUD:
	default:
		return errors.NewValidationError("currency", f.Currency, "unsupported currency")
	}
	if !f.ReleaseFrom.IsZero() && !f.ReleaseTo.IsZero() && f.ReleaseTo.Before(f.ReleaseFrom) {
		return errors.NewValidationError("release_date_to", f.ReleaseTo, "must not precede release_date_from")
	}
	return nil
}

// PriceBounds returns the effective price range, substituting 0 and +inf
// style defaults for unset bounds.
func (f *Filter) PriceBounds() (min, max float64) {
	min = 0
	max = -1 // negative max means unbounded
	if f.MinPrice != nil {
		min = *f.MinPrice
	}
	if f.MaxPrice != nil {
		max = *f.MaxPrice
	}
	return min, max
}

// normalizeTerms trims, lowercases, and deduplicates while preserving
// first-seen order.
func normalizeTerms(terms []string) []string {
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
