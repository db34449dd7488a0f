// Package quote exposes the three query surfaces of the external quote
// provider. Each surface may be partially populated, empty, or fail
// independently; callers are expected to treat any single failure as
// recoverable unless it is an UnavailableError.
package quote

import (
	"errors"
	"fmt"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
)

// FastQuote is the result of the lightweight, possibly-cached quote surface.
// Either field may be nil when the provider did not populate it.
type FastQuote struct {
	LastPrice *float64
	YearHigh  *float64
}

// Metadata is the broad key-value descriptive surface. Any key may be absent
// and population varies wildly between equities, ETFs and share-class
// tickers.
type Metadata map[string]any

// Well-known metadata keys.
const (
	KeyShortName                  = "shortName"
	KeyCurrentPrice               = "currentPrice"
	KeyRegularMarketPrice         = "regularMarketPrice"
	KeyFiftyTwoWeekHigh           = "fiftyTwoWeekHigh"
	KeyRegularMarketChangePercent = "regularMarketChangePercent"
)

// String returns the non-empty string value stored under key.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Float returns the numeric value stored under key.
func (m Metadata) Float(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Source defines the provider surfaces the resolver consumes.
type Source interface {
	// FastSnapshot queries the lightweight quote surface.
	FastSnapshot(symbol string) (FastQuote, error)
	// RecentDailyBars queries up to lookback most recent daily bars,
	// oldest first. An empty slice is a valid response.
	RecentDailyBars(symbol string, lookback int) ([]model.Bar, error)
	// Metadata queries the key-value descriptive surface.
	Metadata(symbol string) (Metadata, error)
	Name() string
}

// UnavailableError reports that the provider could not be reached at all for
// a symbol, as opposed to a field merely being missing. It is the only error
// the resolver propagates to its caller.
type UnavailableError struct {
	Symbol string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("quote provider unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err marks total provider unreachability.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
