// Package metric computes the derived drawdown figure and the classification
// labels that drive color-coding. Everything here is a pure function of
// already-resolved field values; no data access happens in this package.
package metric

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
)

// DefaultSevereDrawdownPct is the drawdown magnitude, in percent, at which a
// ticker is flagged severe.
const DefaultSevereDrawdownPct = 10.0

// Drawdown computes the percentage move of price relative to the 52-week
// high, rounded to two decimals and formatted with a trailing '%'. A price
// below the high yields a negative value, a price above a stale high yields a
// positive one. Degenerate inputs (either value absent, zero high, NaN on
// either side) yield the "N/A" sentinel.
func Drawdown(price, yearHigh *float64) string {
	if price == nil || yearHigh == nil {
		return model.NA
	}
	p, h := *price, *yearHigh
	if h == 0 || math.IsNaN(h) || math.IsNaN(p) {
		return model.NA
	}
	v := round2((p - h) / h * 100)
	if v == 0 {
		v = 0 // avoid "-0.00%" for prices a hair under the high
	}
	return fmt.Sprintf("%.2f%%", v)
}

// ClassifySeverity returns SEVERE when the drawdown is numeric and its
// absolute value is at or beyond threshold. A non-numeric drawdown never
// classifies severe.
func ClassifySeverity(drawdownPct string, threshold float64) model.Severity {
	v, ok := parsePercent(drawdownPct)
	if !ok {
		return model.SeverityNormal
	}
	if math.Abs(v) >= threshold {
		return model.SeveritySevere
	}
	return model.SeverityNormal
}

// ClassifyDirection returns DOWN only for a numeric negative daily change.
// Zero counts as UP. An unresolved value defaults to UP unless unresolvedDown
// flips the policy.
func ClassifyDirection(dailyChangePct string, unresolvedDown bool) model.Direction {
	v, ok := parsePercent(dailyChangePct)
	if !ok {
		if unresolvedDown {
			return model.DirectionDown
		}
		return model.DirectionUp
	}
	if v < 0 {
		return model.DirectionDown
	}
	return model.DirectionUp
}

// FormatChangePercent renders a raw percent value as a two-decimal string
// with a trailing '%'.
func FormatChangePercent(v float64) string {
	return fmt.Sprintf("%.2f%%", round2(v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func parsePercent(s string) (float64, bool) {
	if s == model.NA {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
