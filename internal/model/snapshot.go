package model

// NA is the canonical absent-value marker used in rendered output.
const NA = "N/A"

// Severity classifies the magnitude of a drawdown from the 52-week high.
type Severity string

const (
	SeverityNormal Severity = "NORMAL"
	SeveritySevere Severity = "SEVERE"
)

// Direction classifies the daily change.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// TickerSnapshot is the resolved market view of a single ticker for one poll.
// It is constructed in one pass and never mutated afterwards.
type TickerSnapshot struct {
	Symbol           string
	Name             string   // resolved display name or "N/A"
	Price            *float64 // current trade price, nil when unresolved
	YearHigh         *float64 // 52-week high, nil when unresolved
	DrawdownPct      string   // "-X.XX%" or "N/A"
	DailyChangePct   string   // "X.XX%" or "N/A"
	DrawdownSeverity Severity
	ChangeDirection  Direction
}

// FailedSnapshot returns the all-sentinel snapshot used for a ticker whose
// provider could not be reached at all.
func FailedSnapshot(symbol string) *TickerSnapshot {
	return &TickerSnapshot{
		Symbol:           symbol,
		Name:             NA,
		DrawdownPct:      NA,
		DailyChangePct:   NA,
		DrawdownSeverity: SeverityNormal,
		ChangeDirection:  DirectionUp,
	}
}
