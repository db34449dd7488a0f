package recorder

import "github.com/byongcheonpak/ai-stock-analyzer/internal/model"

// Recorder persists scan results for later analysis.
type Recorder interface {
	// RecordSnapshot stores one resolved ticker. ok is false for tickers
	// whose provider was unreachable.
	RecordSnapshot(snap *model.TickerSnapshot, ok bool) error
	Close() error
}
