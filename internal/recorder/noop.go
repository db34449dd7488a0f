package recorder

import "github.com/byongcheonpak/ai-stock-analyzer/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ *model.TickerSnapshot, _ bool) error { return nil }
func (n *NoopRecorder) Close() error                                         { return nil }
