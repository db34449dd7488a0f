// Package scanner drives the sequential portfolio scan: resolve each ticker,
// render it, record it, and pace requests to respect provider rate limits.
package scanner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/config"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/notifier"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/quote"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/recorder"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/render"
)

// TickerResolver resolves one ticker into a snapshot.
type TickerResolver interface {
	Resolve(symbol string) (*model.TickerSnapshot, error)
}

// Scanner walks the sector/ticker universe in order, one ticker fully
// resolved and rendered before the next begins.
type Scanner struct {
	Resolver TickerResolver
	Sectors  []config.Sector
	Delay    time.Duration // pacing between tickers
	Out      io.Writer
	Color    bool
	Recorder recorder.Recorder
	Notifier *notifier.TelegramNotifier // optional

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Run executes one full scan. A ticker whose provider is unreachable is
// reported as a failed entry and the scan continues; Run itself fails only on
// context cancellation.
func (s *Scanner) Run(ctx context.Context) error {
	renderers := []*render.Renderer{render.New(s.Out, s.Color)}

	var report *strings.Builder
	if s.Notifier != nil && s.Notifier.Enabled() {
		report = &strings.Builder{}
		renderers = append(renderers, render.New(report, false))
	}

	total := 0
	for _, sec := range s.Sectors {
		total += len(sec.Tickers)
	}

	log.Info().Int("tickers", total).Msg("scan started")
	start := time.Now()

	scanned := 0
	for _, sec := range s.Sectors {
		for _, r := range renderers {
			r.SectorHeader(sec.Name)
		}
		for i, symbol := range sec.Tickers {
			if err := ctx.Err(); err != nil {
				return err
			}

			s.scanTicker(symbol, renderers)

			// Separator between tickers within a sector, not after the last.
			if i < len(sec.Tickers)-1 {
				for _, r := range renderers {
					r.Separator()
				}
			}

			// Pace requests, skipping the delay after the overall last ticker.
			scanned++
			if scanned < total && s.Delay > 0 {
				if err := s.wait(ctx); err != nil {
					return err
				}
			}
		}
		for _, r := range renderers {
			r.SectorFooter()
		}
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("scan finished")

	if report != nil {
		if err := s.Notifier.SendWithRetry(ctx, report.String(), 3); err != nil {
			log.Error().Err(err).Msg("send scan report")
		}
	}
	return nil
}

// scanTicker resolves and renders one symbol. Provider unreachability
// degrades to a failed entry; it never aborts the scan.
func (s *Scanner) scanTicker(symbol string, renderers []*render.Renderer) {
	snap, err := s.Resolver.Resolve(symbol)
	if err != nil {
		if !quote.IsUnavailable(err) {
			// The resolver contract only lets unavailability escape;
			// anything else is still treated as a failed ticker.
			log.Error().Str("symbol", symbol).Err(err).Msg("unexpected resolve error")
		}
		snap = model.FailedSnapshot(symbol)
		for _, r := range renderers {
			r.Failure(snap, err)
		}
		s.record(snap, false)
		return
	}
	for _, r := range renderers {
		r.Ticker(snap)
	}
	s.record(snap, true)
}

func (s *Scanner) record(snap *model.TickerSnapshot, ok bool) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.RecordSnapshot(snap, ok); err != nil {
		log.Error().Str("symbol", snap.Symbol).Err(err).Msg("record snapshot")
	}
}

func (s *Scanner) wait(ctx context.Context) error {
	if s.sleep != nil {
		return s.sleep(ctx, s.Delay)
	}
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Watch runs a scan on the given cron schedule until the context is
// canceled. The expression uses six fields (with seconds).
func (s *Scanner) Watch(ctx context.Context, cronExpr string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cronExpr, func() {
		if err := s.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled scan")
		}
	}); err != nil {
		return fmt.Errorf("register scan schedule: %w", err)
	}
	c.Start()
	log.Info().Str("cron", cronExpr).Msg("watch mode started")
	<-ctx.Done()
	c.Stop()
	log.Info().Msg("watch mode stopped")
	return ctx.Err()
}
