// Package resolver produces best-effort TickerSnapshots by trying each field
// through an ordered fallback chain over the provider's three surfaces. The
// surfaces are independently unreliable; a failed attempt falls through to
// the next one and never affects another field's chain.
package resolver

import (
	"errors"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/metric"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/quote"
)

var errNoValue = errors.New("no value")

// Config holds resolution policy knobs.
type Config struct {
	// SevereDrawdownPct is the drawdown magnitude classified SEVERE.
	// Zero means metric.DefaultSevereDrawdownPct.
	SevereDrawdownPct float64
	// UnresolvedChangeDown classifies an unresolved daily change as DOWN
	// instead of the default UP.
	UnresolvedChangeDown bool
}

// Resolver resolves ticker snapshots against a quote source.
type Resolver struct {
	source          quote.Source
	severeThreshold float64
	unresolvedDown  bool
}

// New creates a Resolver.
func New(source quote.Source, cfg Config) *Resolver {
	threshold := cfg.SevereDrawdownPct
	if threshold == 0 {
		threshold = metric.DefaultSevereDrawdownPct
	}
	return &Resolver{
		source:          source,
		severeThreshold: threshold,
		unresolvedDown:  cfg.UnresolvedChangeDown,
	}
}

// attempt is a single extraction try in a field's fallback chain.
type attempt struct {
	name string
	fn   func() (float64, error)
}

// surfaces fetches each provider surface lazily and at most once per
// resolution, so a chain that short-circuits early never touches
// lower-priority surfaces.
type surfaces struct {
	source quote.Source
	symbol string

	fastDone bool
	fast     quote.FastQuote
	fastErr  error

	metaDone bool
	meta     quote.Metadata
	metaErr  error
}

func (s *surfaces) fastSnapshot() (quote.FastQuote, error) {
	if !s.fastDone {
		s.fastDone = true
		s.fast, s.fastErr = s.source.FastSnapshot(s.symbol)
	}
	return s.fast, s.fastErr
}

func (s *surfaces) metadata() (quote.Metadata, error) {
	if !s.metaDone {
		s.metaDone = true
		s.meta, s.metaErr = s.source.Metadata(s.symbol)
	}
	return s.meta, s.metaErr
}

func (s *surfaces) metaFloat(key string) (float64, error) {
	meta, err := s.metadata()
	if err != nil {
		return 0, err
	}
	v, ok := meta.Float(key)
	if !ok {
		return 0, errNoValue
	}
	return v, nil
}

// Resolve builds a fresh TickerSnapshot for symbol. Field-level failures are
// swallowed and degrade to sentinels; the only error returned is
// quote.UnavailableError when the provider cannot be reached at all.
func (r *Resolver) Resolve(symbol string) (*model.TickerSnapshot, error) {
	s := &surfaces{source: r.source, symbol: symbol}

	name, err := r.resolveName(s)
	if err != nil {
		return nil, err
	}

	price, err := r.firstValue(symbol, "price", []attempt{
		{"fast.lastPrice", func() (float64, error) {
			q, err := s.fastSnapshot()
			if err != nil {
				return 0, err
			}
			if q.LastPrice == nil {
				return 0, errNoValue
			}
			return *q.LastPrice, nil
		}},
		{"bars.close", func() (float64, error) {
			bars, err := s.source.RecentDailyBars(symbol, 1)
			if err != nil {
				return 0, err
			}
			if len(bars) == 0 {
				return 0, errNoValue
			}
			return bars[len(bars)-1].Close, nil
		}},
		{"meta.currentPrice", func() (float64, error) {
			return s.metaFloat(quote.KeyCurrentPrice)
		}},
		{"meta.regularMarketPrice", func() (float64, error) {
			return s.metaFloat(quote.KeyRegularMarketPrice)
		}},
	})
	if err != nil {
		return nil, err
	}

	yearHigh, err := r.firstValue(symbol, "yearHigh", []attempt{
		{"fast.yearHigh", func() (float64, error) {
			q, err := s.fastSnapshot()
			if err != nil {
				return 0, err
			}
			if q.YearHigh == nil {
				return 0, errNoValue
			}
			return *q.YearHigh, nil
		}},
		{"meta.fiftyTwoWeekHigh", func() (float64, error) {
			return s.metaFloat(quote.KeyFiftyTwoWeekHigh)
		}},
	})
	if err != nil {
		return nil, err
	}

	dailyChange, err := r.firstValue(symbol, "dailyChangePct", []attempt{
		{"meta.regularMarketChangePercent", func() (float64, error) {
			return s.metaFloat(quote.KeyRegularMarketChangePercent)
		}},
	})
	if err != nil {
		return nil, err
	}

	snap := &model.TickerSnapshot{
		Symbol:         symbol,
		Name:           name,
		Price:          price,
		YearHigh:       yearHigh,
		DailyChangePct: model.NA,
	}
	if dailyChange != nil {
		snap.DailyChangePct = metric.FormatChangePercent(*dailyChange)
	}
	snap.DrawdownPct = metric.Drawdown(snap.Price, snap.YearHigh)
	snap.DrawdownSeverity = metric.ClassifySeverity(snap.DrawdownPct, r.severeThreshold)
	snap.ChangeDirection = metric.ClassifyDirection(snap.DailyChangePct, r.unresolvedDown)
	return snap, nil
}

// resolveName tries the metadata short name, degrading to the sentinel.
func (r *Resolver) resolveName(s *surfaces) (string, error) {
	meta, err := s.metadata()
	if err != nil {
		if quote.IsUnavailable(err) {
			return "", err
		}
		log.Debug().Str("symbol", s.symbol).Str("field", "name").Err(err).
			Msg("metadata attempt failed")
		return model.NA, nil
	}
	if name, ok := meta.String(quote.KeyShortName); ok {
		return name, nil
	}
	return model.NA, nil
}

// firstValue runs attempts in order and returns the first finite value. All
// attempts failing yields nil without error; only provider unreachability
// propagates.
func (r *Resolver) firstValue(symbol, field string, attempts []attempt) (*float64, error) {
	for _, a := range attempts {
		v, err := a.fn()
		if err != nil {
			if quote.IsUnavailable(err) {
				return nil, err
			}
			log.Debug().Str("symbol", symbol).Str("field", field).
				Str("attempt", a.name).Err(err).Msg("field attempt failed")
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			log.Debug().Str("symbol", symbol).Str("field", field).
				Str("attempt", a.name).Msg("malformed value, falling through")
			continue
		}
		return &v, nil
	}
	return nil, nil
}
