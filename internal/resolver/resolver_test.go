package resolver

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
	"github.com/byongcheonpak/ai-stock-analyzer/internal/quote"
)

func fptr(v float64) *float64 { return &v }

// fakeSource returns controllable fixed data per surface and counts calls.
type fakeSource struct {
	fast func() (quote.FastQuote, error)
	bars func(lookback int) ([]model.Bar, error)
	meta func() (quote.Metadata, error)

	fastCalls int
	barsCalls int
	metaCalls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FastSnapshot(string) (quote.FastQuote, error) {
	f.fastCalls++
	if f.fast == nil {
		return quote.FastQuote{}, nil
	}
	return f.fast()
}

func (f *fakeSource) RecentDailyBars(_ string, lookback int) ([]model.Bar, error) {
	f.barsCalls++
	if f.bars == nil {
		return nil, nil
	}
	return f.bars(lookback)
}

func (f *fakeSource) Metadata(string) (quote.Metadata, error) {
	f.metaCalls++
	if f.meta == nil {
		return quote.Metadata{}, nil
	}
	return f.meta()
}

func TestResolve_AllSurfacesPopulated(t *testing.T) {
	src := &fakeSource{
		fast: func() (quote.FastQuote, error) {
			return quote.FastQuote{LastPrice: fptr(150), YearHigh: fptr(200)}, nil
		},
		meta: func() (quote.Metadata, error) {
			return quote.Metadata{
				"shortName":                  "Apple Inc.",
				"regularMarketChangePercent": 1.25,
			}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", snap.Symbol)
	assert.Equal(t, "Apple Inc.", snap.Name)
	require.NotNil(t, snap.Price)
	assert.Equal(t, 150.0, *snap.Price)
	require.NotNil(t, snap.YearHigh)
	assert.Equal(t, 200.0, *snap.YearHigh)
	assert.Equal(t, "-25.00%", snap.DrawdownPct)
	assert.Equal(t, model.SeveritySevere, snap.DrawdownSeverity)
	assert.Equal(t, "1.25%", snap.DailyChangePct)
	assert.Equal(t, model.DirectionUp, snap.ChangeDirection)
}

func TestResolve_FastSupplied_LowerPrioritySourcesNotConsultedForPrice(t *testing.T) {
	src := &fakeSource{
		fast: func() (quote.FastQuote, error) {
			return quote.FastQuote{LastPrice: fptr(99.5), YearHigh: fptr(120)}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("MSFT")
	require.NoError(t, err)

	require.NotNil(t, snap.Price)
	assert.Equal(t, 99.5, *snap.Price)
	assert.Equal(t, 0, src.barsCalls, "historical bars must not be consulted")
	assert.LessOrEqual(t, src.fastCalls, 1, "fast snapshot is fetched at most once")
}

func TestResolve_PriceFallsBackToBarClose(t *testing.T) {
	src := &fakeSource{
		fast: func() (quote.FastQuote, error) {
			return quote.FastQuote{}, errors.New("fast surface down")
		},
		bars: func(lookback int) ([]model.Bar, error) {
			assert.Equal(t, 1, lookback)
			return []model.Bar{{Time: time.Now(), Close: 142.50}}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("GOOGL")
	require.NoError(t, err)

	require.NotNil(t, snap.Price)
	assert.Equal(t, 142.50, *snap.Price)
}

func TestResolve_EmptyBarsFallThroughToMetadata(t *testing.T) {
	src := &fakeSource{
		bars: func(int) ([]model.Bar, error) { return nil, nil },
		meta: func() (quote.Metadata, error) {
			return quote.Metadata{"currentPrice": 88.25}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("PLTR")
	require.NoError(t, err)

	require.NotNil(t, snap.Price)
	assert.Equal(t, 88.25, *snap.Price)
}

func TestResolve_RegularMarketPriceIsLastPriceAttempt(t *testing.T) {
	src := &fakeSource{
		meta: func() (quote.Metadata, error) {
			return quote.Metadata{"regularMarketPrice": 61.0}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("BITQ")
	require.NoError(t, err)

	require.NotNil(t, snap.Price)
	assert.Equal(t, 61.0, *snap.Price)
}

func TestResolve_YearHighFallsBackToMetadata(t *testing.T) {
	src := &fakeSource{
		fast: func() (quote.FastQuote, error) {
			return quote.FastQuote{LastPrice: fptr(50)}, nil
		},
		meta: func() (quote.Metadata, error) {
			return quote.Metadata{"fiftyTwoWeekHigh": 80.0}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("HOOD")
	require.NoError(t, err)

	require.NotNil(t, snap.YearHigh)
	assert.Equal(t, 80.0, *snap.YearHigh)
	assert.Equal(t, "-37.50%", snap.DrawdownPct)
}

func TestResolve_AllPriceSourcesFail_OtherFieldsStillResolve(t *testing.T) {
	src := &fakeSource{
		fast: func() (quote.FastQuote, error) {
			return quote.FastQuote{}, errors.New("fast surface down")
		},
		bars: func(int) ([]model.Bar, error) {
			return nil, errors.New("bars surface down")
		},
		meta: func() (quote.Metadata, error) {
			return quote.Metadata{
				"shortName":        "Rocket Lab",
				"fiftyTwoWeekHigh": 30.0,
			}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("RKLB")
	require.NoError(t, err)

	assert.Nil(t, snap.Price)
	assert.Equal(t, "Rocket Lab", snap.Name)
	require.NotNil(t, snap.YearHigh)
	assert.Equal(t, model.NA, snap.DrawdownPct)
	assert.Equal(t, model.SeverityNormal, snap.DrawdownSeverity)
}

func TestResolve_MalformedFastPriceFallsThrough(t *testing.T) {
	src := &fakeSource{
		fast: func() (quote.FastQuote, error) {
			return quote.FastQuote{LastPrice: fptr(math.NaN())}, nil
		},
		bars: func(int) ([]model.Bar, error) {
			return []model.Bar{{Close: 10.5}}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("WM")
	require.NoError(t, err)

	require.NotNil(t, snap.Price)
	assert.Equal(t, 10.5, *snap.Price)
}

func TestResolve_NaNChangePercentDegradesToSentinel(t *testing.T) {
	src := &fakeSource{
		meta: func() (quote.Metadata, error) {
			return quote.Metadata{"regularMarketChangePercent": math.NaN()}, nil
		},
	}
	snap, err := New(src, Config{}).Resolve("XLF")
	require.NoError(t, err)

	assert.Equal(t, model.NA, snap.DailyChangePct)
	assert.Equal(t, model.DirectionUp, snap.ChangeDirection)
}

func TestResolve_UnresolvedChangeDownPolicy(t *testing.T) {
	src := &fakeSource{}
	snap, err := New(src, Config{UnresolvedChangeDown: true}).Resolve("XSW")
	require.NoError(t, err)

	assert.Equal(t, model.NA, snap.DailyChangePct)
	assert.Equal(t, model.DirectionDown, snap.ChangeDirection)
}

func TestResolve_CustomSevereThreshold(t *testing.T) {
	src := &fakeSource{
		fast: func() (quote.FastQuote, error) {
			return quote.FastQuote{LastPrice: fptr(95), YearHigh: fptr(100)}, nil
		},
	}
	snap, err := New(src, Config{SevereDrawdownPct: 5}).Resolve("SCHD")
	require.NoError(t, err)

	assert.Equal(t, "-5.00%", snap.DrawdownPct)
	assert.Equal(t, model.SeveritySevere, snap.DrawdownSeverity)
}

func TestResolve_ProviderUnavailablePropagates(t *testing.T) {
	src := &fakeSource{
		meta: func() (quote.Metadata, error) {
			return nil, &quote.UnavailableError{Symbol: "BRK-B", Err: errors.New("connection refused")}
		},
	}
	snap, err := New(src, Config{}).Resolve("BRK-B")

	assert.Nil(t, snap)
	require.Error(t, err)
	assert.True(t, quote.IsUnavailable(err))
	var ue *quote.UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "BRK-B", ue.Symbol)
}

func TestResolve_UnavailableFromFastSurfacePropagates(t *testing.T) {
	src := &fakeSource{
		fast: func() (quote.FastQuote, error) {
			return quote.FastQuote{}, &quote.UnavailableError{Symbol: "V", Err: errors.New("dial timeout")}
		},
	}
	snap, err := New(src, Config{}).Resolve("V")

	assert.Nil(t, snap)
	assert.True(t, quote.IsUnavailable(err))
}

func TestResolve_Idempotent(t *testing.T) {
	newSrc := func() *fakeSource {
		return &fakeSource{
			fast: func() (quote.FastQuote, error) {
				return quote.FastQuote{LastPrice: fptr(150), YearHigh: fptr(200)}, nil
			},
			meta: func() (quote.Metadata, error) {
				return quote.Metadata{"shortName": "Apple Inc.", "regularMarketChangePercent": -0.42}, nil
			},
		}
	}
	r1 := New(newSrc(), Config{})
	first, err := r1.Resolve("AAPL")
	require.NoError(t, err)
	second, err := r1.Resolve("AAPL")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolve_MetadataFetchedAtMostOnce(t *testing.T) {
	src := &fakeSource{
		meta: func() (quote.Metadata, error) {
			return quote.Metadata{
				"shortName":                  "Visa Inc.",
				"currentPrice":               250.0,
				"fiftyTwoWeekHigh":           290.0,
				"regularMarketChangePercent": -0.30,
			}, nil
		},
	}
	_, err := New(src, Config{}).Resolve("V")
	require.NoError(t, err)

	assert.Equal(t, 1, src.metaCalls)
}
