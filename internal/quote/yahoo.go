package quote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
)

// YahooSource implements Source using the Yahoo Finance public API.
// The chart endpoint backs the fast-snapshot and historical-bars surfaces,
// the quote endpoint backs the metadata surface.
type YahooSource struct {
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	ChartURL  string
	QuoteURL  string
}

// NewYahooSource creates a new Yahoo Finance source.
func NewYahooSource(proxyURL string) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooSource{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"BRK.B": "BRK-B",
			"BRK.A": "BRK-A",
			"BF.B":  "BF-B",
		},
		ChartURL: "https://query1.finance.yahoo.com/v8/finance/chart",
		QuoteURL: "https://query1.finance.yahoo.com/v7/finance/quote",
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

// yahooSymbol translates share-class punctuation to Yahoo's convention.
func (y *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := y.SymbolMap[symbol]; ok {
		return mapped
	}
	return strings.ReplaceAll(symbol, ".", "-")
}

// yahooChart is the response structure of the Yahoo chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []interface{} `json:"open"`
					High  []interface{} `json:"high"`
					Low   []interface{} `json:"low"`
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func (y *YahooSource) fetchChart(symbol, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s",
		y.ChartURL, url.PathEscape(y.yahooSymbol(symbol)), interval, rng)

	body, err := y.get(symbol, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo chart decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart: no result for %s", symbol)
	}
	return &chart, nil
}

// get performs a GET request, distinguishing transport failures (provider
// unreachable) from HTTP-level failures (field-level, recoverable).
func (y *YahooSource) get(symbol, u string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return nil, &UnavailableError{Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// FastSnapshot reads the current-market fields Yahoo attaches to the chart
// metadata, its cheapest quote surface.
func (y *YahooSource) FastSnapshot(symbol string) (FastQuote, error) {
	chart, err := y.fetchChart(symbol, "1d", "1d")
	if err != nil {
		return FastQuote{}, err
	}
	meta := chart.Chart.Result[0].Meta
	return FastQuote{
		LastPrice: meta.RegularMarketPrice,
		YearHigh:  meta.FiftyTwoWeekHigh,
	}, nil
}

// RecentDailyBars returns up to lookback most recent daily closes, oldest
// first. Null bars (holidays etc.) are skipped.
func (y *YahooSource) RecentDailyBars(symbol string, lookback int) ([]model.Bar, error) {
	rng := "1d"
	if lookback > 1 {
		rng = "5d"
	}
	if lookback > 5 {
		rng = "1mo"
	}
	chart, err := y.fetchChart(symbol, "1d", rng)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) {
			break
		}
		c, ok := toFloat(q.Close[i])
		if !ok {
			continue
		}
		bar := model.Bar{Time: time.Unix(ts, 0), Close: c}
		if i < len(q.Open) {
			bar.Open, _ = toFloat(q.Open[i])
		}
		if i < len(q.High) {
			bar.High, _ = toFloat(q.High[i])
		}
		if i < len(q.Low) {
			bar.Low, _ = toFloat(q.Low[i])
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	return bars, nil
}

// yahooQuote is the response structure of the Yahoo quote API. The result
// objects are flat key-value maps with dozens of optional fields, which is
// exactly the shape the metadata surface promises.
type yahooQuote struct {
	QuoteResponse struct {
		Result []map[string]any `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// Metadata queries the quote endpoint and returns its raw field map.
func (y *YahooSource) Metadata(symbol string) (Metadata, error) {
	u := fmt.Sprintf("%s?symbols=%s", y.QuoteURL, url.QueryEscape(y.yahooSymbol(symbol)))

	body, err := y.get(symbol, u)
	if err != nil {
		return nil, err
	}

	var quote yahooQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("yahoo quote decode: %w", err)
	}
	if quote.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote api error: %s", quote.QuoteResponse.Error.Description)
	}
	if len(quote.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("yahoo quote: no result for %s", symbol)
	}
	return Metadata(quote.QuoteResponse.Result[0]), nil
}
