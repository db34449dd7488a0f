package quote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
)

// RESTSource implements Source against a self-hosted quote REST API. It is
// selected when a base URL is configured, as an alternative to Yahoo.
type RESTSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTSource creates a new REST source with optional proxy support.
func NewRESTSource(baseURL, apiKey, proxyURL string) *RESTSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (r *RESTSource) Name() string { return "rest" }

func (r *RESTSource) getJSON(symbol, endpoint string, out any) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return &UnavailableError{Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("rest source: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest source decode: %w", err)
	}
	return nil
}

// FastSnapshot queries the snapshot endpoint. Absent JSON fields decode to
// nil pointers, matching the partially-populated contract.
func (r *RESTSource) FastSnapshot(symbol string) (FastQuote, error) {
	endpoint := fmt.Sprintf("%s/api/v1/snapshot?symbol=%s", r.BaseURL, url.QueryEscape(symbol))
	var result struct {
		LastPrice *float64 `json:"last_price"`
		YearHigh  *float64 `json:"year_high"`
	}
	if err := r.getJSON(symbol, endpoint, &result); err != nil {
		return FastQuote{}, err
	}
	return FastQuote{LastPrice: result.LastPrice, YearHigh: result.YearHigh}, nil
}

// restBar is the expected JSON shape of a single bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// RecentDailyBars queries the daily bars endpoint, oldest first.
func (r *RESTSource) RecentDailyBars(symbol string, lookback int) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?symbol=%s&limit=%d",
		r.BaseURL, url.QueryEscape(symbol), lookback)
	var restBars []restBar
	if err := r.getJSON(symbol, endpoint, &restBars); err != nil {
		return nil, err
	}
	bars := make([]model.Bar, len(restBars))
	for i, rb := range restBars {
		bars[i] = model.Bar{
			Time:  time.Unix(rb.Timestamp, 0),
			Open:  rb.Open,
			High:  rb.High,
			Low:   rb.Low,
			Close: rb.Close,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// Metadata queries the metadata endpoint and returns its raw field map.
func (r *RESTSource) Metadata(symbol string) (Metadata, error) {
	endpoint := fmt.Sprintf("%s/api/v1/metadata?symbol=%s", r.BaseURL, url.QueryEscape(symbol))
	var meta map[string]any
	if err := r.getJSON(symbol, endpoint, &meta); err != nil {
		return nil, err
	}
	return Metadata(meta), nil
}
