package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sector groups an ordered list of tickers under a display name.
type Sector struct {
	Name    string   `yaml:"name"`
	Tickers []string `yaml:"tickers"`
}

// Config holds all application configuration.
type Config struct {
	Portfolio struct {
		Sectors []Sector `yaml:"sectors"`
	} `yaml:"portfolio"`
	Scan struct {
		DelayMs   int    `yaml:"delay_ms"`   // pacing between tickers
		WatchCron string `yaml:"watch_cron"` // empty means run once
	} `yaml:"scan"`
	Display struct {
		NoColor              bool    `yaml:"no_color"`
		SevereDrawdownPct    float64 `yaml:"severe_drawdown_pct"`
		UnresolvedChangeDown bool    `yaml:"unresolved_change_down"`
	} `yaml:"display"`
	DataSource struct {
		BaseURL string `yaml:"base_url"` // empty means Yahoo Finance
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables recording
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and fills defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("QUOTE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("QUOTE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Scan.WatchCron = v
	}
	if v := os.Getenv("SCAN_DELAY_MS"); v != "" {
		var ms int
		if _, err := fmt.Sscanf(v, "%d", &ms); err == nil {
			cfg.Scan.DelayMs = ms
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.Display.NoColor = true
	}

	// Defaults
	if cfg.Scan.DelayMs == 0 {
		cfg.Scan.DelayMs = 500
	}
	if cfg.Display.SevereDrawdownPct == 0 {
		cfg.Display.SevereDrawdownPct = 10
	}
	if len(cfg.Portfolio.Sectors) == 0 {
		cfg.Portfolio.Sectors = DefaultSectors()
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Scan.DelayMs < 0 {
		return fmt.Errorf("scan.delay_ms must be non-negative")
	}
	if c.Display.SevereDrawdownPct <= 0 {
		return fmt.Errorf("display.severe_drawdown_pct must be positive")
	}
	if len(c.Portfolio.Sectors) == 0 {
		return fmt.Errorf("portfolio.sectors must not be empty")
	}
	for _, sec := range c.Portfolio.Sectors {
		if sec.Name == "" {
			return fmt.Errorf("sector with empty name")
		}
		if len(sec.Tickers) == 0 {
			return fmt.Errorf("sector %q has no tickers", sec.Name)
		}
		for _, t := range sec.Tickers {
			if t == "" {
				return fmt.Errorf("sector %q has an empty ticker", sec.Name)
			}
		}
	}
	return nil
}

// DefaultSectors is the built-in portfolio universe, scanned in order.
func DefaultSectors() []Sector {
	return []Sector{
		{Name: "Technology", Tickers: []string{"AAPL", "MSFT", "GOOGL", "META", "NVDA", "ORCL", "AVGO", "AMD", "PLTR"}},
		{Name: "Consumer & E-commerce", Tickers: []string{"AMZN", "TSLA", "WMT", "WM"}},
		{Name: "Financial", Tickers: []string{"V", "BRK-B"}},
		{Name: "Industrial & Infrastructure", Tickers: []string{"PAVE", "GEV"}},
		{Name: "Aerospace & Defense", Tickers: []string{"RKLB"}},
		{Name: "Cryptocurrency", Tickers: []string{"BITQ", "HOOD"}},
		{Name: "ETF", Tickers: []string{"QQQM", "IGV", "XSW", "XLF", "SCHD", "DGRW", "XLV", "MGK", "SPYV"}},
	}
}
