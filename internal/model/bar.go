package model

import "time"

// Bar represents a single daily candlestick bar.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}
