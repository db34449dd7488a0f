package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		price    *float64
		yearHigh *float64
		want     string
	}{
		{"decline below high", fptr(150), fptr(200), "-25.00%"},
		{"above stale high", fptr(220), fptr(200), "10.00%"},
		{"at the high", fptr(200), fptr(200), "0.00%"},
		{"hair under the high avoids negative zero", fptr(199.999), fptr(200), "0.00%"},
		{"rounding to two decimals", fptr(87.65), fptr(100), "-12.35%"},
		{"price absent", nil, fptr(200), model.NA},
		{"year high absent", fptr(150), nil, model.NA},
		{"both absent", nil, nil, model.NA},
		{"zero year high", fptr(150), fptr(0), model.NA},
		{"NaN year high", fptr(150), fptr(math.NaN()), model.NA},
		{"NaN price", fptr(math.NaN()), fptr(200), model.NA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Drawdown(tt.price, tt.yearHigh))
		})
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		drawdown string
		want     model.Severity
	}{
		{"-10.00%", model.SeveritySevere},
		{"-9.99%", model.SeverityNormal},
		{"-25.00%", model.SeveritySevere},
		{"10.00%", model.SeveritySevere}, // magnitude counts, not sign
		{"0.00%", model.SeverityNormal},
		{model.NA, model.SeverityNormal},
	}
	for _, tt := range tests {
		t.Run(tt.drawdown, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySeverity(tt.drawdown, DefaultSevereDrawdownPct))
		})
	}
}

func TestClassifySeverity_CustomThreshold(t *testing.T) {
	assert.Equal(t, model.SeveritySevere, ClassifySeverity("-5.00%", 5))
	assert.Equal(t, model.SeverityNormal, ClassifySeverity("-5.00%", 5.01))
}

func TestClassifyDirection(t *testing.T) {
	tests := []struct {
		change string
		want   model.Direction
	}{
		{"0.00%", model.DirectionUp},
		{"-0.01%", model.DirectionDown},
		{"1.25%", model.DirectionUp},
		{"-7.80%", model.DirectionDown},
		{model.NA, model.DirectionUp}, // unresolved is not a decline
	}
	for _, tt := range tests {
		t.Run(tt.change, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDirection(tt.change, false))
		})
	}
}

func TestClassifyDirection_UnresolvedPolicyFlipped(t *testing.T) {
	assert.Equal(t, model.DirectionDown, ClassifyDirection(model.NA, true))
	// The flipped policy only affects unresolved values.
	assert.Equal(t, model.DirectionUp, ClassifyDirection("0.00%", true))
}

func TestFormatChangePercent(t *testing.T) {
	assert.Equal(t, "1.25%", FormatChangePercent(1.25))
	assert.Equal(t, "0.50%", FormatChangePercent(0.5))
	assert.Equal(t, "-3.33%", FormatChangePercent(-3.3333))
	assert.Equal(t, "0.00%", FormatChangePercent(0))
}
