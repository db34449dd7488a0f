// Package render turns resolved snapshots into the textual report. The
// classification enums carry no style of their own; the mapping to colors
// lives entirely here.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/byongcheonpak/ai-stock-analyzer/internal/model"
)

const sectorRule = 60

// Renderer writes the color-coded per-ticker summary.
type Renderer struct {
	out    io.Writer
	severe *color.Color // drawdown at or past the severe threshold
	down   *color.Color // negative daily change
	up     *color.Color // zero, positive or unresolved daily change
	notice *color.Color // failure notices
}

// New creates a Renderer writing to out. With enableColor false every style
// is stripped, which is also the mode used to build notification text.
func New(out io.Writer, enableColor bool) *Renderer {
	r := &Renderer{
		out:    out,
		severe: color.New(color.FgHiMagenta),
		down:   color.New(color.FgHiRed),
		up:     color.New(color.FgHiBlue),
		notice: color.New(color.FgHiRed),
	}
	if !enableColor {
		r.severe.DisableColor()
		r.down.DisableColor()
		r.up.DisableColor()
		r.notice.DisableColor()
	}
	return r
}

// SectorHeader writes the banner opening a sector section.
func (r *Renderer) SectorHeader(name string) {
	rule := strings.Repeat("=", sectorRule)
	fmt.Fprintf(r.out, "\n%s\n%s\n%s\n\n", rule, name, rule)
}

// SectorFooter writes the blank gap closing a sector section.
func (r *Renderer) SectorFooter() {
	fmt.Fprint(r.out, "\n\n")
}

// Separator writes the divider between tickers within a sector.
func (r *Renderer) Separator() {
	fmt.Fprint(r.out, "\n---\n")
}

// Ticker writes one snapshot block.
func (r *Renderer) Ticker(snap *model.TickerSnapshot) {
	drawdown := snap.DrawdownPct
	if snap.DrawdownSeverity == model.SeveritySevere {
		drawdown = r.severe.Sprint(drawdown)
	}
	change := r.up.Sprint(snap.DailyChangePct)
	if snap.ChangeDirection == model.DirectionDown {
		change = r.down.Sprint(snap.DailyChangePct)
	}

	fmt.Fprintf(r.out, "=== %s(%s) ===\n", snap.Symbol, snap.Name)
	fmt.Fprintf(r.out, "Price        : %s\n", formatPrice(snap.Price))
	fmt.Fprintf(r.out, "52-Week High : %s\n", formatPrice(snap.YearHigh))
	fmt.Fprintf(r.out, "Drawdown     : %s\n", drawdown)
	fmt.Fprintf(r.out, "Daily Change : %s\n", change)
}

// Failure writes the failed entry for a ticker whose provider was
// unreachable: the all-sentinel block plus an explicit notice.
func (r *Renderer) Failure(snap *model.TickerSnapshot, err error) {
	r.Ticker(snap)
	fmt.Fprintf(r.out, "%s\n", r.notice.Sprintf("!! data collection failed: %v", err))
}

func formatPrice(v *float64) string {
	if v == nil {
		return model.NA
	}
	return fmt.Sprintf("$%.2f", *v)
}
