package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cod1ng-earth/splicenft/pkg/render"
)

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // accepted
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // rejected
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(14)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// printer writes styled command output.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer { return &printer{w: w} }

func (p *printer) line(s string) { fmt.Fprintln(p.w, s) }

func (p *printer) success(format string, args ...any) {
	p.line(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (p *printer) failure(format string, args ...any) {
	p.line(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (p *printer) warning(format string, args ...any) {
	p.line(styleIconWarning.Render(iconWarning) + " " + styleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) info(format string, args ...any) {
	p.line(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func (p *printer) detail(format string, args ...any) {
	p.line("  " + styleDim.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) title(s string) { p.line(styleTitle.Render(s)) }

func (p *printer) file(path string) {
	p.line("  " + styleDim.Render(iconArrow) + " " + styleValue.Render(path))
}

func (p *printer) keyValue(key, value string) {
	p.line(styleKey.Render(key) + " " + styleValue.Render(value))
}

func (p *printer) keyNumber(key string, value any) {
	p.line(styleKey.Render(key) + " " + styleNumber.Render(fmt.Sprint(value)))
}

// renderStats prints size, seed and cache status on one line.
func (p *printer) renderStats(dim render.Dimensions, seed uint32, cached bool) {
	status, st := iconFresh, styleComputed
	if cached {
		status, st = iconCached, styleCached
	}
	sep := styleDim.Render(" · ")
	p.line("  " + styleDim.Render(dim.String()) + sep + styleDim.Render(fmt.Sprintf("seed %d", seed)) + sep + st.Render(status))
}

// swatch renders a palette as colored blocks.
func swatch(pal render.Palette) string {
	if len(pal) == 0 {
		return styleDim.Render("(default)")
	}
	var b strings.Builder
	for _, c := range pal {
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render("  "))
	}
	return b.String()
}
