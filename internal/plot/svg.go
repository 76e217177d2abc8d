package plot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Canvas geometry. The data area is the canvas minus the margins.
const (
	svgWidth     = 640.0
	svgHeight    = 640.0
	marginLeft   = 72.0
	marginRight  = 24.0
	marginTop    = 48.0
	marginBottom = 64.0

	plotWidth  = svgWidth - marginLeft - marginRight
	plotHeight = svgHeight - marginTop - marginBottom

	targetTicks = 5
)

// palette cycles through sample curves that carry no explicit color.
var palette = [...]string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

type scale struct {
	xMin, xMax float64
	yMin, yMax float64
}

func (s scale) x(v float64) float64 {
	return marginLeft + (v-s.xMin)/(s.xMax-s.xMin)*plotWidth
}

func (s scale) y(v float64) float64 {
	return marginTop + (1-(v-s.yMin)/(s.yMax-s.yMin))*plotHeight
}

type legendEntry struct {
	label  string
	color  string
	dashed bool
	band   bool
}

func renderSVG(fig Figure) ([]byte, error) {
	sc, ok := dataScale(fig)
	if !ok {
		return nil, ErrEmptyFigure
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" font-family="Helvetica, Arial, sans-serif" font-size="12">`+"\n",
		svgWidth, svgHeight, svgWidth, svgHeight)
	fmt.Fprintf(&b, `<rect width="%g" height="%g" fill="white"/>`+"\n", svgWidth, svgHeight)

	drawGrid(&b, sc)
	if fig.Band != nil && len(fig.Band.X) > 1 {
		drawBand(&b, sc, fig.Band)
	}
	drawSeries(&b, sc, fig.Series)
	drawAxes(&b, sc, fig)
	drawLegend(&b, collectLegend(fig))

	b.WriteString("</svg>\n")
	return []byte(b.String()), nil
}

// dataScale computes the drawable data range with a 5% pad on each side.
func dataScale(fig Figure) (scale, bool) {
	xMin, xMax := math.Inf(1), math.Inf(-1)
	yMin, yMax := math.Inf(1), math.Inf(-1)
	grow := func(x, y float64) {
		if math.IsNaN(x) || math.IsNaN(y) {
			return
		}
		xMin = math.Min(xMin, x)
		xMax = math.Max(xMax, x)
		yMin = math.Min(yMin, y)
		yMax = math.Max(yMax, y)
	}

	if fig.Band != nil {
		for i, x := range fig.Band.X {
			grow(x, fig.Band.Lower[i])
			grow(x, fig.Band.Upper[i])
		}
	}
	for _, s := range fig.Series {
		for i, x := range s.X {
			grow(x, s.Y[i])
		}
	}
	if math.IsInf(xMin, 1) {
		return scale{}, false
	}

	if xMin == xMax {
		xMin, xMax = xMin-1, xMax+1
	}
	if yMin == yMax {
		yMin, yMax = yMin-1, yMax+1
	}
	padX := (xMax - xMin) * 0.05
	padY := (yMax - yMin) * 0.05
	return scale{xMin: xMin - padX, xMax: xMax + padX, yMin: yMin - padY, yMax: yMax + padY}, true
}

func drawGrid(b *strings.Builder, sc scale) {
	b.WriteString(`<g stroke="silver" stroke-width="1" stroke-dasharray="1,3" opacity="0.5">` + "\n")
	for _, tx := range ticks(sc.xMin, sc.xMax) {
		px := sc.x(tx)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n",
			px, marginTop, px, marginTop+plotHeight)
	}
	for _, ty := range ticks(sc.yMin, sc.yMax) {
		py := sc.y(ty)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n",
			marginLeft, py, marginLeft+plotWidth, py)
	}
	b.WriteString("</g>\n")
}

func drawBand(b *strings.Builder, sc scale, band *Band) {
	var path strings.Builder
	for i, x := range band.X {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%.2f %.2f ", cmd, sc.x(x), sc.y(band.Upper[i]))
	}
	for i := len(band.X) - 1; i >= 0; i-- {
		fmt.Fprintf(&path, "L%.2f %.2f ", sc.x(band.X[i]), sc.y(band.Lower[i]))
	}
	path.WriteString("Z")
	fmt.Fprintf(b, `<path d="%s" fill="black" fill-opacity="0.1" stroke="none"/>`+"\n", path.String())
}

func drawSeries(b *strings.Builder, sc scale, series []Series) {
	paletteIdx := 0
	for _, s := range series {
		if len(s.X) == 0 {
			continue
		}
		color := s.Color
		if color == "" {
			color = palette[paletteIdx%len(palette)]
			paletteIdx++
		}

		var points strings.Builder
		n := 0
		for i, x := range s.X {
			if math.IsNaN(x) || math.IsNaN(s.Y[i]) {
				continue
			}
			fmt.Fprintf(&points, "%.2f,%.2f ", sc.x(x), sc.y(s.Y[i]))
			n++
		}
		if n == 0 {
			continue
		}

		dash := ""
		opacity := "1"
		if s.Dashed {
			dash = ` stroke-dasharray="6,4"`
			opacity = "0.5"
		}
		fmt.Fprintf(b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="1.5" opacity="%s"%s/>`+"\n",
			strings.TrimSpace(points.String()), color, opacity, dash)
	}
}

func drawAxes(b *strings.Builder, sc scale, fig Figure) {
	fmt.Fprintf(b, `<rect x="%g" y="%g" width="%g" height="%g" fill="none" stroke="black"/>`+"\n",
		marginLeft, marginTop, plotWidth, plotHeight)

	for _, tx := range ticks(sc.xMin, sc.xMax) {
		px := sc.x(tx)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%g" x2="%.2f" y2="%g" stroke="black"/>`+"\n",
			px, marginTop+plotHeight, px, marginTop+plotHeight+5)
		fmt.Fprintf(b, `<text x="%.2f" y="%g" text-anchor="middle">%s</text>`+"\n",
			px, marginTop+plotHeight+20, tickLabel(tx))
	}
	for _, ty := range ticks(sc.yMin, sc.yMax) {
		py := sc.y(ty)
		fmt.Fprintf(b, `<line x1="%g" y1="%.2f" x2="%g" y2="%.2f" stroke="black"/>`+"\n",
			marginLeft-5, py, marginLeft, py)
		fmt.Fprintf(b, `<text x="%g" y="%.2f" text-anchor="end" dy="4">%s</text>`+"\n",
			marginLeft-9, py, tickLabel(ty))
	}

	if fig.Title != "" {
		fmt.Fprintf(b, `<text x="%g" y="%g" text-anchor="middle" font-size="14">%s</text>`+"\n",
			marginLeft+plotWidth/2, marginTop-16, xmlEscaper.Replace(fig.Title))
	}
	if fig.XLabel != "" {
		fmt.Fprintf(b, `<text x="%g" y="%g" text-anchor="middle">%s</text>`+"\n",
			marginLeft+plotWidth/2, svgHeight-16, xmlEscaper.Replace(fig.XLabel))
	}
	if fig.YLabel != "" {
		fmt.Fprintf(b, `<text x="%.2f" y="18" text-anchor="middle" transform="rotate(-90)">%s</text>`+"\n",
			-(marginTop + plotHeight/2), xmlEscaper.Replace(fig.YLabel))
	}
}

func collectLegend(fig Figure) []legendEntry {
	var entries []legendEntry
	if fig.Band != nil && fig.Band.Label != "" {
		entries = append(entries, legendEntry{label: fig.Band.Label, band: true})
	}
	paletteIdx := 0
	for _, s := range fig.Series {
		color := s.Color
		if color == "" && len(s.X) > 0 {
			color = palette[paletteIdx%len(palette)]
			paletteIdx++
		}
		if s.Label == "" {
			continue
		}
		if color == "" {
			color = "black"
		}
		entries = append(entries, legendEntry{label: s.Label, color: color, dashed: s.Dashed})
	}
	return entries
}

func drawLegend(b *strings.Builder, entries []legendEntry) {
	if len(entries) == 0 {
		return
	}

	maxLabel := 0
	for _, e := range entries {
		if len(e.label) > maxLabel {
			maxLabel = len(e.label)
		}
	}
	const entryHeight = 18.0
	boxWidth := 40 + float64(maxLabel)*7
	boxHeight := float64(len(entries))*entryHeight + 10
	x0 := marginLeft + plotWidth - boxWidth - 10
	y0 := marginTop + 10

	fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="white" fill-opacity="0.8" stroke="gray"/>`+"\n",
		x0, y0, boxWidth, boxHeight)
	for i, e := range entries {
		cy := y0 + 5 + float64(i)*entryHeight + entryHeight/2
		switch {
		case e.band:
			fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="24" height="10" fill="black" fill-opacity="0.1"/>`+"\n",
				x0+8, cy-5)
		case e.dashed:
			fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1.5" stroke-dasharray="6,4"/>`+"\n",
				x0+8, cy, x0+32, cy, e.color)
		default:
			fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1.5"/>`+"\n",
				x0+8, cy, x0+32, cy, e.color)
		}
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" dy="4">%s</text>`+"\n",
			x0+38, cy, xmlEscaper.Replace(e.label))
	}
}

// ticks returns round tick positions inside [lo, hi].
func ticks(lo, hi float64) []float64 {
	step := niceStep((hi - lo) / targetTicks)
	first := math.Ceil(lo/step) * step
	var out []float64
	for v := first; v <= hi+step*1e-9; v += step {
		out = append(out, v)
	}
	return out
}

// niceStep rounds raw up to the next 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 1
	}
	pow := math.Pow(10, math.Floor(math.Log10(raw)))
	switch frac := raw / pow; {
	case frac <= 1:
		return pow
	case frac <= 2:
		return 2 * pow
	case frac <= 5:
		return 5 * pow
	default:
		return 10 * pow
	}
}

func tickLabel(v float64) string {
	if math.Abs(v) < 1e-12 {
		v = 0
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
