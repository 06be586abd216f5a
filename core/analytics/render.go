package analytics

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

type ChartKind string

const (
	KindBar  ChartKind = "bar"
	KindLine ChartKind = "line"
)

// ChartData is a single series ready for rendering.
type ChartData struct {
	Name   string    `json:"name"`
	Title  string    `json:"title"`
	Lang   string    `json:"lang"`
	Kind   ChartKind `json:"kind"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
}

const (
	svgWidth   = 640
	svgHeight  = 320
	marginTop  = 30
	marginEnd  = 16
	marginBase = 52
	marginAxis = 52
	gridSteps  = 4
	barGap     = 6.0
	minBarW    = 6.0
	labelRunes = 12
	fontFamily = "Arial, sans-serif"
	inkColor   = "#111827"
	mutedColor = "#6b7280"
	gridColor  = "#eef2f7"
	axisColor  = "#d1d5db"
	dataColor  = "#0f766e"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

// canvas lays out one count chart. Values are report counts, so the y axis
// tops out at a multiple of gridSteps and every tick is a whole number.
type canvas struct {
	buf   bytes.Buffer
	kind  ChartKind
	n     int
	plotW float64
	plotH float64
	top   int
	barW  float64
}

func RenderSVG(data ChartData) ([]byte, error) {
	c := &canvas{
		kind:  data.Kind,
		n:     len(data.Values),
		plotW: svgWidth - marginAxis - marginEnd,
		plotH: svgHeight - marginTop - marginBase,
		top:   countCeiling(data.Values),
	}
	if c.n > 0 {
		c.barW = max((c.plotW-barGap*float64(c.n-1))/float64(c.n), minBarW)
	}
	fmt.Fprintf(&c.buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, svgWidth, svgHeight, svgWidth, svgHeight)
	c.buf.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	if data.Lang == "ar" {
		c.text(marginAxis+c.plotW, 18, 14, inkColor, "end", data.Title)
	} else {
		c.text(marginAxis, 18, 14, inkColor, "start", data.Title)
	}
	c.axes(data.XLabel, data.YLabel)
	if c.kind == KindLine {
		c.line(data.Values)
	} else {
		c.bars(data.Values)
	}
	for i, label := range data.Labels {
		if i >= c.n {
			break
		}
		c.text(c.xAt(i), c.baseline()+18, 10, mutedColor, "middle", trimLabel(label, labelRunes))
	}
	c.buf.WriteString("</svg>")
	return c.buf.Bytes(), nil
}

func (c *canvas) baseline() float64 {
	return marginTop + c.plotH
}

// xAt is the centre of bar i, or the position of point i on a line chart.
func (c *canvas) xAt(i int) float64 {
	if c.kind == KindLine {
		if c.n < 2 {
			return marginAxis + c.plotW/2
		}
		return marginAxis + c.plotW*float64(i)/float64(c.n-1)
	}
	return marginAxis + float64(i)*(c.barW+barGap) + c.barW/2
}

func (c *canvas) yAt(v float64) float64 {
	return c.baseline() - v/float64(c.top)*c.plotH
}

func (c *canvas) axes(xLabel, yLabel string) {
	left, right := float64(marginAxis), marginAxis+c.plotW
	for i := 0; i <= gridSteps; i++ {
		tick := c.top / gridSteps * i
		y := c.yAt(float64(tick))
		color := gridColor
		if i == 0 {
			color = axisColor
		}
		fmt.Fprintf(&c.buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`, left, y, right, y, color)
		c.text(left-6, y+4, 10, mutedColor, "end", strconv.Itoa(tick))
	}
	fmt.Fprintf(&c.buf, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`, left, marginTop, left, c.baseline(), axisColor)
	if strings.TrimSpace(yLabel) != "" {
		c.text(left, marginTop-8, 11, mutedColor, "start", yLabel)
	}
	if strings.TrimSpace(xLabel) != "" {
		c.text(right, c.baseline()+38, 11, mutedColor, "end", xLabel)
	}
}

func (c *canvas) bars(values []float64) {
	for i, v := range values {
		y := c.yAt(v)
		fmt.Fprintf(&c.buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`, c.xAt(i)-c.barW/2, y, c.barW, c.baseline()-y, dataColor)
	}
}

func (c *canvas) line(values []float64) {
	if len(values) == 0 {
		return
	}
	var path strings.Builder
	for i, v := range values {
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		x, y := c.xAt(i), c.yAt(v)
		fmt.Fprintf(&path, "%s %.1f %.1f", cmd, x, y)
		fmt.Fprintf(&c.buf, `<circle cx="%.1f" cy="%.1f" r="2.5" fill="%s"/>`, x, y, dataColor)
	}
	fmt.Fprintf(&c.buf, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, path.String(), dataColor)
}

func (c *canvas) text(x, y float64, size int, fill, anchor, s string) {
	fmt.Fprintf(&c.buf, `<text x="%.1f" y="%.1f" font-family="%s" font-size="%d" fill="%s" text-anchor="%s">%s</text>`,
		x, y, fontFamily, size, fill, anchor, xmlEscaper.Replace(s))
}

// countCeiling rounds the largest value up to a multiple of gridSteps.
func countCeiling(values []float64) int {
	top := 0.0
	for _, v := range values {
		top = max(top, v)
	}
	n := int(top)
	if float64(n) < top {
		n++
	}
	if rem := n % gridSteps; rem != 0 || n == 0 {
		n += gridSteps - rem
	}
	return n
}

// trimLabel counts runes so Arabic labels are never cut mid-character.
func trimLabel(label string, limit int) string {
	runes := []rune(label)
	if len(runes) <= limit {
		return label
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
