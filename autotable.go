package shortlog

import (
	"strconv"

	"github.com/mattn/go-runewidth"
)

// WidthMetrics turns a character count into a column width.
type WidthMetrics struct {
	CharWidth int // width of one character cell
	Padding   int // added to every column
	Min, Max  int // clamp range
	PxPerUnit int // pixels per unit, for layout widths given in px
}

// PixelMetrics sizes columns in pixels for a proportional-font table.
var PixelMetrics = WidthMetrics{CharWidth: 7, Padding: 16, Min: 60, Max: 420, PxPerUnit: 1}

// CellMetrics sizes columns in terminal cells.
var CellMetrics = WidthMetrics{CharWidth: 1, Padding: 2, Min: 6, Max: 48, PxPerUnit: 7}

func (m WidthMetrics) clamp(chars int) int {
	w := chars*m.CharWidth + m.Padding
	if w < m.Min {
		w = m.Min
	}
	if m.Max > 0 && w > m.Max {
		w = m.Max
	}
	return w
}

// EstimateWidths returns a width for every column of order except the last,
// which always takes the remaining space. Widths come from the longest cell
// (or header label) in the visible rows, measured in display cells.
func EstimateWidths(visible []Row, order []string, m WidthMetrics) []int {
	if len(order) <= 1 {
		return nil
	}
	fixed := order[:len(order)-1]
	longest := make([]int, len(fixed))
	for i, c := range fixed {
		longest[i] = runewidth.StringWidth(c)
	}
	for _, r := range visible {
		for i, c := range fixed {
			if n := runewidth.StringWidth(r.String(c)); n > longest[i] {
				longest[i] = n
			}
		}
	}
	widths := make([]int, len(fixed))
	for i, n := range longest {
		widths[i] = m.clamp(n)
	}
	return widths
}

// LayoutColumn is one column of a host-supplied layout.
type LayoutColumn struct {
	Name    string `json:"name"`
	WidthPx int    `json:"width_px,omitempty"`
	Flex    bool   `json:"flex,omitempty"`
}

// Layout overrides the column order and, optionally, fixed widths.
type Layout struct {
	Columns []LayoutColumn `json:"columns"`
}

// Order returns the layout's column order, or fallback when it has none.
func (l *Layout) Order(fallback []string) []string {
	if l == nil || len(l.Columns) == 0 {
		return fallback
	}
	order := make([]string, 0, len(l.Columns))
	for _, c := range l.Columns {
		order = append(order, c.Name)
	}
	return order
}

// ApplyLayout replaces estimated widths with the layout's fixed widths,
// converted from pixels into m's unit. The last column keeps filling.
func ApplyLayout(widths []int, order []string, l *Layout, m WidthMetrics) []int {
	if l == nil || len(widths) == 0 {
		return widths
	}
	fixed := make(map[string]int, len(l.Columns))
	for _, c := range l.Columns {
		if c.WidthPx > 0 && !c.Flex {
			fixed[c.Name] = c.WidthPx
		}
	}
	if len(fixed) == 0 {
		return widths
	}
	per := m.PxPerUnit
	if per <= 0 {
		per = 1
	}
	out := make([]int, len(widths))
	copy(out, widths)
	for i := range out {
		if px, ok := fixed[order[i]]; ok {
			out[i] = (px + per - 1) / per
		}
	}
	return out
}

// Tracks renders widths as grid track sizes: fixed pixel tracks followed by
// one fill track.
func Tracks(widths []int) []string {
	tracks := make([]string, 0, len(widths)+1)
	for _, w := range widths {
		tracks = append(tracks, strconv.Itoa(w)+"px")
	}
	return append(tracks, "minmax(0, 1fr)")
}

// Fit resolves the fill column for a container of total units with gap units
// between columns. It returns one width per column. Fixed columns shrink
// proportionally when they would not fit, so the sum never exceeds total.
func Fit(widths []int, total, gap int) []int {
	n := len(widths) + 1
	out := make([]int, n)
	avail := total - gap*(n-1)
	if avail <= 0 {
		return out
	}
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum > avail {
		used := 0
		for i, w := range widths {
			out[i] = w * avail / sum
			used += out[i]
		}
		out[n-1] = avail - used
		return out
	}
	copy(out, widths)
	out[n-1] = avail - sum
	return out
}
