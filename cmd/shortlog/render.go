package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/kungfusheep/shortlog"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7DC4E4"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E738D"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	chipStyle   = lipgloss.NewStyle().Padding(0, 1).
			Background(lipgloss.Color("#363A4F")).
			Foreground(lipgloss.Color("#CAD3F5"))
	flashStyle = chipStyle.
			Background(lipgloss.Color("#EED49F")).
			Foreground(lipgloss.Color("#181926")).
			Bold(true)
)

var noteColors = map[shortlog.Severity]lipgloss.Color{
	shortlog.SeverityInfo:  "#8AADF4",
	shortlog.SeverityWarn:  "#EED49F",
	shortlog.SeverityError: "#ED8796",
}

const cellGap = 1

func renderTitle(v shortlog.View, width int) string {
	count := humanize.Comma(int64(len(v.Rows)))
	if len(v.Rows) != v.Total {
		count += " of " + humanize.Comma(int64(v.Total))
	}
	return clip(titleStyle.Render("shortlog")+"  "+dimStyle.Render(count+" rows"), width)
}

func renderQuery(v shortlog.View) string {
	if v.Query != "" {
		return "/ " + v.Query
	}
	hint := v.Placeholder
	if hint == "" {
		hint = "press / to search"
	}
	return dimStyle.Render("/ " + hint)
}

func renderNote(n shortlog.Note, width int) string {
	chip := lipgloss.NewStyle().Bold(true).Foreground(noteColors[n.Severity]).Render(strings.ToUpper(n.Severity.String()))
	return clip(chip+" "+oneLine(n.Text), width)
}

func renderJumps(v shortlog.View, width int) string {
	if len(v.Jumps) == 0 {
		return dimStyle.Render("no jump matches")
	}
	chips := make([]string, 0, len(v.Jumps))
	for _, j := range v.Jumps {
		style := chipStyle
		if j.Flash {
			style = flashStyle
		}
		chips = append(chips, style.Render(fmt.Sprintf("%s %s %s", hotkeyHint(j.Hotkey), j.Label, humanize.Comma(int64(j.Count)))))
	}
	return clip(strings.Join(chips, " "), width)
}

func hotkeyHint(k string) string {
	if isDigit(k) {
		return k
	}
	return "M-" + k
}

// renderTable draws the header and height rows starting at the scroll
// offset. Short tables are padded so the status line stays put.
func renderTable(v shortlog.View, width, height int) string {
	lines := make([]string, 0, height+1)
	switch v.Empty {
	case shortlog.EmptyNoData:
		lines = append(lines, dimStyle.Render("no data"))
	case shortlog.EmptyNoMatches:
		lines = append(lines, dimStyle.Render("no rows match the search and filters"))
	default:
		widths := shortlog.Fit(v.Widths, width, cellGap)
		lines = append(lines, headerStyle.Render(formatCells(v.Columns, widths)))
		last := min(v.ScrollY+height, len(v.Rows))
		for i := v.ScrollY; i < last; i++ {
			lines = append(lines, renderRow(v, i, widths))
		}
	}
	for len(lines) < height+1 {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func renderRow(v shortlog.View, i int, widths []int) string {
	row := v.Rows[i]
	cells := make([]string, len(v.Columns))
	for c, col := range v.Columns {
		cells[c] = row.String(col)
	}
	st := v.Styles[i]
	if st.Badge != "" && len(cells) > 0 {
		last := len(cells) - 1
		cells[last] = "[" + st.Badge + "] " + cells[last]
	}
	style := rowStyle(st)
	if i == v.Selected {
		style = style.Reverse(true)
	}
	return style.Render(formatCells(cells, widths))
}

// formatCells lays cells out in fixed-width columns, truncating on display
// width.
func formatCells(cells []string, widths []int) string {
	var b strings.Builder
	for i, c := range cells {
		if i >= len(widths) {
			break
		}
		if i > 0 {
			b.WriteString(strings.Repeat(" ", cellGap))
		}
		w := widths[i]
		c = runewidth.Truncate(oneLine(c), w, "…")
		if i < len(cells)-1 {
			c = runewidth.FillRight(c, w)
		}
		b.WriteString(c)
	}
	return b.String()
}

func rowStyle(st shortlog.RowStyle) lipgloss.Style {
	s := lipgloss.NewStyle()
	if !st.Matched {
		return s
	}
	if bg, ok := termColor(st.Background); ok {
		s = s.Background(bg)
		if fg, ok := readableOn(st.Background); ok && st.Color == "" {
			s = s.Foreground(fg)
		}
	}
	if fg, ok := termColor(st.Color); ok {
		s = s.Foreground(fg)
	}
	return s
}

// termColor accepts #rgb and #rrggbb hex colours and ANSI colour numbers.
func termColor(c string) (lipgloss.Color, bool) {
	c = strings.TrimSpace(c)
	if c == "" {
		return "", false
	}
	if strings.Trim(c, "0123456789") == "" {
		return lipgloss.Color(c), true
	}
	col, err := colorful.Hex(c)
	if err != nil {
		return "", false
	}
	return lipgloss.Color(col.Hex()), true
}

// readableOn picks dark or light text for a hex background by lightness.
func readableOn(bg string) (lipgloss.Color, bool) {
	col, err := colorful.Hex(strings.TrimSpace(bg))
	if err != nil {
		return "", false
	}
	if l, _, _ := col.Lab(); l > 0.6 {
		return lipgloss.Color("#1E2030"), true
	}
	return lipgloss.Color("#F4F4F6"), true
}

func renderStatus(v shortlog.View, width int) string {
	var parts []string
	if v.Selected >= 0 && v.Selected < len(v.OriginalIndex) {
		parts = append(parts, fmt.Sprintf("row %s of %s",
			humanize.Comma(int64(v.Selected+1)), humanize.Comma(int64(len(v.Rows)))))
	}
	for _, col := range v.FilterColumns {
		if set := v.Filters[col]; len(set) > 0 {
			parts = append(parts, col+"="+strings.Join(set.Values(), ","))
		}
	}
	if v.MaxScroll > 0 && v.LastVisible > v.FirstVisible {
		parts = append(parts, fmt.Sprintf("%d-%d %s", v.FirstVisible+1, v.LastVisible, scrollPosition(v)))
	}
	if hidden := v.Total - len(v.Rows); hidden > 0 {
		parts = append(parts, humanize.Comma(int64(hidden))+" hidden")
	}
	return clip(dimStyle.Render(strings.Join(parts, "  ·  ")), width)
}

func scrollPosition(v shortlog.View) string {
	switch v.ScrollY {
	case 0:
		return "top"
	case v.MaxScroll:
		return "end"
	}
	return fmt.Sprintf("%d%%", v.ScrollY*100/v.MaxScroll)
}

// renderEntries lists every match of one jump button.
func renderEntries(v shortlog.View, label string, entries []shortlog.JumpEntry, pos, width, height int) string {
	lines := []string{headerStyle.Render(fmt.Sprintf("%s: %s matches", label, humanize.Comma(int64(len(entries)))))}
	first := max(0, pos-(height-2))
	for i := first; i < len(entries) && len(lines) < height; i++ {
		e := entries[i]
		if e.Visible >= len(v.Rows) {
			continue
		}
		row := v.Rows[e.Visible]
		var cells []string
		for _, c := range v.Columns {
			if s := row.String(c); s != "" {
				cells = append(cells, s)
			}
		}
		line := clip(fmt.Sprintf("#%-6d %s", e.Original, oneLine(strings.Join(cells, "  "))), width)
		if i == pos {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderPicker draws the filter popover: column tabs, the narrowing input
// and the matching values with their selection state.
func renderPicker(cols []string, col string, selected shortlog.ValueSet, input string, values []string, pos, width, height int) string {
	tabs := make([]string, len(cols))
	for i, c := range cols {
		if c == col {
			tabs[i] = flashStyle.Render(c)
		} else {
			tabs[i] = chipStyle.Render(c)
		}
	}
	lines := []string{clip(strings.Join(tabs, " "), width), input}
	first := max(0, pos-(height-3))
	for i := first; i < len(values) && len(lines) < height; i++ {
		mark := "[ ]"
		if selected.Has(values[i]) {
			mark = "[x]"
		}
		label := values[i]
		if label == "" {
			label = dimStyle.Render("(empty)")
		}
		line := clip(mark+" "+label, width)
		if i == pos {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderPlain prints the whole filtered table for -plain or piped output.
func renderPlain(v shortlog.View, width int) string {
	var b strings.Builder
	for _, n := range v.Notes {
		b.WriteString(renderNote(n, width))
		b.WriteByte('\n')
	}
	if v.Empty != shortlog.EmptyNone {
		b.WriteString(renderTable(v, width, 0))
		b.WriteByte('\n')
		return b.String()
	}
	b.WriteString(renderTable(v, width, len(v.Rows)))
	b.WriteByte('\n')
	return b.String()
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", "⏎", "\n", "⏎", "\t", " ").Replace(s)
}

func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
