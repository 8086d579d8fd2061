package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/kungfusheep/shortlog"
)

// changedMsg asks for a redraw after the widget changed on its own, for
// example when a jump button's flash clears.
type changedMsg struct{}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modePicker  // filter value popover
	modeEntries // "view all" list for one jump button
)

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Search      key.Binding
	Filter      key.Binding
	ClearFilter key.Binding
	Reset       key.Binding
	Entries     key.Binding
	Toggle      key.Binding
	NextColumn  key.Binding
	Back        key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Top:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	ClearFilter: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),
	Reset:       key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
	Entries:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view all matches")),
	Toggle:      key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
	NextColumn:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next column")),
	Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Filter, k.Entries, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Search, k.Filter, k.ClearFilter, k.Reset},
		{k.Entries, k.Toggle, k.NextColumn, k.Back, k.Help, k.Quit},
	}
}

type model struct {
	w    *shortlog.Widget
	log  zerolog.Logger
	help help.Model

	mode   mode
	search textinput.Model
	picker textinput.Model

	pickerCol int // index into the filterable columns
	pickerPos int

	lastJump   string
	entries    []shortlog.JumpEntry
	entriesPos int

	width, height int
}

func newModel(w *shortlog.Widget, logger zerolog.Logger) *model {
	search := textinput.New()
	search.Prompt = "/ "
	search.CharLimit = 256

	picker := textinput.New()
	picker.Prompt = "› "
	picker.Placeholder = "narrow values ('exact ^prefix suffix$ !not)"

	return &model{
		w:      w,
		log:    logger,
		help:   help.New(),
		search: search,
		picker: picker,
		width:  80,
		height: 24,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case changedMsg:
		return m, nil

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.w.ScrollBy(-3)
		case tea.MouseButtonWheelDown:
			m.w.ScrollBy(3)
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress {
				m.click(msg.Y)
			}
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) && msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modePicker:
			return m.updatePicker(msg)
		case modeEntries:
			return m.updateEntries(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.w.Move(-1)
	case key.Matches(msg, keys.Down):
		m.w.Move(1)
	case key.Matches(msg, keys.PageUp):
		m.w.Page(-1)
	case key.Matches(msg, keys.PageDown):
		m.w.Page(1)
	case key.Matches(msg, keys.Top):
		m.w.First()
	case key.Matches(msg, keys.Bottom):
		m.w.Last()
	case key.Matches(msg, keys.Search):
		v := m.w.View()
		m.mode = modeSearch
		m.search.Placeholder = v.Placeholder
		m.search.SetValue(v.Query)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, keys.Filter):
		if len(m.w.View().FilterColumns) == 0 {
			return m, nil
		}
		m.mode = modePicker
		m.pickerPos = 0
		m.picker.SetValue("")
		return m, m.picker.Focus()
	case key.Matches(msg, keys.ClearFilter):
		m.w.ClearFilters()
	case key.Matches(msg, keys.Reset):
		m.w.Reset()
		m.search.SetValue("")
	case key.Matches(msg, keys.Entries):
		if m.lastJump != "" {
			m.entries = m.w.MatchEntries(m.lastJump)
			m.entriesPos = 0
			m.mode = modeEntries
		}
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	default:
		m.jumpKey(msg.String())
	}
	return m, nil
}

// jumpKey runs the jump button bound to k: digits directly, letters with alt.
func (m *model) jumpKey(k string) {
	for _, j := range m.w.View().Jumps {
		if k == "alt+"+j.Hotkey || (isDigit(j.Hotkey) && k == j.Hotkey) {
			if pos, ok := m.w.Jump(j.Label); ok {
				m.lastJump = j.Label
				m.log.Debug().Str("label", j.Label).Int("pos", pos).Msg("jump key")
			}
			return
		}
	}
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func (m *model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.search.Blur()
		m.search.SetValue("")
		m.w.SetQuery("")
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.w.SetQuery(m.search.Value())
	return m, cmd
}

func (m *model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.w.View().FilterColumns
	if len(cols) == 0 {
		m.mode = modeBrowse
		return m, nil
	}
	m.pickerCol %= len(cols)
	col := cols[m.pickerCol]
	values := m.w.FilterOptions(col, m.picker.Value())

	switch {
	case key.Matches(msg, keys.Back):
		m.mode = modeBrowse
		m.picker.Blur()
		return m, nil
	case msg.Type == tea.KeyTab:
		m.pickerCol = (m.pickerCol + 1) % len(cols)
		m.pickerPos = 0
		m.picker.SetValue("")
		return m, nil
	case msg.Type == tea.KeyUp:
		m.pickerPos = max(m.pickerPos-1, 0)
		return m, nil
	case msg.Type == tea.KeyDown:
		m.pickerPos = min(m.pickerPos+1, max(len(values)-1, 0))
		return m, nil
	case msg.Type == tea.KeyEnter, msg.Type == tea.KeySpace && m.picker.Value() == "":
		if m.pickerPos < len(values) {
			m.w.ToggleFilter(col, values[m.pickerPos])
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	m.pickerPos = 0
	return m, cmd
}

func (m *model) updateEntries(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Entries):
		m.mode = modeBrowse
	case key.Matches(msg, keys.Up):
		m.entriesPos = max(m.entriesPos-1, 0)
	case key.Matches(msg, keys.Down):
		m.entriesPos = min(m.entriesPos+1, max(len(m.entries)-1, 0))
	case msg.Type == tea.KeyEnter:
		if m.entriesPos < len(m.entries) {
			m.w.Reveal(m.entries[m.entriesPos].Visible)
		}
		m.mode = modeBrowse
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// click selects the row under screen line y.
func (m *model) click(y int) {
	v := m.w.View()
	top := m.chromeTop(v) + 1 // header row
	if y < top || y >= top+m.bodyHeight() {
		return
	}
	m.w.Select(v.ScrollY + y - top)
}

// chromeTop is the number of screen lines above the first table row.
func (m *model) chromeTop(v shortlog.View) int {
	return 2 + len(v.Notes) + 1 // title + search, notes, jump bar
}

func (m *model) bodyHeight() int {
	v := m.w.View()
	helpLines := 1
	if m.help.ShowAll {
		helpLines = len(keys.FullHelp()[0])
	}
	// header row, status line and help below the body
	return max(m.height-m.chromeTop(v)-1-1-helpLines, 1)
}

func (m *model) resize() {
	m.w.SetViewportHeight(m.bodyHeight())
}

func (m *model) View() string {
	v := m.w.View()
	var b strings.Builder
	b.WriteString(renderTitle(v, m.width))
	b.WriteByte('\n')
	if m.mode == modeSearch {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(renderQuery(v))
	}
	b.WriteByte('\n')
	for _, n := range v.Notes {
		b.WriteString(renderNote(n, m.width))
		b.WriteByte('\n')
	}
	b.WriteString(renderJumps(v, m.width))
	b.WriteByte('\n')

	switch m.mode {
	case modePicker:
		b.WriteString(m.pickerView(v))
	case modeEntries:
		b.WriteString(renderEntries(v, m.lastJump, m.entries, m.entriesPos, m.width, m.bodyHeight()+1))
	default:
		b.WriteString(renderTable(v, m.width, m.bodyHeight()))
	}
	b.WriteByte('\n')
	b.WriteString(renderStatus(v, m.width))
	b.WriteByte('\n')
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m *model) pickerView(v shortlog.View) string {
	cols := v.FilterColumns
	if len(cols) == 0 {
		return renderTable(v, m.width, m.bodyHeight())
	}
	col := cols[m.pickerCol%len(cols)]
	values := m.w.FilterOptions(col, m.picker.Value())
	return renderPicker(cols, col, v.Filters[col], m.picker.View(), values, m.pickerPos, m.width, m.bodyHeight()+1)
}
