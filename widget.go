package shortlog

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EmptyState says why a view has no rows to show.
type EmptyState int

const (
	EmptyNone      EmptyState = iota
	EmptyNoData               // no rows or no columns supplied
	EmptyNoMatches            // rows exist but none pass the query and filters
)

// Option configures a Widget.
type Option func(*Widget)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Widget) { w.log = l }
}

// WithClock sets the clock driving the debounce and flash timers.
func WithClock(c Clock) Option {
	return func(w *Widget) { w.clock = c }
}

// WithWidthMetrics sets the unit column widths are estimated in.
func WithWidthMetrics(m WidthMetrics) Option {
	return func(w *Widget) { w.metrics = m }
}

// WithDebounce fixes the selection debounce, ignoring the snapshot's value.
func WithDebounce(d time.Duration) Option {
	return func(w *Widget) { w.debounce = &d }
}

// WithFlashDuration sets how long a jump button stays highlighted.
func WithFlashDuration(d time.Duration) Option {
	return func(w *Widget) { w.flashFor = d }
}

// WithRowHeight sets the row height used for scroll offsets.
func WithRowHeight(h int) Option {
	return func(w *Widget) { w.rowHeight = h }
}

// Widget is one short-log table instance. It owns its query, filters,
// selection and timers; nothing is shared between instances.
//
// usage:
//
//	w := New(HostFunc(send), WithWidthMetrics(CellMetrics))
//	w.OnChange(redraw)
//	w.Update(snapshot)     // every host update
//	w.SetQuery("timeout")  // user typing
//	w.Jump("Error")        // jump button
//	v := w.View()          // render
//	w.Close()              // teardown
type Widget struct {
	mu       sync.Mutex
	log      zerolog.Logger
	clock    Clock
	host     Host
	onChange func()

	metrics   WidthMetrics
	debounce  *time.Duration
	flashFor  time.Duration
	rowHeight int

	started bool
	closed  bool

	snap       Snapshot
	columns    []string
	index      *RowIndex
	searchable []string
	filterable []string
	options    map[string][]string

	query   string
	filters FilterState
	view    FilterView

	groups   []RuleGroup
	matches  MatchSet
	styleSet StyleSet
	styles   []RowStyle
	notes    []Note
	widths   []int

	sel      Selection
	viewport *Viewport
	flash    *Flash
	emitter  *Debouncer[Event]
}

// New creates a widget reporting to host, which may be nil.
func New(host Host, opts ...Option) *Widget {
	w := &Widget{
		host:      host,
		log:       zerolog.Nop(),
		clock:     SystemClock,
		metrics:   PixelMetrics,
		rowHeight: 1,
		filters:   FilterState{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.viewport = NewViewport(w.rowHeight)
	w.flash = NewFlash(w.clock, w.flashFor, w.changed)
	w.emitter = NewDebouncer(w.clock, DefaultSelectionDebounce, w.emit)
	return w
}

// OnChange registers f to run whenever the view changes, including changes
// made by timers. f runs without the widget lock held.
func (w *Widget) OnChange(f func()) {
	w.mu.Lock()
	w.onChange = f
	w.mu.Unlock()
}

func (w *Widget) changed() {
	w.mu.Lock()
	f := w.onChange
	w.mu.Unlock()
	if f != nil {
		f()
	}
}

func (w *Widget) emit(e Event) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed || w.host == nil {
		return
	}
	w.log.Debug().Int("rowIndex", e.RowIndex).Msg("emit row selection")
	w.host.Emit(e)
}

// Update applies a host snapshot. The first snapshot also seeds the query and
// filters from the search and filter configs; later snapshots keep the
// user's query and filters.
func (w *Widget) Update(s Snapshot) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	first := !w.started
	w.started = true
	if first || !sameRows(w.snap.Rows, s.Rows) {
		w.index = NewRowIndex(s.Rows)
	}
	w.snap = s

	base := s.ResolvedColumns()
	w.columns = s.Layout.Order(base)
	w.searchable = s.SearchConfig.Columns
	if len(w.searchable) == 0 {
		w.searchable = base
	}
	w.filterable = s.FilterConfig.Columns
	w.options = UniqueValues(w.index, w.filterable)
	if first {
		w.query = s.SearchConfig.Initial
		w.filters = InitialFilters(s.FilterConfig)
	} else {
		w.filters = w.filters.Restrict(w.filterable)
	}

	w.groups = CompileJumpRules(s.JumpButtons)
	w.styleSet = CompileStyles(s.StyleRules)
	for _, err := range w.styleSet.Errors() {
		w.log.Warn().Err(err).Msg("style rule regex ignored")
	}
	w.notes = ResolveNotes(s.AlarmNote.Value)

	delay := s.Debounce()
	if w.debounce != nil {
		delay = *w.debounce
	}
	w.emitter.SetDelay(delay)

	w.recomputeLocked(true)
	if first && s.InitialIndex != nil {
		if pos := w.visiblePosLocked(*s.InitialIndex); pos >= 0 {
			w.sel.SelectJump(pos)
		}
	}
	w.mu.Unlock()
	w.changed()
}

// recomputeLocked refreshes the visible set and everything derived from it.
// With force unset, nothing happens unless the visible set changed.
func (w *Widget) recomputeLocked(force bool) {
	changed := w.view.Update(w.index, FilterParams{
		Searchable: w.searchable,
		Query:      w.query,
		Filterable: w.filterable,
		State:      w.filters,
	})
	if !changed && !force {
		return
	}
	visible, orig := w.view.Items, w.view.indices
	w.widths = ApplyLayout(EstimateWidths(visible, w.columns, w.metrics), w.columns, w.snap.Layout, w.metrics)
	w.matches = ComputeMatches(visible, orig, w.groups)
	w.styles = make([]RowStyle, len(visible))
	for i, r := range visible {
		w.styles[i] = w.styleSet.Match(r, orig[i], i)
	}
	if w.sel.Invalidate(len(visible)) {
		w.log.Debug().Int("visible", len(visible)).Msg("selection cleared")
	}
	w.viewport.SetRows(len(visible))
	w.log.Debug().
		Int("visible", len(visible)).
		Int("total", w.index.Len()).
		Str("query", w.query).
		Msg("view recomputed")
}

func (w *Widget) visiblePosLocked(orig int) int {
	idx := w.view.indices
	i := sort.SearchInts(idx, orig)
	if i < len(idx) && idx[i] == orig {
		return i
	}
	return -1
}

// SetQuery changes the free-text query.
func (w *Widget) SetQuery(q string) {
	w.mu.Lock()
	if w.closed || q == w.query {
		w.mu.Unlock()
		return
	}
	w.query = q
	w.recomputeLocked(false)
	w.mu.Unlock()
	w.changed()
}

// ToggleFilter selects or deselects val for col. It reports false when col
// is not filterable.
func (w *Widget) ToggleFilter(col, val string) bool {
	return w.setFilters(col, func(fs FilterState) FilterState { return fs.Toggle(col, val) })
}

// SetFilter replaces col's selected values.
func (w *Widget) SetFilter(col string, vals ...string) bool {
	return w.setFilters(col, func(fs FilterState) FilterState { return fs.With(col, vals...) })
}

func (w *Widget) setFilters(col string, next func(FilterState) FilterState) bool {
	w.mu.Lock()
	if w.closed || !slices.Contains(w.filterable, col) {
		w.mu.Unlock()
		return false
	}
	w.filters = next(w.filters)
	w.recomputeLocked(false)
	w.mu.Unlock()
	w.changed()
	return true
}

// ClearFilters drops every column selection.
func (w *Widget) ClearFilters() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.filters = FilterState{}
	w.recomputeLocked(false)
	w.mu.Unlock()
	w.changed()
}

// Reset clears both the filters and the query, restoring the full row set.
func (w *Widget) Reset() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.filters = FilterState{}
	w.query = ""
	w.recomputeLocked(false)
	w.viewport.ScrollToTop()
	w.mu.Unlock()
	w.changed()
}

// Select activates the visible row at pos, as a click would: no scrolling.
func (w *Widget) Select(pos int) bool {
	w.mu.Lock()
	if w.closed || pos < 0 || pos >= w.view.Len() {
		w.mu.Unlock()
		return false
	}
	w.sel.SelectManual(pos)
	ev := w.eventLocked(pos)
	w.mu.Unlock()

	w.emitter.Schedule(ev)
	w.changed()
	return true
}

// Move shifts the selection by delta rows (keyboard navigation) and scrolls
// just enough to keep it visible. With nothing selected, moving down starts
// at the first row and moving up at the last.
func (w *Widget) Move(delta int) (int, bool) {
	w.mu.Lock()
	n := w.view.Len()
	if w.closed || n == 0 {
		w.mu.Unlock()
		return 0, false
	}
	next := w.sel.Current()
	switch {
	case next < 0 && delta >= 0:
		next = 0
	case next < 0:
		next = n - 1
	default:
		next = min(max(next+delta, 0), n-1)
	}
	w.sel.SelectManual(next)
	w.viewport.EnsureVisible(next)
	ev := w.eventLocked(next)
	w.mu.Unlock()

	w.emitter.Schedule(ev)
	w.changed()
	return next, true
}

// Page scrolls the row area by pages windows (negative scrolls up) and moves
// the selection by as many rows. With nothing selected it lands on the first
// row left on screen.
func (w *Widget) Page(pages int) (int, bool) {
	w.mu.Lock()
	n := w.view.Len()
	if w.closed || n == 0 || pages == 0 {
		w.mu.Unlock()
		return 0, false
	}
	for i := 0; i < pages; i++ {
		w.viewport.PageDown()
	}
	for i := pages; i < 0; i++ {
		w.viewport.PageUp()
	}
	step := max(w.viewport.Height()/max(w.viewport.RowHeight(), 1), 1)
	next := w.sel.Current()
	if next < 0 {
		next, _ = w.viewport.VisibleRange()
	} else {
		next += pages * step
	}
	next = min(max(next, 0), n-1)
	w.sel.SelectManual(next)
	w.viewport.EnsureVisible(next)
	ev := w.eventLocked(next)
	w.mu.Unlock()

	w.emitter.Schedule(ev)
	w.changed()
	return next, true
}

// First selects the first visible row and scrolls to the top.
func (w *Widget) First() (int, bool) {
	return w.edge(false)
}

// Last selects the last visible row and scrolls to the end.
func (w *Widget) Last() (int, bool) {
	return w.edge(true)
}

func (w *Widget) edge(last bool) (int, bool) {
	w.mu.Lock()
	n := w.view.Len()
	if w.closed || n == 0 {
		w.mu.Unlock()
		return 0, false
	}
	pos := 0
	if last {
		pos = n - 1
		w.viewport.ScrollToEnd()
	} else {
		w.viewport.ScrollToTop()
	}
	w.sel.SelectManual(pos)
	ev := w.eventLocked(pos)
	w.mu.Unlock()

	w.emitter.Schedule(ev)
	w.changed()
	return pos, true
}

// Jump moves the selection to label's next match after the current
// selection, wrapping to the first, and centres it on the next render.
func (w *Widget) Jump(label string) (int, bool) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return 0, false
	}
	next, ok := w.matches.Advance(label, w.sel.Current())
	if !ok {
		w.mu.Unlock()
		return 0, false
	}
	w.sel.SelectJump(next)
	ev := w.eventLocked(next)
	w.mu.Unlock()

	w.log.Debug().Str("label", label).Int("pos", next).Msg("jump")
	w.flash.Trigger(label)
	w.emitter.Schedule(ev)
	w.changed()
	return next, true
}

// Reveal selects the visible row at pos as navigation does, centring it on
// the next render. The match list of a jump button uses it.
func (w *Widget) Reveal(pos int) bool {
	w.mu.Lock()
	if w.closed || pos < 0 || pos >= w.view.Len() {
		w.mu.Unlock()
		return false
	}
	w.sel.SelectJump(pos)
	ev := w.eventLocked(pos)
	w.mu.Unlock()

	w.emitter.Schedule(ev)
	w.changed()
	return true
}

func (w *Widget) eventLocked(pos int) Event {
	return Event{
		Type:     EventRowSelected,
		RowIndex: w.view.OriginalIndex(pos),
		Row:      w.view.Items[pos],
	}
}

// Selection returns the selected visible position and its original index.
func (w *Widget) Selection() (pos, orig int, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	pos = w.sel.Current()
	if pos < 0 {
		return -1, -1, false
	}
	return pos, w.view.OriginalIndex(pos), true
}

// SetViewportHeight sets the height of the scrolling row area.
func (w *Widget) SetViewportHeight(h int) {
	w.mu.Lock()
	w.viewport.SetHeight(h)
	w.mu.Unlock()
}

// ScrollBy scrolls the row area by n units. User scrolling never moves the
// selection.
func (w *Widget) ScrollBy(n int) {
	w.mu.Lock()
	w.viewport.ScrollBy(n)
	w.mu.Unlock()
	w.changed()
}

// FilterOptions returns col's distinct values narrowed by an fzf query.
func (w *Widget) FilterOptions(col, query string) []string {
	w.mu.Lock()
	vals := w.options[col]
	w.mu.Unlock()
	return PickValues(vals, query)
}

// MatchEntries lists label's matches for the "view all" panel.
func (w *Widget) MatchEntries(label string) []JumpEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.matches.Entries(label)
}

// View is a render-ready snapshot of the widget.
type View struct {
	Columns       []string
	Rows          []Row // visible rows; read only
	OriginalIndex []int
	Styles        []RowStyle // parallel to Rows
	Widths        []int      // every column but the last
	Tracks        []string
	Jumps         []JumpInfo // actionable jump buttons only
	Notes         []Note
	Query         string
	Placeholder   string
	Filters       FilterState
	FilterColumns []string
	Selected      int // -1 when nothing is selected
	ScrollY       int
	MaxScroll     int
	FirstVisible  int // first row on screen
	LastVisible   int // one past the last row on screen
	Total         int
	Empty         EmptyState
}

// View returns the current render state. A pending centre request from a
// jump is consumed here, so the centring scroll happens exactly once.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pos, ok := w.sel.TakeCenter(); ok {
		w.viewport.CenterOn(pos)
	}

	jumps := w.matches.Actionable()
	keys := GenerateLabels(len(jumps))
	lit := w.flash.Label()
	for i := range jumps {
		jumps[i].Hotkey = keys[i]
		jumps[i].Flash = jumps[i].Label == lit
	}

	empty := EmptyNone
	switch {
	case w.index.Len() == 0 || len(w.columns) == 0:
		empty = EmptyNoData
	case w.view.Len() == 0:
		empty = EmptyNoMatches
	}

	first, last := w.viewport.VisibleRange()
	return View{
		Columns:       slices.Clone(w.columns),
		Rows:          w.view.Items,
		OriginalIndex: w.view.Indices(),
		Styles:        w.styles,
		Widths:        slices.Clone(w.widths),
		Tracks:        Tracks(w.widths),
		Jumps:         jumps,
		Notes:         w.notes,
		Query:         w.query,
		Placeholder:   w.snap.SearchConfig.Placeholder,
		Filters:       w.filters,
		FilterColumns: slices.Clone(w.filterable),
		Selected:      w.sel.Current(),
		ScrollY:       w.viewport.ScrollY(),
		MaxScroll:     w.viewport.MaxScroll(),
		FirstVisible:  first,
		LastVisible:   last,
		Total:         w.index.Len(),
		Empty:         empty,
	}
}

// Close tears the widget down: pending emissions and the flash timer are
// cancelled and later calls are ignored. Closing twice is a no-op.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()
	w.flash.Stop()
	w.emitter.Stop()
	w.log.Debug().Msg("widget closed")
}
