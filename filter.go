package shortlog

import (
	"slices"
	"sort"
	"strings"
)

// ValueSet is the set of selected values for one filterable column.
type ValueSet map[string]struct{}

// NewValueSet builds a set from values.
func NewValueSet(values ...string) ValueSet {
	s := make(ValueSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is selected.
func (s ValueSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the selected values, sorted.
func (s ValueSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FilterState maps a column to its selected values. An empty or missing set
// places no restriction on that column.
//
// States are treated as values: every helper returns a new state and leaves
// the receiver untouched, so holders can detect changes by identity.
type FilterState map[string]ValueSet

// Toggle adds val to col's selection, or removes it if already selected.
func (fs FilterState) Toggle(col, val string) FilterState {
	next := fs.clone()
	set := make(ValueSet, len(fs[col])+1)
	for v := range fs[col] {
		set[v] = struct{}{}
	}
	if set.Has(val) {
		delete(set, val)
	} else {
		set[val] = struct{}{}
	}
	if len(set) == 0 {
		delete(next, col)
	} else {
		next[col] = set
	}
	return next
}

// With replaces col's selection with vals.
func (fs FilterState) With(col string, vals ...string) FilterState {
	next := fs.clone()
	if len(vals) == 0 {
		delete(next, col)
		return next
	}
	next[col] = NewValueSet(vals...)
	return next
}

// Without drops col's selection.
func (fs FilterState) Without(col string) FilterState {
	next := fs.clone()
	delete(next, col)
	return next
}

// Restrict keeps only the columns listed in cols.
func (fs FilterState) Restrict(cols []string) FilterState {
	next := make(FilterState, len(fs))
	for _, c := range cols {
		if set := fs[c]; len(set) > 0 {
			next[c] = set
		}
	}
	return next
}

// Active reports whether any column has a selection.
func (fs FilterState) Active() bool {
	for _, set := range fs {
		if len(set) > 0 {
			return true
		}
	}
	return false
}

// Key returns a stable string identifying the state, for memoization.
func (fs FilterState) Key() string {
	cols := make([]string, 0, len(fs))
	for c, set := range fs {
		if len(set) > 0 {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	var b strings.Builder
	for _, c := range cols {
		b.WriteString(c)
		b.WriteByte('\x1f')
		for _, v := range fs[c].Values() {
			b.WriteString(v)
			b.WriteByte('\x1e')
		}
		b.WriteByte('\x1d')
	}
	return b.String()
}

func (fs FilterState) clone() FilterState {
	next := make(FilterState, len(fs)+1)
	for c, set := range fs {
		next[c] = set
	}
	return next
}

// InitialFilters turns a filter config's initial selections into a state,
// keeping only filterable columns and non-empty values.
func InitialFilters(cfg FilterConfig) FilterState {
	fs := FilterState{}
	for _, col := range cfg.Columns {
		var vals []string
		for _, v := range cfg.Initial[col] {
			if v != "" {
				vals = append(vals, v)
			}
		}
		if len(vals) > 0 {
			fs[col] = NewValueSet(vals...)
		}
	}
	return fs
}

// FilterParams is everything besides the rows that decides the visible set.
type FilterParams struct {
	Searchable []string // empty = every indexed column
	Query      string
	Filterable []string
	State      FilterState
}

// Key returns a stable memo key for p.
func (p FilterParams) Key() string {
	var b strings.Builder
	b.WriteString(strings.Join(p.Searchable, "\x1f"))
	b.WriteByte('\x1d')
	b.WriteString(strings.ToLower(strings.TrimSpace(p.Query)))
	b.WriteByte('\x1d')
	b.WriteString(strings.Join(p.Filterable, "\x1f"))
	b.WriteByte('\x1d')
	b.WriteString(p.State.Key())
	return b.String()
}

// Filter returns the rows that pass both the per-column filters and the
// free-text query, in original order, plus each visible row's original index.
func Filter(rows []Row, searchable []string, query string, filterable []string, state FilterState) ([]Row, []int) {
	return NewRowIndex(rows).Filter(FilterParams{
		Searchable: searchable,
		Query:      query,
		Filterable: filterable,
		State:      state,
	})
}

// Filter applies p to the indexed rows.
func (idx *RowIndex) Filter(p FilterParams) ([]Row, []int) {
	n := idx.Len()
	visible := make([]Row, 0, n)
	orig := make([]int, 0, n)

	type restriction struct {
		col string
		set ValueSet
	}
	var active []restriction
	for _, c := range p.Filterable {
		if set := p.State[c]; len(set) > 0 {
			active = append(active, restriction{c, set})
		}
	}

	q := strings.ToLower(strings.TrimSpace(p.Query))
	searchable := p.Searchable
	if len(searchable) == 0 {
		searchable = idx.Columns()
	}

rows:
	for i := 0; i < n; i++ {
		for _, r := range active {
			if !r.set.Has(idx.Value(i, r.col)) {
				continue rows
			}
		}
		if q != "" && !idx.containsAny(i, searchable, q) {
			continue
		}
		visible = append(visible, idx.rows[i])
		orig = append(orig, i)
	}
	return visible, orig
}

func (idx *RowIndex) containsAny(i int, cols []string, q string) bool {
	for _, c := range cols {
		if strings.Contains(idx.Lower(i, c), q) {
			return true
		}
	}
	return false
}

// FilterView holds the current visible row set and recomputes it only when
// the row index or the filter parameters change.
//
// usage:
//
//	var v FilterView
//	v.Update(idx, FilterParams{Query: "timeout"})
//	v.Items                 // visible rows
//	v.OriginalIndex(sel)    // map a visible position back to the host's row
type FilterView struct {
	Items []Row // visible rows; replaced, never mutated, on recompute

	indices []int
	idx     *RowIndex
	key     string
	ready   bool
	active  bool
}

// Update re-filters when idx or p differ from the last call and reports
// whether the visible set was recomputed.
func (v *FilterView) Update(idx *RowIndex, p FilterParams) bool {
	key := p.Key()
	if v.ready && v.idx == idx && v.key == key {
		return false
	}
	v.Items, v.indices = idx.Filter(p)
	v.idx = idx
	v.key = key
	v.ready = true
	v.active = strings.TrimSpace(p.Query) != "" || p.State.Restrict(p.Filterable).Active()
	return true
}

// Original maps a visible position back to the source row.
// returns nil if the position is out of bounds.
func (v *FilterView) Original(pos int) *Row {
	if pos < 0 || pos >= len(v.Items) {
		return nil
	}
	return &v.Items[pos]
}

// OriginalIndex maps a visible position to the row's index in the host
// sequence. returns -1 if the position is out of bounds.
func (v *FilterView) OriginalIndex(pos int) int {
	if pos < 0 || pos >= len(v.indices) {
		return -1
	}
	return v.indices[pos]
}

// Indices returns a copy of the original-index map.
func (v *FilterView) Indices() []int {
	return slices.Clone(v.indices)
}

// Active reports whether a query or filter currently narrows the view.
func (v *FilterView) Active() bool {
	return v.active
}

// Len returns the number of visible rows.
func (v *FilterView) Len() int {
	return len(v.Items)
}

// UniqueValues lists the distinct string values of each filterable column,
// in first-seen order. These are the choices offered in the filter popover.
func UniqueValues(idx *RowIndex, filterable []string) map[string][]string {
	out := make(map[string][]string, len(filterable))
	for _, c := range filterable {
		seen := make(map[string]struct{})
		vals := []string{}
		for i := 0; i < idx.Len(); i++ {
			v := idx.Value(i, c)
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			vals = append(vals, v)
		}
		out[c] = vals
	}
	return out
}
