package shortlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RefKind says what a rule's column token refers to.
type RefKind int

const (
	RefColumn        RefKind = iota // a named cell
	RefOriginalIndex                // the row's index in the host sequence
	RefVisibleIndex                 // the row's position in the visible set
)

// ColumnRef is a column token resolved once, when rules are compiled.
type ColumnRef struct {
	Kind RefKind
	Name string // only for RefColumn
}

// ParseColumnRef resolves the index aliases (rowIndex, index, __index and
// filteredIndex, __filteredIndex, any case) and treats everything else as a
// column name.
func ParseColumnRef(token string) ColumnRef {
	switch strings.ToLower(token) {
	case "rowindex", "index", "__index":
		return ColumnRef{Kind: RefOriginalIndex}
	case "filteredindex", "__filteredindex":
		return ColumnRef{Kind: RefVisibleIndex}
	}
	return ColumnRef{Kind: RefColumn, Name: token}
}

// IsIndex reports whether the ref names a row position rather than a cell.
func (c ColumnRef) IsIndex() bool {
	return c.Kind != RefColumn
}

// value returns the string the ref reads from a row.
func (c ColumnRef) value(row Row, orig, visible int) string {
	switch c.Kind {
	case RefOriginalIndex:
		return strconv.Itoa(orig)
	case RefVisibleIndex:
		return strconv.Itoa(visible)
	}
	return row.String(c.Name)
}

func (c ColumnRef) position(orig, visible int) int {
	if c.Kind == RefVisibleIndex {
		return visible
	}
	return orig
}

// JumpRule is one column constraint of a jump button: the row matches when
// any of the terms matches.
type JumpRule struct {
	Column string
	Terms  []any
}

// JumpButton is a labelled rule group. A row matches when every rule does.
type JumpButton struct {
	Label string
	Rules []JumpRule
}

// JumpButtons is the ordered set of jump buttons. It decodes from a JSON
// object of objects and keeps the host's key order:
//
//	{"Error": {"lvl": ["ERROR", "FATAL"]}, "Row 10": {"rowIndex": 10}}
type JumpButtons []JumpButton

var (
	errJumpButtonsNotObject = errors.New("jump buttons are not a JSON object")
	errJumpGroupNotObject   = errors.New("jump button rules are not a JSON object")
	errJumpTermNotScalar    = errors.New("jump terms must be scalars")
)

// UnmarshalJSON decodes the object form, last duplicate label wins in the
// position of its first occurrence. A malformed group is skipped and
// reported; the other groups still decode.
func (jb *JumpButtons) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*jb = nil
		return nil
	}
	var (
		out  JumpButtons
		errs []error
	)
	pos := make(map[string]int)
	err := eachField(data, func(label string, raw json.RawMessage) error {
		btn := JumpButton{Label: label}
		err := eachField(raw, func(col string, termRaw json.RawMessage) error {
			terms, err := decodeTerms(termRaw)
			if err != nil {
				return fmt.Errorf("column %q: %w", col, err)
			}
			btn.Rules = append(btn.Rules, JumpRule{Column: col, Terms: terms})
			return nil
		})
		if err != nil {
			if errors.Is(err, errRowNotObject) {
				err = errJumpGroupNotObject
			}
			errs = append(errs, fmt.Errorf("jump button %q: %w", label, err))
			return nil
		}
		if i, dup := pos[label]; dup {
			out[i] = btn
			return nil
		}
		pos[label] = len(out)
		out = append(out, btn)
		return nil
	})
	if errors.Is(err, errRowNotObject) {
		err = errJumpButtonsNotObject
	}
	*jb = out
	return errors.Join(append(errs, err)...)
}

// decodeTerms accepts a scalar or a list of scalars.
func decodeTerms(raw json.RawMessage) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		list = []any{v}
	}
	for _, t := range list {
		switch t.(type) {
		case map[string]any, []any:
			return nil, errJumpTermNotScalar
		}
	}
	return list, nil
}

type jumpTerm struct {
	raw   string
	lower string
	num   float64
	isNum bool
}

func newJumpTerm(v any) jumpTerm {
	s := CellString(v)
	t := jumpTerm{raw: s, lower: strings.ToLower(s)}
	t.num, t.isNum = parseNumber(s)
	return t
}

// Constraint is a compiled JumpRule.
type Constraint struct {
	Ref   ColumnRef
	terms []jumpTerm
}

func (c *Constraint) match(row Row, orig, visible int) bool {
	if c.Ref.IsIndex() {
		p := c.Ref.position(orig, visible)
		for _, t := range c.terms {
			if t.isNum {
				if float64(p) == t.num {
					return true
				}
			} else if t.raw == strconv.Itoa(p) {
				return true
			}
		}
		return false
	}
	cell := strings.ToLower(row.String(c.Ref.Name))
	for _, t := range c.terms {
		if strings.Contains(cell, t.lower) {
			return true
		}
	}
	return false
}

// RuleGroup is a compiled jump button.
type RuleGroup struct {
	Label       string
	Constraints []Constraint
}

// Match reports whether the row satisfies every constraint of the group.
func (g *RuleGroup) Match(row Row, orig, visible int) bool {
	for i := range g.Constraints {
		if !g.Constraints[i].match(row, orig, visible) {
			return false
		}
	}
	return true
}

// CompileJumpRules resolves column tokens and pre-normalizes terms.
func CompileJumpRules(buttons JumpButtons) []RuleGroup {
	groups := make([]RuleGroup, 0, len(buttons))
	for _, b := range buttons {
		g := RuleGroup{Label: b.Label}
		for _, r := range b.Rules {
			c := Constraint{Ref: ParseColumnRef(r.Column)}
			for _, t := range r.Terms {
				c.terms = append(c.terms, newJumpTerm(t))
			}
			g.Constraints = append(g.Constraints, c)
		}
		groups = append(groups, g)
	}
	return groups
}

// MatchSet holds, per group, the ascending visible positions of its matches.
type MatchSet struct {
	labels    []string
	positions map[string][]int
	originals map[string][]int
}

// JumpEntry is one match of a group: where it sits now and in the host data.
type JumpEntry struct {
	Visible  int
	Original int
}

// JumpInfo describes a jump button for display.
type JumpInfo struct {
	Label  string
	Count  int
	Hotkey string
	Flash  bool
}

// ComputeMatches evaluates groups against the visible rows. originalIndex
// maps visible positions to host positions; missing entries fall back to the
// visible position.
func ComputeMatches(visible []Row, originalIndex []int, groups []RuleGroup) MatchSet {
	m := MatchSet{
		positions: make(map[string][]int, len(groups)),
		originals: make(map[string][]int, len(groups)),
	}
	for gi := range groups {
		g := &groups[gi]
		pos := []int{}
		orig := []int{}
		for i, row := range visible {
			o := i
			if i < len(originalIndex) {
				o = originalIndex[i]
			}
			if g.Match(row, o, i) {
				pos = append(pos, i)
				orig = append(orig, o)
			}
		}
		if _, dup := m.positions[g.Label]; !dup {
			m.labels = append(m.labels, g.Label)
		}
		m.positions[g.Label] = pos
		m.originals[g.Label] = orig
	}
	return m
}

// Labels returns every group label in declared order.
func (m MatchSet) Labels() []string {
	return slices.Clone(m.labels)
}

// Positions returns the visible positions matched by label.
func (m MatchSet) Positions(label string) []int {
	return slices.Clone(m.positions[label])
}

// Count returns the number of matches for label.
func (m MatchSet) Count(label string) int {
	return len(m.positions[label])
}

// Entries returns label's matches with their original indices, for the
// "view all" list.
func (m MatchSet) Entries(label string) []JumpEntry {
	pos := m.positions[label]
	out := make([]JumpEntry, len(pos))
	for i, p := range pos {
		out[i] = JumpEntry{Visible: p, Original: m.originals[label][i]}
	}
	return out
}

// Actionable returns the groups with at least one match, in declared order.
// Groups with no matches must not be offered as controls.
func (m MatchSet) Actionable() []JumpInfo {
	var out []JumpInfo
	for _, l := range m.labels {
		if n := len(m.positions[l]); n > 0 {
			out = append(out, JumpInfo{Label: l, Count: n})
		}
	}
	return out
}

// Advance returns label's next match after current, wrapping to the first.
// current < 0 means no selection.
func (m MatchSet) Advance(label string, current int) (int, bool) {
	return Advance(m.positions[label], current)
}

// Advance picks the smallest position strictly greater than current, or the
// first position when there is none. positions must be ascending.
func Advance(positions []int, current int) (int, bool) {
	if len(positions) == 0 {
		return 0, false
	}
	if current >= 0 {
		i := sort.SearchInts(positions, current+1)
		if i < len(positions) {
			return positions[i], true
		}
	}
	return positions[0], true
}

// DefaultFlashDuration is how long a jump button stays highlighted.
const DefaultFlashDuration = 600 * time.Millisecond

// Flash is the transient highlight of the last invoked jump button.
// Triggering again cancels the pending clear and restarts it.
type Flash struct {
	mu       sync.Mutex
	timer    Timer
	label    string
	duration time.Duration
	onClear  func()
	stopped  bool
}

// NewFlash creates a flash indicator on clock. onClear runs after the
// highlight is removed by the timer; it may be nil.
func NewFlash(clock Clock, d time.Duration, onClear func()) *Flash {
	if d <= 0 {
		d = DefaultFlashDuration
	}
	return &Flash{timer: Timer{clock: clock}, duration: d, onClear: onClear}
}

// Trigger highlights label and (re)starts the clear timer.
func (f *Flash) Trigger(label string) {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.label = label
	f.mu.Unlock()

	f.timer.Schedule(f.duration, func() {
		f.mu.Lock()
		cleared := f.label == label
		if cleared {
			f.label = ""
		}
		f.mu.Unlock()
		if cleared && f.onClear != nil {
			f.onClear()
		}
	})
}

// Label returns the highlighted label, "" when none.
func (f *Flash) Label() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.label
}

// Cancel drops the highlight and any pending clear. Safe to call repeatedly.
func (f *Flash) Cancel() {
	if f == nil {
		return
	}
	f.timer.Cancel()
	f.mu.Lock()
	f.label = ""
	f.mu.Unlock()
}

// Stop cancels the flash for good: later Triggers are ignored.
func (f *Flash) Stop() {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.stopped = true
	f.label = ""
	f.mu.Unlock()
	f.timer.Stop()
}

// hotkeyChars are the keys handed out to jump buttons: digits first, then
// home row letters.
var hotkeyChars = []rune{
	'1', '2', '3', '4', '5', '6', '7', '8', '9',
	'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l',
	'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p',
}

// GenerateLabels creates n unique hotkey labels. Small sets get single
// characters, larger sets two characters.
func GenerateLabels(n int) []string {
	if n <= 0 {
		return nil
	}
	labels := make([]string, 0, n)
	if n <= len(hotkeyChars) {
		for _, r := range hotkeyChars[:n] {
			labels = append(labels, string(r))
		}
		return labels
	}
	for _, first := range hotkeyChars {
		for _, second := range hotkeyChars {
			if len(labels) == n {
				return labels
			}
			labels = append(labels, string(first)+string(second))
		}
	}
	return labels
}
