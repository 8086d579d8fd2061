package shortlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultSelectionDebounce delays selection events sent to the host.
const DefaultSelectionDebounce = 120 * time.Millisecond

// ErrNotObject is returned when a snapshot document is not a JSON object.
var ErrNotObject = errors.New("snapshot is not an object")

// StringList decodes a scalar or a list of scalars into strings.
type StringList []string

// UnmarshalJSON accepts "a", 1, ["a", 2] and null.
func (l *StringList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*l = nil
	case []any:
		out := make(StringList, 0, len(x))
		for _, e := range x {
			out = append(out, CellString(e))
		}
		*l = out
	default:
		*l = StringList{CellString(x)}
	}
	return nil
}

// FilterConfig names the filterable columns and their initial selections.
type FilterConfig struct {
	Columns StringList            `json:"columns,omitempty"`
	Initial map[string]StringList `json:"initial,omitempty"`
}

// SearchConfig names the searchable columns (all when empty) and the initial
// query.
type SearchConfig struct {
	Columns     StringList `json:"columns,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
	Initial     string     `json:"initial,omitempty"`
}

// TableData is the {records, columns} shape hosts use for row sets.
type TableData struct {
	Records []Row      `json:"records"`
	Columns StringList `json:"columns,omitempty"`
}

// Snapshot is one host update. Every update carries the full row set.
type Snapshot struct {
	Rows                []Row
	Columns             []string
	FilterConfig        FilterConfig
	SearchConfig        SearchConfig
	JumpButtons         JumpButtons
	StyleRules          []StyleRule
	AlarmNote           NoteInput
	Layout              *Layout
	SelectionDebounceMs *int
	InitialIndex        *int // original index to select on the first update
}

// ResolvedColumns returns the explicit columns, or the union of row keys.
func (s *Snapshot) ResolvedColumns() []string {
	if len(s.Columns) > 0 {
		return s.Columns
	}
	return DeriveColumns(s.Rows)
}

// Debounce returns the selection debounce delay.
func (s *Snapshot) Debounce() time.Duration {
	if s.SelectionDebounceMs == nil {
		return DefaultSelectionDebounce
	}
	ms := *s.SelectionDebounceMs
	switch {
	case ms <= 0:
		return 0
	case int64(ms) > maxDebounceMs:
		return time.Duration(maxDebounceMs) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

const maxDebounceMs = int64(math.MaxInt64 / time.Millisecond)

// snapshotIntLimit bounds integer fields decoded from JSON numbers.
const snapshotIntLimit = math.MaxInt32

// FieldError reports a snapshot field that could not be used. The field is
// left empty and the rest of the snapshot still applies.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("snapshot field %q: %v", e.Field, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

type snapshotField struct {
	names  []string
	decode func(s *Snapshot, raw json.RawMessage) error
}

// snapshotFields lists each field with the names hosts send it under. The
// first name present wins.
var snapshotFields = []snapshotField{
	{[]string{"rows", "records", "error_log_short"}, decodeRows},
	{[]string{"columns"}, func(s *Snapshot, raw json.RawMessage) error {
		var cols StringList
		if err := json.Unmarshal(raw, &cols); err != nil {
			return err
		}
		if len(cols) > 0 {
			s.Columns = cols
		}
		return nil
	}},
	{[]string{"filterConfig", "filter_config"}, func(s *Snapshot, raw json.RawMessage) error {
		return json.Unmarshal(raw, &s.FilterConfig)
	}},
	{[]string{"searchConfig", "search_config"}, func(s *Snapshot, raw json.RawMessage) error {
		return json.Unmarshal(raw, &s.SearchConfig)
	}},
	{[]string{"jumpButtons", "shortlog_jump_buttons"}, func(s *Snapshot, raw json.RawMessage) error {
		var jb JumpButtons
		err := jb.UnmarshalJSON(raw)
		s.JumpButtons = jb
		return err
	}},
	{[]string{"styleRules", "shortlog_style_rules"}, decodeStyleRules},
	{[]string{"alarmNote", "shortlog_alarm_note"}, func(s *Snapshot, raw json.RawMessage) error {
		return json.Unmarshal(raw, &s.AlarmNote)
	}},
	{[]string{"layout", "shortlog_layout"}, func(s *Snapshot, raw json.RawMessage) error {
		return json.Unmarshal(raw, &s.Layout)
	}},
	{[]string{"selectionDebounceMs", "shortlog_debounce_ms"}, func(s *Snapshot, raw json.RawMessage) error {
		n, err := decodeInt(raw)
		if err != nil || n == nil {
			return err
		}
		if *n < 0 {
			*n = 0
		}
		s.SelectionDebounceMs = n
		return nil
	}},
	{[]string{"initialIndex", "initial_index"}, func(s *Snapshot, raw json.RawMessage) error {
		n, err := decodeInt(raw)
		if err != nil {
			return err
		}
		s.InitialIndex = n
		return nil
	}},
}

// ParseSnapshot decodes a host snapshot. Only a document that is not an
// object fails; unusable fields are left empty and reported as FieldErrors.
func ParseSnapshot(data []byte) (Snapshot, []FieldError, error) {
	var s Snapshot
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return s, nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	var problems []FieldError
	for _, f := range snapshotFields {
		for _, name := range f.names {
			raw, ok := fields[name]
			if !ok {
				continue
			}
			if err := f.decode(&s, raw); err != nil {
				problems = append(problems, FieldError{Field: name, Err: err})
			}
			break
		}
	}
	return s, problems, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeRows accepts an array of row objects or a {records, columns} table.
// Elements that are not objects are skipped.
func decodeRows(s *Snapshot, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || isNull(trimmed) {
		return nil
	}
	switch trimmed[0] {
	case '{':
		var elems struct {
			Records []json.RawMessage `json:"records"`
			Columns StringList        `json:"columns"`
		}
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return err
		}
		if len(elems.Columns) > 0 && len(s.Columns) == 0 {
			s.Columns = elems.Columns
		}
		return decodeRowElems(s, elems.Records)
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return err
		}
		return decodeRowElems(s, elems)
	}
	return errors.New("rows must be an array or a {records, columns} object")
}

func decodeRowElems(s *Snapshot, elems []json.RawMessage) error {
	rows := make([]Row, 0, len(elems))
	var errs []error
	for i, e := range elems {
		var r Row
		if err := r.UnmarshalJSON(e); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		rows = append(rows, r)
	}
	s.Rows = rows
	return errors.Join(errs...)
}

// decodeStyleRules keeps every well-formed rule and skips the rest.
func decodeStyleRules(s *Snapshot, raw json.RawMessage) error {
	if isNull(raw) {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return err
	}
	var errs []error
	for i, e := range elems {
		var r StyleRule
		if err := json.Unmarshal(e, &r); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		s.StyleRules = append(s.StyleRules, r)
	}
	return errors.Join(errs...)
}

func decodeInt(raw json.RawMessage) (*int, error) {
	if isNull(raw) {
		return nil, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return nil, err
	}
	f, err := num.Float64()
	if err != nil {
		return nil, err
	}
	n := int(max(min(f, snapshotIntLimit), -snapshotIntLimit))
	return &n, nil
}
