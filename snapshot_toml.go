package shortlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// ParseSnapshotTOML decodes a snapshot written as TOML, for hosts that keep
// their widget configuration in a file:
//
//	[searchConfig]
//	columns = ["msg"]
//
//	[jumpButtons.Error]
//	lvl = ["ERROR", "FATAL"]
//
//	[[styleRules]]
//	column = "lvl"
//	equals = ["WARN"]
//	backgroundColor = "#FFF5D8"
//
// Jump buttons keep the order they are written in. Rows given as [[rows]]
// tables have their keys sorted, as TOML tables carry no order.
func ParseSnapshotTOML(data []byte) (Snapshot, []FieldError, error) {
	var doc map[string]any
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("decode toml: %w", err)
	}

	fields := make(map[string]json.RawMessage, len(doc))
	for k, v := range doc {
		var raw []byte
		if k == "jumpButtons" || k == "shortlog_jump_buttons" {
			raw, err = orderedJumpButtons(md, k, v)
		} else {
			raw, err = json.Marshal(v)
		}
		if err != nil {
			return Snapshot{}, nil, fmt.Errorf("toml field %q: %w", k, err)
		}
		fields[k] = raw
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return Snapshot{}, nil, err
	}
	return ParseSnapshot(encoded)
}

// orderedJumpButtons re-encodes the jump button table as JSON with labels and
// rule columns in document order.
func orderedJumpButtons(md toml.MetaData, key string, v any) ([]byte, error) {
	table, ok := v.(map[string]any)
	if !ok {
		return json.Marshal(v)
	}
	var labels []string
	columns := make(map[string][]string)
	for _, k := range md.Keys() {
		if len(k) < 2 || k[0] != key {
			continue
		}
		label := k[1]
		if _, seen := columns[label]; !seen {
			labels = append(labels, label)
			columns[label] = nil
		}
		if len(k) == 3 {
			columns[label] = appendUnique(columns[label], k[2])
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, label := range keyOrder(labels, table) {
		rules, ok := table[label].(map[string]any)
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		writeJSONKey(&buf, label)
		buf.WriteByte('{')
		for i, col := range keyOrder(columns[label], rules) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONKey(&buf, col)
			b, err := json.Marshal(rules[col])
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// keyOrder returns the keys of m, those listed in order first and any others
// after them, sorted.
func keyOrder[V any](order []string, m map[string]V) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range order {
		if _, ok := m[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func appendUnique(list []string, s string) []string {
	for _, e := range list {
		if e == s {
			return list
		}
	}
	return append(list, s)
}

func writeJSONKey(buf *bytes.Buffer, k string) {
	b, _ := json.Marshal(k)
	buf.Write(b)
	buf.WriteByte(':')
}
