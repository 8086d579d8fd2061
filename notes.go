package shortlog

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Severity of a note.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	}
	return "info"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity lower-cases s and maps it to a severity; anything
// unrecognised is info.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn":
		return SeverityWarn
	case "error":
		return SeverityError
	}
	return SeverityInfo
}

// Note is a resolved, display-ready annotation.
type Note struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// NoteValue is the raw note input: NoteText, LeveledNote or NoteList.
type NoteValue interface {
	isNote()
}

// NoteText is a bare string note, always info.
type NoteText string

// LeveledNote is a note object with an optional level.
type LeveledNote struct {
	Text  string `json:"text"`
	Level string `json:"level,omitempty"`
}

// NoteList is an ordered sequence of notes.
type NoteList []NoteValue

func (NoteText) isNote()    {}
func (LeveledNote) isNote() {}
func (NoteList) isNote()    {}

// NoteInput holds a NoteValue decoded from host JSON: a string, an object,
// a list of either, or null.
type NoteInput struct {
	Value NoteValue
}

// UnmarshalJSON decodes any of the accepted shapes. Values of other shapes
// decode to no note rather than an error.
func (n *NoteInput) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	n.Value = NoteFromAny(v)
	return nil
}

// NoteFromAny converts generically decoded data (JSON or TOML) into a
// NoteValue. Unusable shapes yield nil.
func NoteFromAny(v any) NoteValue {
	switch x := v.(type) {
	case string:
		return NoteText(x)
	case map[string]any:
		return LeveledNote{Text: CellString(x["text"]), Level: CellString(x["level"])}
	case []any:
		list := make(NoteList, 0, len(x))
		for _, e := range x {
			if nv := NoteFromAny(e); nv != nil {
				list = append(list, nv)
			}
		}
		return list
	case []map[string]any:
		list := make(NoteList, 0, len(x))
		for _, e := range x {
			list = append(list, NoteFromAny(e))
		}
		return list
	}
	return nil
}

// ResolveNotes normalizes v to a list of notes, dropping entries whose text
// is empty after trimming. nil resolves to an empty list.
func ResolveNotes(v NoteValue) []Note {
	out := []Note{}
	var walk func(NoteValue)
	walk = func(v NoteValue) {
		switch x := v.(type) {
		case NoteText:
			if strings.TrimSpace(string(x)) != "" {
				out = append(out, Note{Text: string(x), Severity: SeverityInfo})
			}
		case LeveledNote:
			if strings.TrimSpace(x.Text) != "" {
				out = append(out, Note{Text: x.Text, Severity: ParseSeverity(x.Level)})
			}
		case NoteList:
			for _, e := range x {
				walk(e)
			}
		}
	}
	walk(v)
	return out
}
