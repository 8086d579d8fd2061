// Package source reads row sets for the short-log table from files and
// databases. Every reader keeps field order and skips records it cannot
// use instead of failing the whole load.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kungfusheep/shortlog"
)

// Table is a loaded row set.
type Table struct {
	Rows    []shortlog.Row
	Columns []string // header order when the source has one, else derived
	Skipped int      // records that could not be read
}

// Format names a file encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
)

// ErrUnknownFormat is returned for a file extension or format name that no
// reader handles.
var ErrUnknownFormat = errors.New("unknown source format")

// DetectFormat maps a file extension to its format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson", ".log":
		return FormatJSONL, nil
	case ".csv":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// ParseFormat validates a format name given on the command line.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatJSONL, FormatCSV, FormatTSV:
		return f, nil
	case "ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Load reads the file at path, choosing the reader by extension.
func Load(path string) (Table, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return Table{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	t, err := Read(file, f)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// Read decodes r as format f.
func Read(r io.Reader, f Format) (Table, error) {
	switch f {
	case FormatJSON:
		return ReadJSON(r)
	case FormatJSONL:
		return ReadJSONL(r)
	case FormatCSV:
		return ReadCSV(r, ',')
	case FormatTSV:
		return ReadCSV(r, '\t')
	}
	return Table{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// ReadJSON reads a JSON array of objects or a single object. Content that
// is not one JSON document is read as JSON lines instead.
func ReadJSON(r io.Reader) (Table, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return Table{}, nil
	}
	if !json.Valid(trimmed) {
		return ReadJSONL(bytes.NewReader(content))
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return Table{}, err
		}
		var t Table
		for _, e := range elems {
			var row shortlog.Row
			if err := row.UnmarshalJSON(e); err != nil {
				t.Skipped++
				continue
			}
			t.Rows = append(t.Rows, row)
		}
		t.Columns = shortlog.DeriveColumns(t.Rows)
		return t, nil
	case '{':
		var row shortlog.Row
		if err := row.UnmarshalJSON(trimmed); err != nil {
			return Table{}, err
		}
		return Table{Rows: []shortlog.Row{row}, Columns: row.Keys()}, nil
	}
	return Table{}, errors.New("json source must be an array or an object")
}
