package source

import (
	"bufio"
	"bytes"
	"io"

	"github.com/kungfusheep/shortlog"
)

// maxLineSize caps a single JSON line.
const maxLineSize = 4 * 1024 * 1024

// ReadJSONL reads one JSON object per line. Blank lines are ignored; lines
// that are not objects are counted in Skipped.
func ReadJSONL(r io.Reader) (Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var t Table
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row shortlog.Row
		if err := row.UnmarshalJSON(line); err != nil {
			t.Skipped++
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return Table{}, err
	}
	t.Columns = shortlog.DeriveColumns(t.Rows)
	return t, nil
}
