package source

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/kungfusheep/shortlog"
)

// ReadCSV reads delimited text whose first record is the header. Short
// records leave their trailing cells empty; extra fields are dropped.
func ReadCSV(r io.Reader, comma rune) (Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := Table{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			t.Skipped++
			continue
		}
		if err != nil {
			return Table{}, err
		}
		values := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(record) {
				values[h] = record[i]
			}
		}
		t.Rows = append(t.Rows, shortlog.NewRow(header, values))
	}
	return t, nil
}
