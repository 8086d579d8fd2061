package source

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.json":     FormatJSON,
		"a.JSONL":    FormatJSONL,
		"a.ndjson":   FormatJSONL,
		"server.log": FormatJSONL,
		"x.csv":      FormatCSV,
		"x.tsv":      FormatTSV,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		if err != nil || got != want {
			t.Errorf("DetectFormat(%q): expected %q, got %q (%v)", path, want, got, err)
		}
	}
	if _, err := DetectFormat("a.xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if f, err := ParseFormat(" NDJSON "); err != nil || f != FormatJSONL {
		t.Errorf("expected jsonl, got %q %v", f, err)
	}
	if _, err := ParseFormat("yaml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestReadJSONL(t *testing.T) {
	input := `{"ts":"10:00","lvl":"INFO","msg":"boot"}

not json
{"lvl":"ERROR","msg":"fail","code":500}
[1,2]
`
	tbl, err := ReadJSONL(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Skipped != 2 {
		t.Errorf("expected 2 skipped lines, got %d", tbl.Skipped)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"ts", "lvl", "msg", "code"}) {
		t.Errorf("unexpected columns %v", tbl.Columns)
	}
	if tbl.Rows[1].String("code") != "500" {
		t.Errorf("expected code 500, got %q", tbl.Rows[1].String("code"))
	}
}

func TestReadJSON(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		tbl, err := ReadJSON(strings.NewReader(`[{"b":1,"a":2}, "skip", {"c":3}]`))
		if err != nil {
			t.Fatal(err)
		}
		if len(tbl.Rows) != 2 || tbl.Skipped != 1 {
			t.Errorf("expected 2 rows 1 skipped, got %d %d", len(tbl.Rows), tbl.Skipped)
		}
		if !reflect.DeepEqual(tbl.Columns, []string{"b", "a", "c"}) {
			t.Errorf("unexpected columns %v", tbl.Columns)
		}
	})

	t.Run("single object", func(t *testing.T) {
		tbl, err := ReadJSON(strings.NewReader(`{"x":1}`))
		if err != nil || len(tbl.Rows) != 1 {
			t.Errorf("expected one row, got %v %v", tbl.Rows, err)
		}
	})

	t.Run("falls back to lines", func(t *testing.T) {
		tbl, err := ReadJSON(strings.NewReader("{\"a\":1}\n{\"a\":2}\n"))
		if err != nil || len(tbl.Rows) != 2 {
			t.Errorf("expected two rows, got %v %v", tbl.Rows, err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		tbl, err := ReadJSON(strings.NewReader("  "))
		if err != nil || len(tbl.Rows) != 0 {
			t.Errorf("expected empty table, got %v %v", tbl, err)
		}
	})

	t.Run("scalar", func(t *testing.T) {
		if _, err := ReadJSON(strings.NewReader(`42`)); err == nil {
			t.Error("expected error for scalar document")
		}
	})
}

func TestReadCSV(t *testing.T) {
	input := "\ufefflvl, msg ,svc\nINFO,boot,api\nERROR,\"fail, hard\"\nWARN,slow,db,extra\n"
	tbl, err := ReadCSV(strings.NewReader(input), ',')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"lvl", "msg", "svc"}) {
		t.Fatalf("unexpected header %v", tbl.Columns)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tbl.Rows))
	}
	if got := tbl.Rows[1].String("msg"); got != "fail, hard" {
		t.Errorf("expected quoted field, got %q", got)
	}
	if got := tbl.Rows[1].String("svc"); got != "" {
		t.Errorf("expected short record to leave svc empty, got %q", got)
	}
	if !reflect.DeepEqual(tbl.Rows[2].Keys(), []string{"lvl", "msg", "svc"}) {
		t.Errorf("expected extra field dropped, got %v", tbl.Rows[2].Keys())
	}

	empty, err := ReadCSV(strings.NewReader(""), ',')
	if err != nil || len(empty.Rows) != 0 {
		t.Errorf("expected empty table, got %v %v", empty, err)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "rows.tsv", "a\tb\n1\t2\n")
	tbl, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0].String("b") != "2" {
		t.Errorf("unexpected rows %v", tbl.Rows)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load("rows.parquet"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
