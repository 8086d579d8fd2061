package shortlog

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func decodeButtons(t *testing.T, src string) JumpButtons {
	t.Helper()
	var jb JumpButtons
	if err := json.Unmarshal([]byte(src), &jb); err != nil {
		t.Fatalf("decode jump buttons: %v", err)
	}
	return jb
}

func TestJumpButtonsDecode(t *testing.T) {
	jb := decodeButtons(t, `{"Error":{"lvl":["ERROR","FATAL"]},"Row 10":{"rowIndex":10},"Error":{"lvl":"ERR"}}`)
	if len(jb) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(jb))
	}
	if jb[0].Label != "Error" || jb[1].Label != "Row 10" {
		t.Errorf("expected declared order [Error, Row 10], got [%s, %s]", jb[0].Label, jb[1].Label)
	}
	if len(jb[0].Rules) != 1 || len(jb[0].Rules[0].Terms) != 1 {
		t.Errorf("expected later duplicate to replace the group, got %+v", jb[0])
	}
	if jb[1].Rules[0].Column != "rowIndex" || CellString(jb[1].Rules[0].Terms[0]) != "10" {
		t.Errorf("unexpected rule %+v", jb[1].Rules[0])
	}

	if got := decodeButtons(t, `null`); got != nil {
		t.Errorf("expected nil for null, got %v", got)
	}

	var bad JumpButtons
	if err := json.Unmarshal([]byte(`{"x":[1]}`), &bad); err == nil {
		t.Error("expected error for non-object group")
	}
}

func TestJumpButtonsDecodeSkipsMalformedGroup(t *testing.T) {
	var jb JumpButtons
	err := jb.UnmarshalJSON([]byte(`{"Error":{"lvl":"ERROR"},"Bad":"oops","Slow":{"msg":{"x":1}},"Warn":{"lvl":"WARN"}}`))
	if !errors.Is(err, errJumpGroupNotObject) {
		t.Errorf("expected group error, got %v", err)
	}
	if !errors.Is(err, errJumpTermNotScalar) {
		t.Errorf("expected term error, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), `"Bad"`) || !strings.Contains(err.Error(), `"Slow"`) {
		t.Errorf("expected both bad labels reported, got %v", err)
	}
	if len(jb) != 2 || jb[0].Label != "Error" || jb[1].Label != "Warn" {
		t.Fatalf("expected [Error Warn] kept, got %+v", jb)
	}

	err = jb.UnmarshalJSON([]byte(`[1, 2]`))
	if !errors.Is(err, errJumpButtonsNotObject) {
		t.Errorf("expected top-level error, got %v", err)
	}
	if jb != nil {
		t.Errorf("expected no buttons, got %v", jb)
	}
}

func TestParseColumnRef(t *testing.T) {
	tests := []struct {
		token string
		kind  RefKind
	}{
		{"rowIndex", RefOriginalIndex},
		{"INDEX", RefOriginalIndex},
		{"__index", RefOriginalIndex},
		{"filteredIndex", RefVisibleIndex},
		{"__FilteredIndex", RefVisibleIndex},
		{"lvl", RefColumn},
		{"indexes", RefColumn},
	}
	for _, tt := range tests {
		if got := ParseColumnRef(tt.token); got.Kind != tt.kind {
			t.Errorf("ParseColumnRef(%q): expected kind %d, got %d", tt.token, tt.kind, got.Kind)
		}
	}
}

func TestComputeMatches(t *testing.T) {
	rows := []Row{
		MakeRow("lvl", "INFO", "svc", "api"),
		MakeRow("lvl", "WARN", "svc", "db"),
		MakeRow("lvl", "ERROR", "svc", "api"),
		MakeRow("lvl", "INFO", "svc", "db"),
	}
	orig := []int{0, 1, 2, 3}

	t.Run("error example", func(t *testing.T) {
		groups := CompileJumpRules(decodeButtons(t, `{"Error":{"lvl":"ERROR"}}`))
		m := ComputeMatches(rows, orig, groups)
		if got := m.Positions("Error"); !reflect.DeepEqual(got, []int{2}) {
			t.Fatalf("expected [2], got %v", got)
		}
		if p, ok := m.Advance("Error", -1); !ok || p != 2 {
			t.Errorf("expected advance from none to 2, got %d %v", p, ok)
		}
		if p, _ := m.Advance("Error", 2); p != 2 {
			t.Errorf("expected advance from 2 to wrap to 2, got %d", p)
		}
	})

	t.Run("terms are substrings and case insensitive", func(t *testing.T) {
		groups := CompileJumpRules(decodeButtons(t, `{"Problems":{"lvl":["warn","err"]}}`))
		m := ComputeMatches(rows, orig, groups)
		if got := m.Positions("Problems"); !reflect.DeepEqual(got, []int{1, 2}) {
			t.Errorf("expected [1 2], got %v", got)
		}
	})

	t.Run("constraints combine with and", func(t *testing.T) {
		groups := CompileJumpRules(decodeButtons(t, `{"API info":{"lvl":"info","svc":"api"}}`))
		m := ComputeMatches(rows, orig, groups)
		if got := m.Positions("API info"); !reflect.DeepEqual(got, []int{0}) {
			t.Errorf("expected [0], got %v", got)
		}
	})

	t.Run("original index compares numerically", func(t *testing.T) {
		groups := CompileJumpRules(decodeButtons(t, `{"Row 3":{"rowIndex":[3.0]},"Str":{"index":"01"}}`))
		// visible set is rows 1 and 3 only
		m := ComputeMatches([]Row{rows[1], rows[3]}, []int{1, 3}, groups)
		if got := m.Positions("Row 3"); !reflect.DeepEqual(got, []int{1}) {
			t.Errorf("expected visible position [1], got %v", got)
		}
		if got := m.Entries("Row 3"); !reflect.DeepEqual(got, []JumpEntry{{Visible: 1, Original: 3}}) {
			t.Errorf("unexpected entries %v", got)
		}
		if m.Count("Str") != 1 {
			t.Errorf("expected numeric string term to match index 1, got %d", m.Count("Str"))
		}
	})

	t.Run("filtered index refers to visible position", func(t *testing.T) {
		groups := CompileJumpRules(decodeButtons(t, `{"First":{"filteredIndex":0}}`))
		m := ComputeMatches([]Row{rows[2], rows[3]}, []int{2, 3}, groups)
		if got := m.Positions("First"); !reflect.DeepEqual(got, []int{0}) {
			t.Errorf("expected [0], got %v", got)
		}
	})

	t.Run("missing original index falls back to visible", func(t *testing.T) {
		groups := CompileJumpRules(decodeButtons(t, `{"R1":{"rowIndex":1}}`))
		m := ComputeMatches(rows, nil, groups)
		if got := m.Positions("R1"); !reflect.DeepEqual(got, []int{1}) {
			t.Errorf("expected [1], got %v", got)
		}
	})

	t.Run("empty terms never match", func(t *testing.T) {
		groups := CompileJumpRules(decodeButtons(t, `{"None":{"lvl":[]},"All":{}}`))
		m := ComputeMatches(rows, orig, groups)
		if m.Count("None") != 0 {
			t.Errorf("expected no matches for empty term list, got %d", m.Count("None"))
		}
		if m.Count("All") != len(rows) {
			t.Errorf("expected group without constraints to match all, got %d", m.Count("All"))
		}
	})

	t.Run("actionable keeps order and skips zero", func(t *testing.T) {
		groups := CompileJumpRules(decodeButtons(t, `{"Fatal":{"lvl":"FATAL"},"DB":{"svc":"db"},"Info":{"lvl":"INFO"}}`))
		m := ComputeMatches(rows, orig, groups)
		if got := m.Labels(); !reflect.DeepEqual(got, []string{"Fatal", "DB", "Info"}) {
			t.Errorf("unexpected labels %v", got)
		}
		want := []JumpInfo{{Label: "DB", Count: 2}, {Label: "Info", Count: 2}}
		if got := m.Actionable(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		if _, ok := m.Advance("Fatal", 0); ok {
			t.Error("expected no advance for empty group")
		}
		if _, ok := m.Advance("Unknown", 0); ok {
			t.Error("expected no advance for unknown label")
		}
	})
}

func TestAdvanceCycle(t *testing.T) {
	positions := []int{1, 4, 9}

	tests := []struct {
		current int
		want    int
	}{
		{-1, 1},
		{0, 1},
		{1, 4},
		{3, 4},
		{4, 9},
		{9, 1},
		{20, 1},
	}
	for _, tt := range tests {
		if got, _ := Advance(positions, tt.current); got != tt.want {
			t.Errorf("Advance(%v, %d): expected %d, got %d", positions, tt.current, tt.want, got)
		}
	}

	// repeated advancing from no selection visits every match once then wraps
	cur := -1
	var seen []int
	for range positions {
		cur, _ = Advance(positions, cur)
		seen = append(seen, cur)
	}
	if !reflect.DeepEqual(seen, positions) {
		t.Errorf("expected cycle %v, got %v", positions, seen)
	}

	// from any start, len(positions) advances come back to the first landing
	for _, start := range []int{0, 1, 2, 4, 6, 9, 12} {
		first, _ := Advance(positions, start)
		cur := first
		visited := map[int]bool{}
		for range positions {
			visited[cur] = true
			cur, _ = Advance(positions, cur)
		}
		if cur != first {
			t.Errorf("start %d: expected to return to %d after %d steps, got %d", start, first, len(positions), cur)
		}
		if len(visited) != len(positions) {
			t.Errorf("start %d: expected every match visited, got %v", start, visited)
		}
	}
	if next, _ := Advance(positions, cur); next != positions[0] {
		t.Errorf("expected wrap to %d, got %d", positions[0], next)
	}
}

func TestFlash(t *testing.T) {
	t.Run("clears after duration", func(t *testing.T) {
		clock := &manualClock{}
		cleared := 0
		f := NewFlash(clock, 0, func() { cleared++ })
		f.Trigger("Error")
		if f.Label() != "Error" {
			t.Fatalf("expected Error lit, got %q", f.Label())
		}
		clock.Advance(DefaultFlashDuration - time.Millisecond)
		if f.Label() != "Error" {
			t.Error("expected still lit before duration")
		}
		clock.Advance(time.Millisecond)
		if f.Label() != "" || cleared != 1 {
			t.Errorf("expected cleared once, got label %q cleared %d", f.Label(), cleared)
		}
	})

	t.Run("retrigger restarts", func(t *testing.T) {
		clock := &manualClock{}
		cleared := 0
		f := NewFlash(clock, 100*time.Millisecond, func() { cleared++ })
		f.Trigger("A")
		clock.Advance(80 * time.Millisecond)
		f.Trigger("B")
		clock.Advance(80 * time.Millisecond)
		if f.Label() != "B" {
			t.Errorf("expected B still lit, got %q", f.Label())
		}
		clock.Advance(20 * time.Millisecond)
		if f.Label() != "" || cleared != 1 {
			t.Errorf("expected single clear, got label %q cleared %d", f.Label(), cleared)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		clock := &manualClock{}
		cleared := 0
		f := NewFlash(clock, 100*time.Millisecond, func() { cleared++ })
		f.Trigger("A")
		f.Cancel()
		f.Cancel()
		clock.Advance(time.Second)
		if f.Label() != "" || cleared != 0 {
			t.Errorf("expected silent cancel, got label %q cleared %d", f.Label(), cleared)
		}
		var nilFlash *Flash
		nilFlash.Cancel()
	})
}

func TestGenerateLabels(t *testing.T) {
	if got := GenerateLabels(0); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	got := GenerateLabels(3)
	if !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}

	n := len(hotkeyChars) + 5
	labels := GenerateLabels(n)
	if len(labels) != n {
		t.Fatalf("expected %d labels, got %d", n, len(labels))
	}
	seen := make(map[string]bool)
	for _, l := range labels {
		if len(l) != 2 {
			t.Errorf("expected two character label, got %q", l)
		}
		if seen[l] {
			t.Errorf("duplicate label %q", l)
		}
		seen[l] = true
	}
}
