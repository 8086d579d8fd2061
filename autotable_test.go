package shortlog

import (
	"reflect"
	"strings"
	"testing"
)

func TestEstimateWidths(t *testing.T) {
	t.Run("last column excluded", func(t *testing.T) {
		rows := []Row{MakeRow("lvl", "INFO", "msg", strings.Repeat("x", 200))}
		w := EstimateWidths(rows, []string{"lvl", "msg"}, PixelMetrics)
		if len(w) != 1 {
			t.Fatalf("expected 1 width, got %v", w)
		}
		// "INFO" is 4 chars, header "lvl" 3: 4*7+16 = 44, clamped to 60
		if w[0] != 60 {
			t.Errorf("expected 60, got %d", w[0])
		}
	})

	t.Run("single column has no fixed width", func(t *testing.T) {
		if w := EstimateWidths(nil, []string{"msg"}, PixelMetrics); w != nil {
			t.Errorf("expected nil, got %v", w)
		}
	})

	t.Run("clamped to max", func(t *testing.T) {
		rows := []Row{MakeRow("msg", strings.Repeat("y", 500), "x", 1)}
		w := EstimateWidths(rows, []string{"msg", "x"}, PixelMetrics)
		if w[0] != 420 {
			t.Errorf("expected 420, got %d", w[0])
		}
	})

	t.Run("header counts", func(t *testing.T) {
		rows := []Row{MakeRow("a_long_header_name", "x", "z", "")}
		w := EstimateWidths(rows, []string{"a_long_header_name", "z"}, PixelMetrics)
		if want := 18*7 + 16; w[0] != want {
			t.Errorf("expected %d, got %d", want, w[0])
		}
	})

	t.Run("wide runes measured in cells", func(t *testing.T) {
		rows := []Row{MakeRow("name", "日本語テキスト", "z", "")}
		w := EstimateWidths(rows, []string{"name", "z"}, CellMetrics)
		if want := 14 + 2; w[0] != want {
			t.Errorf("expected %d cells, got %d", want, w[0])
		}
	})

	t.Run("monotone in cell length", func(t *testing.T) {
		prev := 0
		for n := 0; n < 80; n++ {
			rows := []Row{MakeRow("c", strings.Repeat("w", n), "z", "")}
			w := EstimateWidths(rows, []string{"c", "z"}, PixelMetrics)[0]
			if w < prev {
				t.Fatalf("width decreased at %d: %d < %d", n, w, prev)
			}
			if w < PixelMetrics.Min || w > PixelMetrics.Max {
				t.Fatalf("width %d out of range", w)
			}
			prev = w
		}
	})
}

func TestLayout(t *testing.T) {
	var nilLayout *Layout
	fallback := []string{"a", "b"}
	if got := nilLayout.Order(fallback); !reflect.DeepEqual(got, fallback) {
		t.Errorf("expected fallback order, got %v", got)
	}

	l := &Layout{Columns: []LayoutColumn{
		{Name: "ts", WidthPx: 90},
		{Name: "lvl", WidthPx: 70, Flex: true},
		{Name: "msg"},
	}}
	order := l.Order(fallback)
	if !reflect.DeepEqual(order, []string{"ts", "lvl", "msg"}) {
		t.Fatalf("unexpected order %v", order)
	}

	est := []int{100, 100}
	got := ApplyLayout(est, order, l, PixelMetrics)
	if !reflect.DeepEqual(got, []int{90, 100}) {
		t.Errorf("expected fixed ts width and estimated flex width, got %v", got)
	}
	if est[0] != 100 {
		t.Error("expected input widths untouched")
	}

	// 90px at 7px per cell rounds up to 13 cells
	cells := ApplyLayout([]int{10, 10}, order, l, CellMetrics)
	if cells[0] != 13 {
		t.Errorf("expected 13 cells, got %d", cells[0])
	}
}

func TestTracks(t *testing.T) {
	got := Tracks([]int{60, 120})
	want := []string{"60px", "120px", "minmax(0, 1fr)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := Tracks(nil); !reflect.DeepEqual(got, []string{"minmax(0, 1fr)"}) {
		t.Errorf("expected fill track only, got %v", got)
	}
}

func TestFit(t *testing.T) {
	t.Run("fill takes remainder", func(t *testing.T) {
		got := Fit([]int{10, 20}, 100, 1)
		if !reflect.DeepEqual(got, []int{10, 20, 68}) {
			t.Errorf("expected [10 20 68], got %v", got)
		}
	})

	t.Run("shrinks on overflow", func(t *testing.T) {
		got := Fit([]int{60, 40}, 50, 0)
		sum := 0
		for _, w := range got {
			if w < 0 {
				t.Fatalf("negative width in %v", got)
			}
			sum += w
		}
		if sum != 50 {
			t.Errorf("expected widths to sum to 50, got %v", got)
		}
		if got[0] != 30 || got[1] != 20 {
			t.Errorf("expected proportional [30 20], got %v", got)
		}
	})

	t.Run("no room", func(t *testing.T) {
		got := Fit([]int{10}, 0, 1)
		if !reflect.DeepEqual(got, []int{0, 0}) {
			t.Errorf("expected zeros, got %v", got)
		}
	})
}
