package shortlog

// Viewport tracks the scroll offset of a list of equal-height rows inside a
// fixed-height window. Offsets are in the same unit as the heights (pixels
// for a browser table, lines for a terminal).
type Viewport struct {
	scrollY    int
	maxScroll  int
	rows       int
	rowHeight  int
	viewHeight int
}

// NewViewport creates a viewport for rows of rowHeight.
func NewViewport(rowHeight int) *Viewport {
	if rowHeight <= 0 {
		rowHeight = 1
	}
	return &Viewport{rowHeight: rowHeight}
}

// SetRows sets the number of rows in the list.
func (v *Viewport) SetRows(n int) {
	v.rows = n
	v.updateMaxScroll()
}

// SetHeight sets the visible window height.
func (v *Viewport) SetHeight(h int) {
	v.viewHeight = h
	v.updateMaxScroll()
}

// updateMaxScroll recalculates the maximum scroll position and clamps the
// current one to it.
func (v *Viewport) updateMaxScroll() {
	v.maxScroll = v.ContentHeight() - v.viewHeight
	if v.viewHeight <= 0 || v.maxScroll < 0 {
		v.maxScroll = 0
	}
	if v.scrollY > v.maxScroll {
		v.scrollY = v.maxScroll
	}
}

// ScrollY returns the current scroll offset.
func (v *Viewport) ScrollY() int {
	return v.scrollY
}

// MaxScroll returns the largest valid scroll offset.
func (v *Viewport) MaxScroll() int {
	return v.maxScroll
}

// ContentHeight returns the full height of the list.
func (v *Viewport) ContentHeight() int {
	return v.rows * v.rowHeight
}

// Height returns the window height.
func (v *Viewport) Height() int {
	return v.viewHeight
}

// RowHeight returns the height of one row.
func (v *Viewport) RowHeight() int {
	return v.rowHeight
}

// ScrollTo sets the scroll offset, clamping to the valid range.
func (v *Viewport) ScrollTo(y int) {
	if y > v.maxScroll {
		y = v.maxScroll
	}
	if y < 0 {
		y = 0
	}
	v.scrollY = y
}

// ScrollBy scrolls by n units (negative scrolls up).
func (v *Viewport) ScrollBy(n int) {
	v.ScrollTo(v.scrollY + n)
}

// PageDown scrolls down by one window height.
func (v *Viewport) PageDown() {
	v.ScrollBy(v.viewHeight)
}

// PageUp scrolls up by one window height.
func (v *Viewport) PageUp() {
	v.ScrollBy(-v.viewHeight)
}

// ScrollToTop scrolls to the first row.
func (v *Viewport) ScrollToTop() {
	v.scrollY = 0
}

// ScrollToEnd scrolls to the last row.
func (v *Viewport) ScrollToEnd() {
	v.scrollY = v.maxScroll
}

// EnsureVisible scrolls the least amount needed to show row.
func (v *Viewport) EnsureVisible(row int) {
	top := row * v.rowHeight
	bottom := top + v.rowHeight
	switch {
	case top < v.scrollY:
		v.ScrollTo(top)
	case bottom > v.scrollY+v.viewHeight:
		v.ScrollTo(bottom - v.viewHeight)
	}
}

// CenterOn scrolls so that row's midpoint sits at the window's midpoint.
func (v *Viewport) CenterOn(row int) {
	v.ScrollTo(CenterOffset(row*v.rowHeight, v.rowHeight, v.viewHeight, v.ContentHeight()))
}

// VisibleRange returns the first visible row and one past the last.
func (v *Viewport) VisibleRange() (int, int) {
	if v.rows == 0 || v.viewHeight <= 0 {
		return 0, v.rows
	}
	first := v.scrollY / v.rowHeight
	last := (v.scrollY + v.viewHeight + v.rowHeight - 1) / v.rowHeight
	if last > v.rows {
		last = v.rows
	}
	return first, last
}

// CenterOffset is the scroll offset that puts the midpoint of a row at
// [rowTop, rowTop+rowHeight) on the midpoint of a viewHeight window, clamped
// to [0, contentHeight-viewHeight].
func CenterOffset(rowTop, rowHeight, viewHeight, contentHeight int) int {
	y := rowTop + rowHeight/2 - viewHeight/2
	if max := contentHeight - viewHeight; y > max {
		y = max
	}
	if y < 0 {
		y = 0
	}
	return y
}
