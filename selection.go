package shortlog

// Selection is the active visible row: Unselected, or Selected(pos). A
// selection made by jump navigation also carries a one-shot request to
// centre the row on the next render.
type Selection struct {
	pos    int
	ok     bool
	center bool
}

// Current returns the selected position, or -1 when nothing is selected.
func (s *Selection) Current() int {
	if !s.ok {
		return -1
	}
	return s.pos
}

// Selected reports whether a row is selected.
func (s *Selection) Selected() bool {
	return s.ok
}

// SelectManual selects pos without scrolling; the user clicked a row that is
// already on screen.
func (s *Selection) SelectManual(pos int) {
	s.pos, s.ok, s.center = pos, true, false
}

// SelectJump selects pos and requests centring on the next render.
func (s *Selection) SelectJump(pos int) {
	s.pos, s.ok, s.center = pos, true, true
}

// Clear returns to Unselected.
func (s *Selection) Clear() {
	*s = Selection{}
}

// Invalidate clears the selection when pos no longer exists in a visible set
// of n rows. It reports whether the selection was cleared.
func (s *Selection) Invalidate(n int) bool {
	if s.ok && (s.pos < 0 || s.pos >= n) {
		s.Clear()
		return true
	}
	return false
}

// TakeCenter consumes the pending centre request.
func (s *Selection) TakeCenter() (int, bool) {
	if !s.ok || !s.center {
		return 0, false
	}
	s.center = false
	return s.pos, true
}
