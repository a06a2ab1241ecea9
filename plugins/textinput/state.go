package textinput

import (
	"unicode"
	"unicode/utf16"
)

// Modifiers alter cursor movement.
type Modifiers uint8

const (
	// Shift extends the selection instead of collapsing it.
	Shift Modifiers = 1 << iota
	// Word moves by word instead of by character.
	Word
)

// EditingState mirrors the framework's TextEditingValue. Offsets count
// UTF-16 code units.
type EditingState struct {
	Text                   string `json:"text"`
	SelectionBase          int    `json:"selectionBase"`
	SelectionExtent        int    `json:"selectionExtent"`
	SelectionAffinity      string `json:"selectionAffinity"`
	SelectionIsDirectional bool   `json:"selectionIsDirectional"`
	ComposingBase          int    `json:"composingBase"`
	ComposingExtent        int    `json:"composingExtent"`
}

func units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func fromUnits(u []uint16) string {
	return string(utf16.Decode(u))
}

// Len returns the text length in UTF-16 code units.
func (s *EditingState) Len() int {
	return len(units(s.Text))
}

// bounds returns the selection as an ordered, clamped range.
func (s *EditingState) bounds() (lo, hi int) {
	n := s.Len()
	lo, hi = clamp(s.SelectionBase, 0, n), clamp(s.SelectionExtent, 0, n)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func (s *EditingState) collapse(at int) {
	s.SelectionBase = at
	s.SelectionExtent = at
	s.SelectionIsDirectional = false
	s.ComposingBase = -1
	s.ComposingExtent = -1
}

// HasSelection reports whether a non-empty range is selected.
func (s *EditingState) HasSelection() bool {
	lo, hi := s.bounds()
	return lo != hi
}

// SelectedText returns the selected text, or "" when the selection is empty.
func (s *EditingState) SelectedText() string {
	lo, hi := s.bounds()
	return fromUnits(units(s.Text)[lo:hi])
}

// DeleteSelected removes the selected text. It reports whether anything changed.
func (s *EditingState) DeleteSelected() bool {
	lo, hi := s.bounds()
	if lo == hi {
		return false
	}
	u := units(s.Text)
	s.Text = fromUnits(append(u[:lo:lo], u[hi:]...))
	s.collapse(lo)
	return true
}

// Insert replaces the selection with text and places the caret after it.
func (s *EditingState) Insert(text string) {
	s.DeleteSelected()
	lo, _ := s.bounds()
	u := units(s.Text)
	ins := units(text)

	out := make([]uint16, 0, len(u)+len(ins))
	out = append(out, u[:lo]...)
	out = append(out, ins...)
	out = append(out, u[lo:]...)
	s.Text = fromUnits(out)
	s.collapse(lo + len(ins))
}

// Backspace deletes the selection or the character before the caret.
func (s *EditingState) Backspace() bool {
	if s.DeleteSelected() {
		return true
	}
	lo, _ := s.bounds()
	if lo == 0 {
		return false
	}
	u := units(s.Text)
	start := prevChar(u, lo)
	s.Text = fromUnits(append(u[:start:start], u[lo:]...))
	s.collapse(start)
	return true
}

// Delete deletes the selection or the character after the caret.
func (s *EditingState) Delete() bool {
	if s.DeleteSelected() {
		return true
	}
	lo, _ := s.bounds()
	u := units(s.Text)
	if lo >= len(u) {
		return false
	}
	end := nextChar(u, lo)
	s.Text = fromUnits(append(u[:lo:lo], u[end:]...))
	s.collapse(lo)
	return true
}

// MoveLeft moves the caret, or the selection extent with Shift, one step left.
func (s *EditingState) MoveLeft(mods Modifiers) {
	u := units(s.Text)
	lo, _ := s.bounds()
	extent := clamp(s.SelectionExtent, 0, len(u))

	switch {
	case mods&Shift != 0:
		s.SelectionExtent = s.step(u, extent, -1, mods)
		s.SelectionIsDirectional = true
	case s.HasSelection():
		s.collapse(lo)
	default:
		s.collapse(s.step(u, lo, -1, mods))
	}
}

// MoveRight moves the caret, or the selection extent with Shift, one step right.
func (s *EditingState) MoveRight(mods Modifiers) {
	u := units(s.Text)
	_, hi := s.bounds()
	extent := clamp(s.SelectionExtent, 0, len(u))

	switch {
	case mods&Shift != 0:
		s.SelectionExtent = s.step(u, extent, 1, mods)
		s.SelectionIsDirectional = true
	case s.HasSelection():
		s.collapse(hi)
	default:
		s.collapse(s.step(u, hi, 1, mods))
	}
}

func (s *EditingState) step(u []uint16, from, dir int, mods Modifiers) int {
	if mods&Word != 0 {
		if dir < 0 {
			return prevWord(u, from)
		}
		return nextWord(u, from)
	}
	if dir < 0 {
		return prevChar(u, from)
	}
	return nextChar(u, from)
}

// Home moves the caret, or the selection extent with Shift, to the start.
func (s *EditingState) Home(mods Modifiers) {
	if mods&Shift != 0 {
		s.SelectionExtent = 0
		s.SelectionIsDirectional = true
		return
	}
	s.collapse(0)
}

// End moves the caret, or the selection extent with Shift, to the end.
func (s *EditingState) End(mods Modifiers) {
	n := s.Len()
	if mods&Shift != 0 {
		s.SelectionExtent = n
		s.SelectionIsDirectional = true
		return
	}
	s.collapse(n)
}

// SelectAll selects the whole text.
func (s *EditingState) SelectAll() {
	s.SelectionBase = 0
	s.SelectionExtent = s.Len()
	s.SelectionIsDirectional = true
}

// prevChar steps back one code point without splitting a surrogate pair.
func prevChar(u []uint16, pos int) int {
	if pos <= 0 {
		return 0
	}
	pos--
	if pos > 0 && utf16.IsSurrogate(rune(u[pos])) && isHighSurrogate(u[pos-1]) {
		pos--
	}
	return pos
}

// nextChar steps forward one code point without splitting a surrogate pair.
func nextChar(u []uint16, pos int) int {
	if pos >= len(u) {
		return len(u)
	}
	if isHighSurrogate(u[pos]) && pos+1 < len(u) {
		return pos + 2
	}
	return pos + 1
}

func isHighSurrogate(c uint16) bool {
	return c >= 0xD800 && c < 0xDC00
}

func isSpace(c uint16) bool {
	return !utf16.IsSurrogate(rune(c)) && unicode.IsSpace(rune(c))
}

func prevWord(u []uint16, pos int) int {
	for pos > 0 && isSpace(u[pos-1]) {
		pos--
	}
	for pos > 0 && !isSpace(u[pos-1]) {
		pos--
	}
	return pos
}

func nextWord(u []uint16, pos int) int {
	for pos < len(u) && isSpace(u[pos]) {
		pos++
	}
	for pos < len(u) && !isSpace(u[pos]) {
		pos++
	}
	return pos
}
