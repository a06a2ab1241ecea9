package textinput

import "testing"

func caret(text string, at int) EditingState {
	return EditingState{Text: text, SelectionBase: at, SelectionExtent: at, ComposingBase: -1, ComposingExtent: -1}
}

func selection(text string, base, extent int) EditingState {
	s := caret(text, base)
	s.SelectionExtent = extent
	return s
}

func TestEditingState_Edits(t *testing.T) {
	tests := []struct {
		name       string
		state      EditingState
		edit       func(*EditingState)
		wantText   string
		wantBase   int
		wantExtent int
	}{
		{"insert at caret", caret("ac", 1), func(s *EditingState) { s.Insert("b") }, "abc", 2, 2},
		{"insert replaces selection", selection("hello", 1, 4), func(s *EditingState) { s.Insert("ipp") }, "hippo", 4, 4},
		{"insert reversed selection", selection("hello", 4, 1), func(s *EditingState) { s.Insert("") }, "ho", 1, 1},
		{"backspace", caret("abc", 2), func(s *EditingState) { s.Backspace() }, "ac", 1, 1},
		{"backspace at start", caret("abc", 0), func(s *EditingState) { s.Backspace() }, "abc", 0, 0},
		{"backspace selection", selection("abcd", 1, 3), func(s *EditingState) { s.Backspace() }, "ad", 1, 1},
		{"backspace surrogate pair", caret("a😀", 3), func(s *EditingState) { s.Backspace() }, "a", 1, 1},
		{"delete", caret("abc", 1), func(s *EditingState) { s.Delete() }, "ac", 1, 1},
		{"delete at end", caret("abc", 3), func(s *EditingState) { s.Delete() }, "abc", 3, 3},
		{"delete surrogate pair", caret("😀b", 0), func(s *EditingState) { s.Delete() }, "b", 0, 0},
		{"insert clamps caret", caret("ab", 10), func(s *EditingState) { s.Insert("c") }, "abc", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state
			tt.edit(&s)
			if s.Text != tt.wantText || s.SelectionBase != tt.wantBase || s.SelectionExtent != tt.wantExtent {
				t.Fatalf("got %q [%d,%d], want %q [%d,%d]",
					s.Text, s.SelectionBase, s.SelectionExtent, tt.wantText, tt.wantBase, tt.wantExtent)
			}
		})
	}
}

func TestEditingState_Movement(t *testing.T) {
	tests := []struct {
		name       string
		state      EditingState
		move       func(*EditingState)
		wantBase   int
		wantExtent int
	}{
		{"left", caret("abc", 2), func(s *EditingState) { s.MoveLeft(0) }, 1, 1},
		{"left at start", caret("abc", 0), func(s *EditingState) { s.MoveLeft(0) }, 0, 0},
		{"left collapses selection", selection("abcd", 1, 3), func(s *EditingState) { s.MoveLeft(0) }, 1, 1},
		{"shift left extends", caret("abc", 2), func(s *EditingState) { s.MoveLeft(Shift) }, 2, 1},
		{"right", caret("abc", 1), func(s *EditingState) { s.MoveRight(0) }, 2, 2},
		{"right collapses selection", selection("abcd", 3, 1), func(s *EditingState) { s.MoveRight(0) }, 3, 3},
		{"shift right extends", caret("abc", 0), func(s *EditingState) { s.MoveRight(Shift) }, 0, 1},
		{"right over surrogate pair", caret("😀", 0), func(s *EditingState) { s.MoveRight(0) }, 2, 2},
		{"word left", caret("one two three", 11), func(s *EditingState) { s.MoveLeft(Word) }, 8, 8},
		{"word left skips spaces", caret("one two", 4), func(s *EditingState) { s.MoveLeft(Word) }, 0, 0},
		{"word right", caret("one two three", 4), func(s *EditingState) { s.MoveRight(Word) }, 7, 7},
		{"shift word right", caret("one two", 0), func(s *EditingState) { s.MoveRight(Shift | Word) }, 0, 3},
		{"home", caret("abc", 2), func(s *EditingState) { s.Home(0) }, 0, 0},
		{"shift home", caret("abc", 2), func(s *EditingState) { s.Home(Shift) }, 2, 0},
		{"end", caret("abc", 1), func(s *EditingState) { s.End(0) }, 3, 3},
		{"shift end", caret("abc", 1), func(s *EditingState) { s.End(Shift) }, 1, 3},
		{"select all", caret("abc", 1), (*EditingState).SelectAll, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state
			tt.move(&s)
			if s.SelectionBase != tt.wantBase || s.SelectionExtent != tt.wantExtent {
				t.Fatalf("got [%d,%d], want [%d,%d]", s.SelectionBase, s.SelectionExtent, tt.wantBase, tt.wantExtent)
			}
		})
	}
}

func TestEditingState_SelectedText(t *testing.T) {
	s := selection("héllo 😀 world", 6, 8)
	if got := s.SelectedText(); got != "😀" {
		t.Fatalf("SelectedText = %q, want emoji", got)
	}
	if !s.DeleteSelected() {
		t.Fatal("DeleteSelected reported no change")
	}
	if s.Text != "héllo  world" {
		t.Fatalf("Text = %q", s.Text)
	}
	if s.DeleteSelected() {
		t.Fatal("DeleteSelected changed an empty selection")
	}
	if s.Len() != 12 {
		t.Fatalf("Len = %d, want 12", s.Len())
	}
}

func TestEditingState_CollapseClearsComposing(t *testing.T) {
	s := EditingState{Text: "ab", SelectionBase: 1, SelectionExtent: 1, ComposingBase: 0, ComposingExtent: 2}
	s.Insert("x")
	if s.ComposingBase != -1 || s.ComposingExtent != -1 {
		t.Fatalf("composing = [%d,%d], want [-1,-1]", s.ComposingBase, s.ComposingExtent)
	}
}
