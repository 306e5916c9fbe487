package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %d, expected 80", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("Height() = %d, expected 24", s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.Get(x, y) != ' ' {
				t.Errorf("New screen should be filled with spaces, got %q at (%d, %d)", s.Get(x, y), x, y)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.SetColored(5, 5, 'X', ColorGreen)
	if s.Get(5, 5) != 'X' {
		t.Errorf("Get(5, 5) = %q, expected 'X'", s.Get(5, 5))
	}
	if s.GetCell(5, 5).Color != ColorGreen {
		t.Errorf("GetCell(5, 5).Color = %d, expected ColorGreen", s.GetCell(5, 5).Color)
	}

	// Out of bounds should be silent
	s.Set(-1, 0, 'A')
	s.Set(100, 0, 'A')
	s.Set(0, -1, 'A')
	s.Set(0, 100, 'A')

	if s.Get(-1, 0) != ' ' {
		t.Errorf("Out-of-bounds Get should return space, got %q", s.Get(-1, 0))
	}
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(5, 5)
	s.FillRect(0, 0, 5, 5, '#', ColorBrightRed)
	s.Clear()

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if c := s.GetCell(x, y); c.Rune != ' ' || c.Color != ColorDefault {
				t.Fatalf("Clear left %+v at (%d, %d)", c, x, y)
			}
		}
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(10, 2)
	s.DrawText(2, 0, "Hi")
	s.DrawText(8, 1, "clip")

	if s.Row(0) != "  Hi      " {
		t.Errorf("Row(0) = %q", s.Row(0))
	}
	if s.Row(1) != "        cl" {
		t.Errorf("Row(1) = %q, expected clipped text", s.Row(1))
	}
}

func TestScreenDrawTextCentered(t *testing.T) {
	s := NewScreen(10, 1)
	s.DrawTextCentered(0, "ab")
	if s.Row(0) != "    ab    " {
		t.Errorf("Row(0) = %q", s.Row(0))
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(4, 3)
	s.DrawBox(0, 0, 4, 3)

	want := "┌──┐\n│  │\n└──┘"
	if s.String() != want {
		t.Errorf("DrawBox produced:\n%s\nexpected:\n%s", s.String(), want)
	}
}

func TestScreenDrawHLine(t *testing.T) {
	s := NewScreen(6, 1)
	s.DrawHLine(1, 0, 3, '=', ColorGray)
	if s.Row(0) != " ===  " {
		t.Errorf("Row(0) = %q", s.Row(0))
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(4, 4)
	s.Set(1, 1, 'x')
	s.Resize(8, 2)

	if s.Width() != 8 || s.Height() != 2 {
		t.Fatalf("Resize gave %dx%d", s.Width(), s.Height())
	}
	if strings.ContainsRune(s.String(), 'x') {
		t.Error("Resize should discard old content")
	}
}
