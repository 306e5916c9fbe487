package core

import "testing"

func TestRectOverlapsX(t *testing.T) {
	bird := NewRect(50, 0, 30, 30)

	tests := []struct {
		name     string
		pipeX    int32
		expected bool
	}{
		{"pipe ends exactly at bird left edge", -10, false},
		{"pipe ends one pixel into bird", -9, true},
		{"pipe starts one pixel before bird right edge", 79, true},
		{"pipe starts at bird right edge", 80, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pipe := NewRect(tc.pipeX, 0, 60, 400)
			if got := bird.OverlapsX(pipe); got != tc.expected {
				t.Errorf("OverlapsX(x=%d) = %v, expected %v", tc.pipeX, got, tc.expected)
			}
		})
	}
}

func TestRectWithinY(t *testing.T) {
	if !NewRect(0, 125, 30, 30).WithinY(125, 275) {
		t.Error("span touching the top bound should be within")
	}
	if !NewRect(0, 245, 30, 30).WithinY(125, 275) {
		t.Error("span touching the bottom bound should be within")
	}
	if NewRect(0, 124, 30, 30).WithinY(125, 275) {
		t.Error("span above the top bound should not be within")
	}
	if NewRect(0, 246, 30, 30).WithinY(125, 275) {
		t.Error("span below the bottom bound should not be within")
	}
}

func TestFixedPixelsTruncates(t *testing.T) {
	tests := []struct {
		in       Fixed
		expected int32
	}{
		{200600, 200},
		{999, 0},
		{-999, 0},
		{-1000, -1},
		{-1500, -1},
	}

	for _, tc := range tests {
		if got := tc.in.Pixels(); got != tc.expected {
			t.Errorf("Fixed(%d).Pixels() = %d, expected %d", tc.in, got, tc.expected)
		}
	}
}

func TestFixedClamp(t *testing.T) {
	if got := Fixed(15600).Clamp(15000); got != 15000 {
		t.Errorf("Clamp above = %d, expected 15000", got)
	}
	if got := Fixed(-15600).Clamp(15000); got != -15000 {
		t.Errorf("Clamp below = %d, expected -15000", got)
	}
	if got := Fixed(-8400).Clamp(15000); got != -8400 {
		t.Errorf("Clamp inside = %d, expected -8400", got)
	}
	if ToFixed(200) != 200000 {
		t.Errorf("ToFixed(200) = %d", ToFixed(200))
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, expected int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
	}

	for _, tc := range tests {
		if got := Clamp(tc.val, tc.min, tc.max); got != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.min, tc.max, got, tc.expected)
		}
	}
}

func TestMinMax(t *testing.T) {
	if Min(5, 10) != 5 || Min(10, 5) != 5 {
		t.Error("Min should return the smaller value")
	}
	if Max(5, 10) != 10 || Max(10, 5) != 10 {
		t.Error("Max should return the larger value")
	}
}
