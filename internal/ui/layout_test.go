package ui

import "testing"

func TestDetermineLayoutMode(t *testing.T) {
	cases := []struct {
		cols, rows int
		want       LayoutMode
	}{
		{79, 40, LayoutTooSmall},
		{120, 23, LayoutTooSmall},
		{120, 30, LayoutWide},
		{200, 50, LayoutWide},
		{100, 28, LayoutMedium},
		{119, 30, LayoutMedium},
	}
	for _, tc := range cases {
		if got := DetermineLayoutMode(tc.cols, tc.rows); got != tc.want {
			t.Fatalf("DetermineLayoutMode(%d, %d) = %v, want %v", tc.cols, tc.rows, got, tc.want)
		}
	}
}
