package chunkmap

import (
	"errors"
	"testing"
)

func TestDefaultGridDimensions(t *testing.T) {
	g := DefaultGrid()
	if g.Cols != 48 || g.Rows != 34 {
		t.Fatalf("grid = %dx%d, want 48x34", g.Cols, g.Rows)
	}
	if g.Total() != 1632 {
		t.Errorf("Total = %d, want 1632", g.Total())
	}
	if g.Width() != 9216 || g.Height() != 6528 {
		t.Errorf("size = %vx%v, want 9216x6528", g.Width(), g.Height())
	}
}

func TestGridTileRect(t *testing.T) {
	g := DefaultGrid()
	r, err := g.TileRect(5, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := Rect{X: 960, Y: 960, Width: 192, Height: 192}
	if r != want {
		t.Errorf("TileRect(5,5) = %+v, want %+v", r, want)
	}
}

func TestGridTileRectOutOfBounds(t *testing.T) {
	g := DefaultGrid()
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {48, 0}, {0, 34}} {
		if _, err := g.TileRect(c[0], c[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("TileRect(%d,%d) err = %v, want ErrOutOfBounds", c[0], c[1], err)
		}
		if g.Contains(c[0], c[1]) {
			t.Errorf("Contains(%d,%d) = true", c[0], c[1])
		}
	}
}

func TestGridTileAt(t *testing.T) {
	g := DefaultGrid()
	cases := []struct {
		x, y float64
		want TileKey
		ok   bool
	}{
		{0, 0, TileKey{0, 0}, true},
		{191.9, 0, TileKey{0, 0}, true},
		{192, 0, TileKey{1, 0}, true},
		{9215, 6527, TileKey{47, 33}, true},
		{-0.1, 10, TileKey{}, false},
		{9216, 10, TileKey{}, false},
		{10, 6528, TileKey{}, false},
	}
	for _, c := range cases {
		got, ok := g.TileAt(c.x, c.y)
		if ok != c.ok || got != c.want {
			t.Errorf("TileAt(%v,%v) = %v,%v want %v,%v", c.x, c.y, got, ok, c.want, c.ok)
		}
	}
}

func TestTileKeyText(t *testing.T) {
	k := TileKey{Col: 12, Row: 7}
	if k.String() != "12,7" {
		t.Errorf("String = %q, want %q", k.String(), "12,7")
	}
	got, err := ParseTileKey("12, 7")
	if err != nil || got != k {
		t.Errorf("ParseTileKey = %v, %v", got, err)
	}
	for _, bad := range []string{"", "12", "a,1", "1,b"} {
		if _, err := ParseTileKey(bad); err == nil {
			t.Errorf("ParseTileKey(%q) succeeded", bad)
		}
	}
}

func TestSortedKeysRowMajor(t *testing.T) {
	s := NewTileSet(TileKey{3, 1}, TileKey{0, 2}, TileKey{1, 1}, TileKey{9, 0})
	got := SortedKeys(s)
	want := []TileKey{{9, 0}, {1, 1}, {3, 1}, {0, 2}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGridRowRuns(t *testing.T) {
	g := NewGrid(64, 32, 16) // 4x2
	s := NewTileSet(TileKey{0, 0}, TileKey{1, 0}, TileKey{3, 0}, TileKey{2, 1})
	runs := g.rowRuns(s.Has)
	want := []Rect{
		{X: 0, Y: 0, Width: 32, Height: 16},
		{X: 48, Y: 0, Width: 16, Height: 16},
		{X: 32, Y: 16, Width: 16, Height: 16},
	}
	if len(runs) != len(want) {
		t.Fatalf("runs = %+v, want %+v", runs, want)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}
}
