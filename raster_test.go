package chunkmap

import (
	"image"
	"image/color"
	"testing"
)

func TestRasterClipUnion(t *testing.T) {
	s := NewRasterSurface(10, 10, 1)
	s.Clip([]Rect{{0, 0, 2, 2}, {8, 8, 2, 2}})
	s.FillRect(Rect{0, 0, 10, 10}, ColorBlack)

	if a := s.At(1, 1).A; a != 255 {
		t.Errorf("inside first clip rect: A = %d, want 255", a)
	}
	if a := s.At(9, 9).A; a != 255 {
		t.Errorf("inside second clip rect: A = %d, want 255", a)
	}
	if a := s.At(5, 5).A; a != 0 {
		t.Errorf("outside clip: A = %d, want 0", a)
	}

	s.ResetClip()
	s.FillRect(Rect{0, 0, 10, 10}, ColorBlack)
	if a := s.At(5, 5).A; a != 255 {
		t.Errorf("after ResetClip: A = %d, want 255", a)
	}
}

func TestRasterScale(t *testing.T) {
	s := NewRasterSurface(10, 10, 0.5)
	if w, h := s.Size(); w != 5 || h != 5 {
		t.Fatalf("Size = %dx%d, want 5x5", w, h)
	}
	s.FillRect(Rect{0, 0, 4, 4}, ColorBlack)
	if a := s.At(1, 1).A; a != 255 {
		t.Errorf("(1,1) A = %d, want 255", a)
	}
	if a := s.At(3, 3).A; a != 0 {
		t.Errorf("(3,3) A = %d, want 0", a)
	}
}

func TestRasterClearRect(t *testing.T) {
	s := NewRasterSurface(10, 10, 1)
	s.FillRect(Rect{0, 0, 10, 10}, ColorBlack)
	s.ClearRect(Rect{2, 2, 4, 4})
	if a := s.At(3, 3).A; a != 0 {
		t.Errorf("cleared pixel A = %d, want 0", a)
	}
	if a := s.At(8, 8).A; a != 255 {
		t.Errorf("untouched pixel A = %d, want 255", a)
	}
}

func TestRasterFillPath(t *testing.T) {
	s := NewRasterSurface(10, 10, 1)
	var p Path
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(0, 10)
	p.Close()
	s.FillPath(&p, ColorBlack)

	if a := s.At(1, 1).A; a != 255 {
		t.Errorf("inside triangle: A = %d, want 255", a)
	}
	if a := s.At(8, 8).A; a != 0 {
		t.Errorf("outside triangle: A = %d, want 0", a)
	}
}

func TestRasterDrawSurfaceScales(t *testing.T) {
	src := NewRasterSurface(10, 10, 0.5)
	src.FillRect(Rect{0, 0, 10, 10}, Color{1, 0, 0, 1})

	dst := NewRasterSurface(20, 20, 1)
	dst.DrawSurface(src, DrawOptions{})

	if got := dst.At(9, 9); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("(9,9) = %v, want opaque red", got)
	}
	if a := dst.At(12, 12).A; a != 0 {
		t.Errorf("(12,12) A = %d, want 0", a)
	}
}

func TestRasterDrawImageAlpha(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})

	s := NewRasterSurface(4, 4, 1)
	s.DrawImage(src, DrawOptions{Width: 4, Height: 4, Alpha: 0.5})

	if a := s.At(2, 2).A; a < 120 || a > 135 {
		t.Errorf("half-alpha draw: A = %d, want about 128", a)
	}
}

func TestRasterSnapshotIsCopy(t *testing.T) {
	s := NewRasterSurface(4, 4, 1)
	snap := s.Snapshot()
	s.FillRect(Rect{0, 0, 4, 4}, ColorBlack)
	if a := snap.RGBAAt(1, 1).A; a != 0 {
		t.Errorf("snapshot changed after draw: A = %d", a)
	}
}

func TestRasterClipNests(t *testing.T) {
	s := NewRasterSurface(10, 10, 1)
	s.Clip([]Rect{{0, 0, 6, 10}})
	s.Clip([]Rect{{4, 0, 6, 10}})
	s.FillRect(Rect{0, 0, 10, 10}, ColorBlack)
	s.ResetClip()

	for _, c := range []struct {
		x    int
		want uint8
	}{{2, 0}, {5, 255}, {8, 0}} {
		if a := s.At(c.x, 5).A; a != c.want {
			t.Errorf("inner clip: (%d,5) A = %d, want %d", c.x, a, c.want)
		}
	}

	// The outer clip is back in effect.
	s.FillRect(Rect{0, 0, 10, 10}, ColorBlack)
	if a := s.At(2, 5).A; a != 255 {
		t.Errorf("outer clip: (2,5) A = %d, want 255", a)
	}
	if a := s.At(8, 5).A; a != 0 {
		t.Errorf("outer clip: (8,5) A = %d, want 0", a)
	}
	s.ResetClip()
}

func TestRasterSetRectReplaces(t *testing.T) {
	s := NewRasterSurface(4, 4, 1)
	s.FillRect(Rect{0, 0, 4, 4}, Color{1, 0, 0, 1})
	s.SetRect(Rect{0, 0, 2, 2}, ColorBlack.WithAlpha(0.5))
	if got := s.At(1, 1); got != ColorBlack.WithAlpha(0.5).RGBA() {
		t.Errorf("SetRect pixel = %v, want half-transparent black", got)
	}
	if got := s.At(3, 3); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("outside SetRect = %v, want red", got)
	}
}

func TestRasterDamage(t *testing.T) {
	s := NewRasterSurface(10, 10, 1)
	if d := s.takeDamage(); !d.Empty() {
		t.Fatalf("new surface damage = %v", d)
	}
	s.FillRect(Rect{1, 1, 2, 2}, ColorBlack)
	s.ClearRect(Rect{6, 6, 1, 1})
	if d := s.takeDamage(); d != image.Rect(1, 1, 7, 7) {
		t.Errorf("damage = %v, want (1,1)-(7,7)", d)
	}
	if d := s.takeDamage(); !d.Empty() {
		t.Errorf("damage not reset: %v", d)
	}
	s.Clip(nil)
	s.FillRect(Rect{0, 0, 10, 10}, ColorBlack)
	s.ResetClip()
	if d := s.takeDamage(); !d.Empty() {
		t.Errorf("fully clipped draw damaged %v", d)
	}
}

func TestRasterDrawSurfaceSameScaleAlpha(t *testing.T) {
	src := NewRasterSurface(4, 4, 1)
	src.FillRect(Rect{0, 0, 4, 4}, Color{1, 0, 0, 1})

	dst := NewRasterSurface(8, 8, 1)
	dst.DrawSurface(src, DrawOptions{X: 2, Y: 2, Alpha: 0.5})

	if a := dst.At(3, 3).A; a < 120 || a > 135 {
		t.Errorf("(3,3) A = %d, want about 128", a)
	}
	if a := dst.At(1, 1).A; a != 0 {
		t.Errorf("(1,1) A = %d, want 0", a)
	}
	if a := dst.At(6, 6).A; a != 0 {
		t.Errorf("(6,6) A = %d, want 0", a)
	}
}
