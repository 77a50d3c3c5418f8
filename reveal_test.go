package chunkmap

import (
	"image/color"
	"testing"
)

func revealFixture() (Grid, TileKey, Rect, *RasterSurface) {
	g := NewGrid(96, 96, 32)
	k := TileKey{1, 1}
	r, _ := g.TileRect(1, 1)
	return g, k, r, NewRasterSurface(96, 96, 1)
}

func countPixels(s *RasterSurface, r Rect, want color.RGBA) int {
	n := 0
	for y := int(r.Y); y < int(r.Y+r.Height); y++ {
		for x := int(r.X); x < int(r.X+r.Width); x++ {
			if s.At(x, y) == want {
				n++
			}
		}
	}
	return n
}

func TestRevealConvergence(t *testing.T) {
	dark := ColorBlack.WithAlpha(0.7)
	for _, style := range RevealStyles {
		t.Run(style.String(), func(t *testing.T) {
			_, k, r, s := revealFixture()
			total := int(r.Width * r.Height)

			drawReveal(s, style, k, r, 0, dark)
			if got := countPixels(s, r, dark.RGBA()); got != total {
				t.Errorf("progress 0: %d/%d dark pixels", got, total)
			}
			if got := countPixels(s, Rect{X: 0, Y: 0, Width: 32, Height: 32}, color.RGBA{}); got != 32*32 {
				t.Errorf("progress 0: drew outside the tile")
			}

			s.Clear()
			drawReveal(s, style, k, r, 1, dark)
			if got := countPixels(s, r, color.RGBA{}); got != total {
				t.Errorf("progress 1: %d/%d clear pixels", got, total)
			}
		})
	}
}

func TestRevealGrowMidway(t *testing.T) {
	_, k, r, s := revealFixture()
	dark := ColorBlack.WithAlpha(1)
	drawReveal(s, RevealGrow, k, r, 0.5, dark)
	if s.At(48, 48) != (color.RGBA{}) {
		t.Error("center still dark at half progress")
	}
	if s.At(32, 32) != dark.RGBA() {
		t.Error("corner revealed at half progress")
	}
}

func TestRevealRadarUsesLinearProgress(t *testing.T) {
	_, k, r, s := revealFixture()
	dark := ColorBlack.WithAlpha(1)
	// Half a sweep from 12 o'clock clockwise covers the right half.
	drawReveal(s, RevealRadar, k, r, 0.5, dark)
	if s.At(60, 48) != (color.RGBA{}) {
		t.Error("right half still dark")
	}
	if s.At(35, 48) != dark.RGBA() {
		t.Error("left half revealed")
	}
}

func TestRevealWipeTopDown(t *testing.T) {
	_, k, r, s := revealFixture()
	dark := ColorBlack.WithAlpha(1)
	drawReveal(s, RevealWipe, k, r, 0.2, dark)
	if s.At(48, 32) != (color.RGBA{}) {
		t.Error("top row still dark")
	}
	if s.At(48, 63) != dark.RGBA() {
		t.Error("bottom row revealed")
	}
}

func TestRevealFadeAlpha(t *testing.T) {
	_, k, r, s := revealFixture()
	dark := ColorBlack.WithAlpha(1)
	drawReveal(s, RevealFade, k, r, 0.5, dark)
	want := uint8(255 * (1 - RevealEase(0.5)))
	if got := s.At(48, 48).A; got < want-1 || got > want+1 {
		t.Errorf("alpha = %d, want ~%d", got, want)
	}
}

func TestRevealEase(t *testing.T) {
	assertNear(t, "ease(0)", RevealEase(0), 0)
	assertNear(t, "ease(1)", RevealEase(1), 1)
	if got := RevealEase(0.5); !approxEqual(got, 0.875, 1e-6) {
		t.Errorf("ease(0.5) = %v, want 0.875", got)
	}
	assertNear(t, "ease(2)", RevealEase(2), 1)
}

func TestPixelOrderDeterministic(t *testing.T) {
	a := pixelOrder(TileKey{5, 7})
	b := pixelOrder(TileKey{5, 7})
	if a != b {
		t.Fatal("order differs between calls")
	}
	var seen [pixelBlocks]bool
	for _, idx := range a {
		if idx < 0 || idx >= pixelBlocks || seen[idx] {
			t.Fatalf("order %v is not a permutation", a)
		}
		seen[idx] = true
	}
	if pixelOrder(TileKey{0, 0}) == pixelOrder(TileKey{1, 0}) {
		t.Error("neighbouring tiles share a reveal order")
	}
}

func TestRevealStyleText(t *testing.T) {
	for _, s := range RevealStyles {
		got, err := ParseRevealStyle(s.String())
		if err != nil || got != s {
			t.Errorf("ParseRevealStyle(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseRevealStyle("spiral"); err == nil {
		t.Error("unknown style accepted")
	}
}

func TestRevealBorderSkipsTinyProgress(t *testing.T) {
	_, _, r, s := revealFixture()
	drawRevealBorder(s, RevealGrow, r, 0.001, DefaultGlowStyle(), 1)
	if got := countPixels(s, Rect{Width: 96, Height: 96}, color.RGBA{}); got != 96*96 {
		t.Error("border drawn below the visibility threshold")
	}
}
