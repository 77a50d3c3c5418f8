package chunkmap

import (
	"image/color"
	"testing"
	"time"
)

func darknessFixture() (*DarknessLayer, *RasterSurface, Frame) {
	g := NewGrid(64, 64, 32) // 2x2
	st := DefaultSettings()
	st.DarknessOpacity = 1
	st.GlowEnabled = false
	return NewDarknessLayer(g), NewRasterSurface(64, 64, 1), Frame{
		Unlocked: NewTileSet(),
		Anims:    NewAnimations(RevealDuration),
		Settings: st,
		Now:      epoch,
	}
}

func TestDarknessFillsLockedTiles(t *testing.T) {
	d, s, f := darknessFixture()
	f.Unlocked.Put(TileKey{1, 0})

	if d.Redraw(s, f) {
		t.Error("Redraw reported animation with no anims")
	}
	dark := ColorBlack.RGBA()
	if got := countPixels(s, Rect{X: 0, Y: 0, Width: 32, Height: 32}, dark); got != 32*32 {
		t.Errorf("locked tile: %d dark pixels", got)
	}
	if got := countPixels(s, Rect{X: 32, Y: 0, Width: 32, Height: 32}, color.RGBA{}); got != 32*32 {
		t.Errorf("unlocked tile: %d clear pixels", got)
	}
}

func TestDarknessPrunesFinishedAnims(t *testing.T) {
	d, s, f := darknessFixture()
	k := TileKey{0, 0}
	f.Unlocked.Put(k)
	f.Anims.Trigger(k, epoch)

	f.Now = epoch.Add(RevealDuration / 2)
	if !d.Redraw(s, f) {
		t.Fatal("mid-reveal Redraw reported no animation")
	}
	if !f.Anims.Has(k) {
		t.Fatal("anim removed mid-reveal")
	}

	f.Now = epoch.Add(RevealDuration)
	if d.Redraw(s, f) {
		t.Error("Redraw at progress 1 still animating")
	}
	if f.Anims.Has(k) {
		t.Error("finished anim not removed in the same pass")
	}
	if got := countPixels(s, Rect{X: 0, Y: 0, Width: 32, Height: 32}, color.RGBA{}); got != 32*32 {
		t.Errorf("finished tile: %d clear pixels", got)
	}
}

func TestDarknessDropsAnimsOfLockedTiles(t *testing.T) {
	d, s, f := darknessFixture()
	k := TileKey{1, 1}
	f.Anims.Trigger(k, epoch)
	d.Redraw(s, f)
	if f.Anims.Has(k) {
		t.Error("anim kept for a locked tile")
	}
	if got := countPixels(s, Rect{X: 32, Y: 32, Width: 32, Height: 32}, ColorBlack.RGBA()); got != 32*32 {
		t.Errorf("locked tile partly revealed: %d dark pixels", got)
	}
}

func TestDarknessGlowCachedAcrossRedraws(t *testing.T) {
	d, s, f := darknessFixture()
	f.Settings.GlowEnabled = true
	f.Unlocked.Put(TileKey{0, 0})

	d.Redraw(s, f)
	d.Redraw(s, f)
	if n := d.GlowCache().Rebuilds(); n != 1 {
		t.Errorf("Rebuilds = %d, want 1", n)
	}

	f.Unlocked.Put(TileKey{1, 0})
	d.Redraw(s, f)
	if n := d.GlowCache().Rebuilds(); n != 2 {
		t.Errorf("Rebuilds after unlock = %d, want 2", n)
	}
}

func TestDarknessGlowHiddenSkipsCache(t *testing.T) {
	d, s, f := darknessFixture()
	f.Settings.GlowEnabled = true
	f.GlowHidden = true
	f.Unlocked.Put(TileKey{0, 0})

	d.Redraw(s, f)
	if n := d.GlowCache().Rebuilds(); n != 0 {
		t.Errorf("glow built while hidden: %d rebuilds", n)
	}
	// The settled border is stroked instead.
	if s.At(31, 16) == (color.RGBA{}) {
		t.Error("no settled border on the tile edge")
	}
}

func TestDarknessGlowFadeSkipsZeroAlpha(t *testing.T) {
	d, s, f := darknessFixture()
	f.Settings.GlowEnabled = true
	f.Unlocked.Put(TileKey{0, 0})
	f.Fade = NewGlowFade(GlowFadeDuration)
	f.Fade.Start(epoch)

	d.Redraw(s, f)
	if d.GlowCache().Rebuilds() != 1 {
		t.Fatal("glow not built during fade")
	}
	// At alpha 0 only the settled borders show, as if the glow were hidden.
	hidden, hs, hf := darknessFixture()
	hf.Settings.GlowEnabled = true
	hf.GlowHidden = true
	hf.Unlocked.Put(TileKey{0, 0})
	hidden.Redraw(hs, hf)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if s.At(x, y) != hs.At(x, y) {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, s.At(x, y), hs.At(x, y))
			}
		}
	}

	f.Now = epoch.Add(time.Hour)
	d.Redraw(s, f)
	if d.GlowCache().Rebuilds() != 1 {
		t.Error("fade progress rebuilt the glow")
	}
}

func TestDrawGrid(t *testing.T) {
	g := NewGrid(64, 64, 32)
	s := NewRasterSurface(64, 64, 1)
	st := DefaultSettings()
	st.GridOpacity = 1

	DrawGrid(s, g, st)
	if s.At(16, 16) != (color.RGBA{}) {
		t.Error("hidden grid drew")
	}

	st.GridVisible = true
	DrawGrid(s, g, st)
	if s.At(32, 16) == (color.RGBA{}) {
		t.Error("no line on the tile edge")
	}
	if s.At(16, 16) != (color.RGBA{}) {
		t.Error("line inside the tile")
	}
}

func incrementalFixture() (*DarknessLayer, Frame) {
	g := NewGrid(1024, 1024, 128) // 8x8
	f := Frame{
		Unlocked: NewTileSet(TileKey{0, 0}, TileKey{1, 0}, TileKey{6, 6}),
		Anims:    NewAnimations(RevealDuration),
		Settings: DefaultSettings(),
	}
	f.Anims.Trigger(TileKey{6, 6}, epoch)
	return NewDarknessLayer(g), f
}

func TestDarknessRepaintsOnlyAroundAnimations(t *testing.T) {
	d, f := incrementalFixture()
	s := NewRasterSurface(1024, 1024, 0.25)

	f.Now = epoch.Add(100 * time.Millisecond)
	d.Redraw(s, f)
	if got := s.takeDamage(); got != s.Image().Bounds() {
		t.Fatalf("first redraw damaged %v, want the whole surface", got)
	}

	f.Now = epoch.Add(200 * time.Millisecond)
	d.Redraw(s, f)
	dmg := s.takeDamage()
	if dmg.Empty() || dmg.Min.X < 160 || dmg.Min.Y < 160 {
		t.Errorf("animation frame damaged %v, want only the tiles around (6,6)", dmg)
	}

	// Same frame from scratch.
	fresh, ff := incrementalFixture()
	fs := NewRasterSurface(1024, 1024, 0.25)
	ff.Now = f.Now
	fresh.Redraw(fs, ff)
	w, h := s.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if s.At(x, y) != fs.At(x, y) {
				t.Fatalf("pixel (%d, %d) = %v, full redraw has %v", x, y, s.At(x, y), fs.At(x, y))
			}
		}
	}
}

func TestDarknessRepaintsAllWhenSettledChanges(t *testing.T) {
	d, f := incrementalFixture()
	s := NewRasterSurface(1024, 1024, 0.25)
	f.Now = epoch.Add(100 * time.Millisecond)
	d.Redraw(s, f)
	s.takeDamage()

	f.Unlocked.Put(TileKey{3, 3})
	d.Redraw(s, f)
	if got := s.takeDamage(); got != s.Image().Bounds() {
		t.Errorf("settled change damaged %v, want the whole surface", got)
	}
}

func TestDarknessIdleRedrawTouchesNothing(t *testing.T) {
	d, s, f := darknessFixture()
	f.Unlocked.Put(TileKey{0, 0})
	d.Redraw(s, f)
	s.takeDamage()

	d.Redraw(s, f)
	if got := s.takeDamage(); !got.Empty() {
		t.Errorf("unchanged redraw damaged %v", got)
	}
	if got := countPixels(s, Rect{X: 32, Y: 0, Width: 32, Height: 32}, ColorBlack.RGBA()); got != 32*32 {
		t.Errorf("locked tile lost its darkness: %d dark pixels", got)
	}
}
