package chunkmap

import (
	"math"
	"time"
)

// DarknessLayer renders the overlay that darkens locked tiles. A Redraw
// fills every locked tile with the darkness color, runs the reveal style
// for animating tiles, strokes their per-tile borders, and composites the
// cached glow around the settled region.
//
// When nothing but the animations changed since the previous Redraw on the
// same surface, only the tiles around current and previous animations are
// repainted.
type DarknessLayer struct {
	grid Grid
	glow *GlowCache

	last      redrawKey
	lastAnims TileSet
}

// redrawKey holds every input of a Redraw except the animations.
type redrawKey struct {
	target     Surface
	settings   Settings
	settled    uint64
	glowHidden bool
	glowAlpha  float64
	rebuilds   int
}

// NewDarknessLayer creates a layer for grid g with an empty glow cache.
func NewDarknessLayer(g Grid) *DarknessLayer {
	return &DarknessLayer{grid: g, glow: NewGlowCache(g), lastAnims: NewTileSet()}
}

// Grid returns the layer's grid.
func (d *DarknessLayer) Grid() Grid { return d.grid }

// GlowCache returns the layer's glow cache.
func (d *DarknessLayer) GlowCache() *GlowCache { return d.glow }

// Frame is everything one Redraw reads.
type Frame struct {
	Unlocked TileSet
	// Anims is pruned during Redraw: entries whose reveal completes, or
	// whose tile is no longer unlocked, are removed.
	Anims    *Animations
	Settings Settings
	// GlowHidden suppresses the cached glow; settled tiles get per-tile
	// borders instead.
	GlowHidden bool
	Fade       *GlowFade
	Now        time.Time
}

type tileReveal struct {
	key      TileKey
	progress float64
}

// Redraw repaints the overlay on s. It reports whether any tile is still
// animating afterwards.
func (d *DarknessLayer) Redraw(s Surface, f Frame) bool {
	st := f.Settings
	dark := st.darkness()

	var reveals []tileReveal
	current := NewTileSet()
	for _, k := range f.Anims.Keys() {
		if !f.Unlocked.Has(k) || !d.grid.ContainsKey(k) {
			f.Anims.Remove(k)
			continue
		}
		p, _ := f.Anims.Progress(k, f.Now)
		reveals = append(reveals, tileReveal{k, p})
		current.Put(k)
		if p >= 1 {
			f.Anims.Remove(k)
		}
	}

	settled := d.settled(f)
	showGlow := st.GlowEnabled && settled.Size() > 0 && !f.GlowHidden
	if showGlow {
		d.glow.Ensure(s, settled, st.Glow, f.Anims.Len() > 0)
	}
	glowAlpha := 1.0
	if f.Fade != nil {
		glowAlpha = f.Fade.Alpha(f.Now)
	}

	key := redrawKey{
		target:     s,
		settings:   st,
		settled:    settledHash(settled),
		glowHidden: f.GlowHidden,
		glowAlpha:  glowAlpha,
		rebuilds:   d.glow.Rebuilds(),
	}
	pad := int(math.Ceil(st.Glow.borderReach(s.Scale()) / d.grid.TilePx))

	full := key != d.last
	var dirty TileSet
	if !full {
		core := NewTileSet()
		current.Each(core.Put)
		d.lastAnims.Each(core.Put)
		dirty = d.grid.dilate(core, pad)
	}
	d.last, d.lastAnims = key, current

	if full {
		s.Clear()
	} else {
		if dirty.Size() == 0 {
			return f.Anims.Len() > 0
		}
		region := d.grid.rowRuns(dirty.Has)
		s.Clip(region)
		defer s.ResetClip()
		for _, r := range region {
			s.ClearRect(r)
		}
	}

	// The area is transparent here, so locked tiles are set, not blended.
	locked := func(k TileKey) bool {
		return !f.Unlocked.Has(k) && (full || dirty.Has(k))
	}
	for _, r := range d.grid.rowRuns(locked) {
		s.SetRect(r, dark)
	}

	for _, r := range reveals {
		drawReveal(s, st.RevealStyle, r.key, d.grid.rect(r.key), r.progress, dark)
	}

	if st.GlowEnabled {
		var near func(TileKey) bool
		if !full {
			near = d.grid.dilate(dirty, pad).Has
		}
		d.drawBorders(s, f, reveals, settled, near)
	}

	if showGlow && glowAlpha > 0 && d.glow.Image() != nil {
		s.Clip([]Rect{d.glow.Bounds()})
		s.DrawSurface(d.glow.Image(), DrawOptions{Alpha: glowAlpha})
		s.ResetClip()
	}
	return f.Anims.Len() > 0
}

// settled returns the unlocked tiles that are not animating.
func (d *DarknessLayer) settled(f Frame) TileSet {
	settled := NewTileSet()
	f.Unlocked.Each(func(k TileKey) {
		if d.grid.ContainsKey(k) && !f.Anims.Has(k) {
			settled.Put(k)
		}
	})
	return settled
}

// drawBorders strokes the per-tile borders: the reveal-front border of each
// animating tile, and while the glow is hidden or fading in, a full border
// around each settled tile that fades out as the glow fades in. A non-nil
// near limits settled borders to the tiles it accepts.
func (d *DarknessLayer) drawBorders(s Surface, f Frame, reveals []tileReveal, settled TileSet, near func(TileKey) bool) {
	st := f.Settings
	for _, r := range reveals {
		if r.progress < 1 {
			drawRevealBorder(s, st.RevealStyle, d.grid.rect(r.key), r.progress, st.Glow, 1)
		}
	}

	fading := f.Fade != nil && f.Fade.Active()
	if !f.GlowHidden && !fading {
		return
	}
	alpha := 1.0
	if fading {
		alpha = f.Fade.BorderAlpha(f.Now)
	}
	if alpha <= 0 {
		return
	}
	for _, k := range SortedKeys(settled) {
		if near == nil || near(k) {
			drawSettledBorder(s, d.grid.rect(k), st.Glow, alpha)
		}
	}
}

// --- Grid overlay ---

// DrawGrid strokes a 1px line along every tile edge when the grid is
// visible.
func DrawGrid(s Surface, g Grid, st Settings) {
	s.Clear()
	if !st.GridVisible {
		return
	}
	p := &Path{}
	w, h := g.Width(), g.Height()
	for c := 0; c <= g.Cols; c++ {
		x := float64(c)*g.TilePx + 0.5
		p.Segment(x, 0, x, h)
	}
	for r := 0; r <= g.Rows; r++ {
		y := float64(r)*g.TilePx + 0.5
		p.Segment(0, y, w, y)
	}
	s.StrokePath(p, StrokeStyle{Width: 1, Color: st.GridColor.WithAlpha(st.GridOpacity)})
}
