package chunkmap

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// CornerStyle selects how glow strokes meet at tile corners.
type CornerStyle uint8

const (
	CornersRound CornerStyle = iota
	CornersSharp
)

func (c CornerStyle) String() string {
	if c == CornersSharp {
		return "sharp"
	}
	return "round"
}

// ParseCornerStyle parses "round" or "sharp".
func ParseCornerStyle(s string) (CornerStyle, error) {
	switch s {
	case "round":
		return CornersRound, nil
	case "sharp", "square", "miter":
		return CornersSharp, nil
	}
	return CornersRound, fmt.Errorf("unknown corner style %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c CornerStyle) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CornerStyle) UnmarshalText(b []byte) error {
	v, err := ParseCornerStyle(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// GlowStyle holds the user-facing glow parameters. Size, Intensity and
// Border are percentages; Power is the number of repeat strokes per bloom
// pass.
type GlowStyle struct {
	Color     Color
	Size      float64
	Intensity float64
	Power     int
	Border    float64
	Corners   CornerStyle
}

// DefaultGlowStyle returns the stock glow.
func DefaultGlowStyle() GlowStyle {
	return GlowStyle{
		Color:     MustHexColor("#ffd27a"),
		Size:      50,
		Intensity: 80,
		Power:     3,
		Border:    50,
		Corners:   CornersRound,
	}
}

func (g GlowStyle) spread() float64 { return g.Size / 100 }
func (g GlowStyle) intensity() float64 { return g.Intensity / 100 }

func (g GlowStyle) power() int {
	if g.Power <= 0 {
		return 3
	}
	return g.Power
}

func (g GlowStyle) borderWidth() float64 {
	return math.Max(2, math.Round(14*g.Border/100))
}

func (g GlowStyle) maxBlur() float64 {
	return math.Round(200 * g.spread())
}

// reach is how far past the region boundary, in map pixels, the cached
// glow can paint on a surface of the given scale.
func (g GlowStyle) reach(scale float64) float64 {
	return math.Max(g.maxBlur(), 25) + g.borderWidth()*miterLimit/2 + 2/scale
}

// borderReach is how far past a tile edge a per-tile border can paint.
func (g GlowStyle) borderReach(scale float64) float64 {
	return math.Round(60*g.spread()) + g.borderWidth()*miterLimit/2 + 2/scale
}

// white is the near-white border color: 15% glow color, 85% white.
func (g GlowStyle) white() Color {
	return g.Color.Whiten(0.15)
}

func (g GlowStyle) stroke(width float64, c, shadow Color, blur float64) StrokeStyle {
	st := StrokeStyle{Width: width, Color: c, ShadowColor: shadow, ShadowBlur: blur}
	if g.Corners == CornersRound {
		st.Join, st.Cap = JoinRound, CapRound
	}
	return st
}

// borderStroke is the per-tile border: shadow strength follows k, the
// whole stroke is multiplied by alpha.
func (g GlowStyle) borderStroke(k, alpha float64) StrokeStyle {
	i := g.intensity()
	return g.stroke(
		g.borderWidth(),
		g.white().WithAlpha(0.9*i*alpha),
		g.Color.WithAlpha(0.8*i*k*alpha),
		math.Round(60*g.spread()*k),
	)
}

// Key returns a stable text form of every parameter.
func (g GlowStyle) Key() string {
	return fmt.Sprintf("%s|%g|%g|%d|%g|%s", g.Color.Hex(), g.Size, g.Intensity, g.power(), g.Border, g.Corners)
}

// --- Fingerprint ---

// Fingerprint identifies the inputs a glow image was built from.
type Fingerprint struct {
	Settled uint64
	Style   uint64
}

// NewFingerprint hashes the ordered settled set and the glow style.
func NewFingerprint(settled TileSet, g GlowStyle) Fingerprint {
	return Fingerprint{Settled: settledHash(settled), Style: xxhash.Sum64String(g.Key())}
}

func settledHash(settled TileSet) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(settled.Size()))
	_, _ = d.Write(buf[:])
	for _, k := range SortedKeys(settled) {
		binary.LittleEndian.PutUint32(buf[:4], uint32(k.Col))
		binary.LittleEndian.PutUint32(buf[4:], uint32(k.Row))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// --- Edges ---

// GlowEdges returns one segment per tile side that borders a tile outside
// settled or the grid boundary. Segments are never chained, so corners
// where three or four regions meet keep all their edges.
func GlowEdges(g Grid, settled TileSet) *Path {
	p := &Path{}
	for _, k := range SortedKeys(settled) {
		r := g.rect(k)
		x0, y0 := r.X, r.Y
		x1, y1 := r.X+r.Width, r.Y+r.Height
		if k.Row == 0 || !settled.Has(TileKey{k.Col, k.Row - 1}) {
			p.Segment(x0, y0, x1, y0)
		}
		if k.Row == g.Rows-1 || !settled.Has(TileKey{k.Col, k.Row + 1}) {
			p.Segment(x0, y1, x1, y1)
		}
		if k.Col == 0 || !settled.Has(TileKey{k.Col - 1, k.Row}) {
			p.Segment(x0, y0, x0, y1)
		}
		if k.Col == g.Cols-1 || !settled.Has(TileKey{k.Col + 1, k.Row}) {
			p.Segment(x1, y0, x1, y1)
		}
	}
	return p
}

// --- Cache ---

// Bloom pass counts at full and degraded quality.
const (
	bloomPasses   = 6
	bloomPassesLQ = 2
)

// GlowCache holds the rendered outer bloom and inner shadow for a settled
// set. The image is rebuilt only when the fingerprint changes, or when a
// degraded image built during animation can be replaced at full quality.
type GlowCache struct {
	grid  Grid
	layer Surface

	fp       Fingerprint
	bounds   Rect
	valid    bool
	lowQ     bool
	rebuilds int
}

// NewGlowCache creates an empty cache for grid g.
func NewGlowCache(g Grid) *GlowCache {
	return &GlowCache{grid: g}
}

// Invalidate clears the fingerprint so the next Ensure rebuilds.
func (c *GlowCache) Invalidate() {
	c.valid = false
}

// Image returns the cached layer, or nil before the first build.
func (c *GlowCache) Image() Surface { return c.layer }

// LowQuality reports whether the current image was built in degraded mode.
func (c *GlowCache) LowQuality() bool { return c.lowQ }

// Rebuilds returns how many times the image has been rendered.
func (c *GlowCache) Rebuilds() int { return c.rebuilds }

// Bounds returns the map-space area the current image can be non-empty in.
func (c *GlowCache) Bounds() Rect { return c.bounds }

// Fingerprint returns the inputs of the current image.
func (c *GlowCache) Fingerprint() Fingerprint { return c.fp }

// Ensure brings the cached image up to date and reports whether it was
// rebuilt. target provides the layer kind on first use. animating selects
// degraded quality for any rebuild it triggers.
func (c *GlowCache) Ensure(target Surface, settled TileSet, g GlowStyle, animating bool) bool {
	fp := NewFingerprint(settled, g)
	if c.valid && fp == c.fp && !(c.lowQ && !animating) {
		return false
	}
	if c.layer == nil || c.layer.Scale() != target.Scale() {
		c.layer = target.NewLayer(c.grid.Width(), c.grid.Height())
	}
	c.render(settled, g, animating)
	c.fp = fp
	c.valid = true
	c.lowQ = animating
	c.rebuilds++
	return true
}

func (c *GlowCache) render(settled TileSet, g GlowStyle, lowQ bool) {
	l := c.layer
	l.Clear()
	c.bounds = Rect{}
	if settled.Size() == 0 {
		return
	}
	edges := GlowEdges(c.grid, settled)
	if edges.Empty() {
		return
	}

	c.bounds = c.grid.bounds(settled).Inflate(g.reach(l.Scale())).Intersect(c.grid.mapRect())

	i := g.intensity()
	borderW := g.borderWidth()
	maxBlur := g.maxBlur()
	passes, power := bloomPasses, g.power()
	if lowQ {
		passes, power = bloomPassesLQ, 1
	}

	// Outer glow, clipped to everything outside the settled region.
	l.Clip(c.grid.rowRuns(func(k TileKey) bool { return !settled.Has(k) }))
	for n := passes; n >= 1; n-- {
		frac := float64(n) / float64(passes)
		a := 0.7 * i * (1 - frac*0.4)
		st := g.stroke(
			math.Max(2, math.Round(borderW*(1-frac*0.5))),
			g.Color.WithAlpha(a*0.4),
			g.Color.WithAlpha(a),
			math.Round(maxBlur*frac),
		)
		for p := 0; p < power; p++ {
			l.StrokePath(edges, st)
		}
	}
	l.StrokePath(edges, g.stroke(
		borderW,
		g.white().WithAlpha(0.95*i),
		g.Color.WithAlpha(0.9*i),
		math.Round(15*g.spread()),
	))
	l.ResetClip()

	if lowQ {
		return
	}

	// Inner shadow and highlight, clipped to the settled region.
	l.Clip(c.grid.rowRuns(settled.Has))
	shade := g.stroke(2, ColorBlack.WithAlpha(0.05), ColorBlack.WithAlpha(0.6*i), 25)
	l.StrokePath(edges, shade)
	l.StrokePath(edges, shade)
	l.StrokePath(edges, g.stroke(1, g.Color.WithAlpha(0.08), g.Color.WithAlpha(0.3*i), 12))
	l.ResetClip()
}
