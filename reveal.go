package chunkmap

import (
	"fmt"
	"math"

	"github.com/tanema/gween/ease"
)

// RevealStyle selects how an unlocking tile's darkness is removed.
type RevealStyle uint8

const (
	RevealGrow     RevealStyle = iota // centered clear rectangle grows outward
	RevealFade                        // darkness alpha falls to zero
	RevealWipe                        // clear strip grows from the top edge down
	RevealRadar                       // clockwise wedge sweeps from 12 o'clock
	RevealDiamond                     // diamond iris opens past the tile corners
	RevealPixelate                    // 4x4 sub-blocks clear in a seeded order
)

var revealStyleNames = [...]string{"grow", "fade", "wipe", "radar", "diamond", "pixelate"}

// RevealStyles lists every style in menu order.
var RevealStyles = []RevealStyle{RevealGrow, RevealFade, RevealWipe, RevealRadar, RevealDiamond, RevealPixelate}

func (s RevealStyle) String() string {
	if int(s) < len(revealStyleNames) {
		return revealStyleNames[s]
	}
	return fmt.Sprintf("RevealStyle(%d)", s)
}

// ParseRevealStyle parses a style name. Unknown names are an error.
func ParseRevealStyle(name string) (RevealStyle, error) {
	for i, n := range revealStyleNames {
		if n == name {
			return RevealStyle(i), nil
		}
	}
	return RevealGrow, fmt.Errorf("unknown reveal style %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s RevealStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *RevealStyle) UnmarshalText(b []byte) error {
	v, err := ParseRevealStyle(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// RevealEase maps raw progress to the cubic ease-out used by every style
// except radar.
func RevealEase(progress float64) float64 {
	p := clamp01(progress)
	if p >= 1 {
		return 1
	}
	return float64(ease.OutCubic(float32(p), 0, 1, 1))
}

// --- Darkness pass ---

// drawReveal paints the darkness of one animating tile at the given raw
// progress. dark carries the darkness opacity in its alpha. Nothing is
// drawn once the eased progress reaches 1.
func drawReveal(s Surface, style RevealStyle, key TileKey, r Rect, progress float64, dark Color) {
	e := RevealEase(progress)
	if e >= 1 {
		return
	}
	cx, cy := r.Center()
	t := r.Width

	switch style {
	case RevealFade:
		s.FillRect(r, dark.WithAlpha(dark.A*(1-e)))

	case RevealWipe:
		h := t * e
		s.FillRect(Rect{X: r.X, Y: r.Y + h, Width: t, Height: t - h}, dark)

	case RevealRadar:
		s.FillRect(r, dark)
		s.Clip([]Rect{r})
		s.ClearPath(radarWedge(cx, cy, t, clamp01(progress)))
		s.ResetClip()

	case RevealDiamond:
		s.FillRect(r, dark)
		s.Clip([]Rect{r})
		s.ClearPath(diamond(cx, cy, t*e))
		s.ResetClip()

	case RevealPixelate:
		s.FillRect(r, dark)
		order := pixelOrder(key)
		revealed := int(math.Floor(e * pixelBlocks))
		for b := 0; b < revealed; b++ {
			s.ClearRect(pixelBlock(r, order[b]))
		}
		if revealed < pixelBlocks {
			partial := e*pixelBlocks - float64(revealed)
			br := pixelBlock(r, order[revealed])
			s.ClearRect(br)
			s.FillRect(br, dark.WithAlpha(dark.A*(1-partial)))
		}

	default: // RevealGrow
		half := t / 2 * e
		s.FillRect(r, dark)
		s.ClearRect(Rect{X: cx - half, Y: cy - half, Width: half * 2, Height: half * 2})
	}
}

// radarWedge builds the swept wedge from 12 o'clock through sweep*2pi
// radians, with a radius that reaches past the tile corners.
func radarWedge(cx, cy, tile, progress float64) *Path {
	maxR := math.Sqrt2*tile/2 + 2
	sweep := 2 * math.Pi * progress
	start := -math.Pi / 2
	steps := max(16, int(math.Floor(sweep*10)))

	p := &Path{}
	p.MoveTo(cx, cy)
	for i := 0; i <= steps; i++ {
		a := start + sweep*float64(i)/float64(steps)
		p.LineTo(cx+math.Cos(a)*maxR, cy+math.Sin(a)*maxR)
	}
	p.Close()
	return p
}

func diamond(cx, cy, halfD float64) *Path {
	p := &Path{}
	p.MoveTo(cx, cy-halfD)
	p.LineTo(cx+halfD, cy)
	p.LineTo(cx, cy+halfD)
	p.LineTo(cx-halfD, cy)
	p.Close()
	return p
}

// --- Pixelate order ---

const (
	pixelCols   = 4
	pixelRows   = 4
	pixelBlocks = pixelCols * pixelRows
)

func pixelBlock(r Rect, idx int) Rect {
	bw, bh := r.Width/pixelCols, r.Height/pixelRows
	return Rect{
		X:      r.X + float64(idx%pixelCols)*bw,
		Y:      r.Y + float64(idx/pixelCols)*bh,
		Width:  bw,
		Height: bh,
	}
}

// pixelOrder returns the block reveal order for a tile: a Fisher-Yates
// shuffle driven by a Park-Miller generator seeded from the tile identity,
// so a tile always reveals the same way.
func pixelOrder(k TileKey) [pixelBlocks]int {
	var order [pixelBlocks]int
	for i := range order {
		order[i] = i
	}
	seed := int64(k.Col*1000+k.Row+42) % 2147483647
	if seed <= 0 {
		seed += 2147483646
	}
	next := func() float64 {
		seed = seed * 16807 % 2147483647
		return float64(seed-1) / 2147483646
	}
	for i := pixelBlocks - 1; i > 0; i-- {
		j := int(math.Floor(next() * float64(i+1)))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// --- Per-tile borders ---

// drawRevealBorder strokes the glowing border that tracks an animating
// tile's reveal front. alpha multiplies the whole border.
func drawRevealBorder(s Surface, style RevealStyle, r Rect, progress float64, g GlowStyle, alpha float64) {
	e := RevealEase(progress)
	if e < 0.01 {
		return
	}
	cx, cy := r.Center()
	t := r.Width
	st := g.borderStroke(e, alpha)
	p := &Path{}

	switch style {
	case RevealFade, RevealPixelate:
		st.Color = g.white().WithAlpha(0.9 * g.intensity() * e * alpha)
		p.Rect(r)

	case RevealWipe:
		h := t * e
		p.MoveTo(r.X, r.Y)
		p.LineTo(r.X+t, r.Y)
		p.LineTo(r.X+t, r.Y+h)
		p.MoveTo(r.X, r.Y)
		p.LineTo(r.X, r.Y+h)

	case RevealRadar:
		k := math.Min(1, progress*2)
		st = g.borderStroke(k, alpha)
		maxR := math.Sqrt2*t/2 + 2
		end := -math.Pi/2 + 2*math.Pi*clamp01(progress)
		p.Segment(cx, cy, cx+math.Cos(end)*maxR, cy+math.Sin(end)*maxR)
		s.Clip([]Rect{r})
		s.StrokePath(p, st)
		s.ResetClip()
		return

	case RevealDiamond:
		s.Clip([]Rect{r})
		s.StrokePath(diamond(cx, cy, t*e), st)
		s.ResetClip()
		return

	default: // RevealGrow
		half := t / 2 * e
		p.Rect(Rect{X: cx - half, Y: cy - half, Width: half * 2, Height: half * 2})
	}
	s.StrokePath(p, st)
}

// drawSettledBorder strokes the full border of a settled tile, used while
// the cached glow is hidden or fading in.
func drawSettledBorder(s Surface, r Rect, g GlowStyle, alpha float64) {
	p := &Path{}
	p.Rect(r)
	s.StrokePath(p, g.borderStroke(1, alpha))
}
