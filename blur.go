package chunkmap

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// --- Kawase blur ---

// kawaseBlur blurs a coverage mask using iterative bilinear downscale and
// upscale passes. radius is in surface pixels; the pass count is
// ceil(log2(radius)). The returned mask has the bounds of src.
func kawaseBlur(src *image.Alpha, radius float64) *image.Alpha {
	b := src.Bounds()
	if radius < 1 || b.Empty() {
		return src
	}
	passes := int(math.Ceil(math.Log2(radius)))
	if passes < 1 {
		passes = 1
	}

	chain := make([]*image.Alpha, 0, passes)
	current := src
	w, h := b.Dx(), b.Dy()
	for i := 0; i < passes; i++ {
		w = max(w/2, 1)
		h = max(h/2, 1)
		next := image.NewAlpha(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Bounds(), current, current.Bounds(), draw.Src, nil)
		chain = append(chain, next)
		current = next
	}

	for i := passes - 2; i >= 0; i-- {
		up := image.NewAlpha(chain[i].Bounds())
		draw.BiLinear.Scale(up, up.Bounds(), current, current.Bounds(), draw.Src, nil)
		current = up
	}

	dst := image.NewAlpha(b)
	draw.BiLinear.Scale(dst, b, current, current.Bounds(), draw.Src, nil)
	return dst
}
