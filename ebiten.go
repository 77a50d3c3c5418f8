package chunkmap

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// EbitenSurface is a Surface backed by an *ebiten.Image. Drawing is
// rasterized in software and the texture is refreshed lazily when Image is
// called; only the rectangle touched since the last upload is written.
type EbitenSurface struct {
	raster *RasterSurface
	image  *ebiten.Image
	upload []byte
}

// NewEbitenSurface creates a transparent surface covering w x h map pixels
// at the given scale.
func NewEbitenSurface(w, h, scale float64) *EbitenSurface {
	r := NewRasterSurface(w, h, scale)
	pw, ph := r.Size()
	return &EbitenSurface{raster: r, image: ebiten.NewImage(pw, ph)}
}

// EbitenSurfaces is a SurfaceFactory producing EbitenSurfaces.
func EbitenSurfaces(w, h, scale float64) Surface {
	return NewEbitenSurface(w, h, scale)
}

// Image returns the texture, uploading pending changes first.
func (s *EbitenSurface) Image() *ebiten.Image {
	d := s.raster.takeDamage()
	if d.Empty() {
		return s.image
	}
	src := s.raster.img
	if d == src.Bounds() {
		s.image.WritePixels(src.Pix)
		return s.image
	}
	s.upload = packRect(s.upload[:0], src, d)
	s.image.SubImage(d).(*ebiten.Image).WritePixels(s.upload)
	return s.image
}

// packRect appends the pixels of r, row by row without stride padding.
func packRect(dst []byte, img *image.RGBA, r image.Rectangle) []byte {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		dst = append(dst, img.Pix[i:i+4*r.Dx()]...)
	}
	return dst
}

// Dispose releases the texture. The surface must not be used afterwards.
func (s *EbitenSurface) Dispose() {
	if s.image != nil {
		s.image.Deallocate()
		s.image = nil
	}
}

func (s *EbitenSurface) Size() (int, int) { return s.raster.Size() }
func (s *EbitenSurface) Scale() float64 { return s.raster.Scale() }

func (s *EbitenSurface) Clear() {
	s.raster.Clear()
}

func (s *EbitenSurface) FillRect(r Rect, c Color) {
	s.raster.FillRect(r, c)
}

func (s *EbitenSurface) SetRect(r Rect, c Color) {
	s.raster.SetRect(r, c)
}

func (s *EbitenSurface) ClearRect(r Rect) {
	s.raster.ClearRect(r)
}

func (s *EbitenSurface) FillPath(p *Path, c Color) {
	s.raster.FillPath(p, c)
}

func (s *EbitenSurface) ClearPath(p *Path) {
	s.raster.ClearPath(p)
}

func (s *EbitenSurface) StrokePath(p *Path, st StrokeStyle) {
	s.raster.StrokePath(p, st)
}

func (s *EbitenSurface) Clip(region []Rect) { s.raster.Clip(region) }
func (s *EbitenSurface) ResetClip() { s.raster.ResetClip() }

func (s *EbitenSurface) DrawImage(src image.Image, op DrawOptions) {
	s.raster.DrawImage(src, op)
}

func (s *EbitenSurface) DrawSurface(src Surface, op DrawOptions) {
	if es, ok := src.(*EbitenSurface); ok {
		src = es.raster
	}
	s.raster.DrawSurface(src, op)
}

func (s *EbitenSurface) NewLayer(w, h float64) Surface {
	return NewEbitenSurface(w, h, s.raster.Scale())
}

func (s *EbitenSurface) Snapshot() *image.RGBA { return s.raster.Snapshot() }

// --- Display ---

// perspectiveSubdiv is the mesh resolution used to approximate the
// projective warp with affine triangles.
const perspectiveSubdiv = 16

// DrawLayer draws img, a layer at the given map-to-image scale, onto dst
// as the view shows it. A flat view is a single scaled blit; a tilted or
// rotated view warps a subdivided mesh through the view's projection.
func DrawLayer(dst, img *ebiten.Image, scale float64, v View) {
	if img == nil || v.Zoom <= 0 {
		return
	}
	if !v.Perspective() {
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(v.Zoom/scale, v.Zoom/scale)
		op.GeoM.Translate(v.PanX, v.PanY)
		op.Filter = ebiten.FilterLinear
		dst.DrawImage(img, &op)
		return
	}
	verts, inds := perspectiveMesh(img.Bounds(), scale, v, perspectiveSubdiv)
	if len(inds) == 0 {
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.Filter = ebiten.FilterLinear
	dst.DrawTriangles(verts, inds, img, &op)
}

// perspectiveMesh projects an n x n lattice over the image bounds. Cells
// with a corner behind the camera are dropped.
func perspectiveMesh(b image.Rectangle, scale float64, v View, n int) ([]ebiten.Vertex, []uint16) {
	w, h := float64(b.Dx()), float64(b.Dy())
	verts := make([]ebiten.Vertex, 0, (n+1)*(n+1))
	visible := make([]bool, 0, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			sx := w * float64(i) / float64(n)
			sy := h * float64(j) / float64(n)
			x, y, ok := v.MapToScreen(sx/scale, sy/scale)
			verts = append(verts, ebiten.Vertex{
				DstX:   float32(x),
				DstY:   float32(y),
				SrcX:   float32(b.Min.X) + float32(sx),
				SrcY:   float32(b.Min.Y) + float32(sy),
				ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
			})
			visible = append(visible, ok)
		}
	}
	inds := make([]uint16, 0, n*n*6)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := j*(n+1) + i
			r, dn, dr := a+1, a+n+1, a+n+2
			if !visible[a] || !visible[r] || !visible[dn] || !visible[dr] {
				continue
			}
			inds = append(inds, uint16(a), uint16(r), uint16(dn), uint16(r), uint16(dr), uint16(dn))
		}
	}
	return verts, inds
}

// ToEbitenImage uploads an image into a new texture.
func ToEbitenImage(img image.Image) *ebiten.Image {
	if img == nil {
		return nil
	}
	return ebiten.NewImageFromImage(img)
}

// FillViewport paints the area around the map.
func FillViewport(dst *ebiten.Image, c Color) {
	dst.Fill(c.RGBA())
}
