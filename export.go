package chunkmap

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ExportFileName is the file an export is written to.
const ExportFileName = "chunkmap_export.png"

// ErrNoMapImage is returned by exports when the session has no map image.
var ErrNoMapImage = errors.New("chunkmap: no map image")

// ExportMode selects what an export covers.
type ExportMode uint8

const (
	// ExportFull renders the whole map at native resolution.
	ExportFull ExportMode = iota
	// ExportViewport renders only what the flat viewport shows.
	ExportViewport
)

func (m ExportMode) String() string {
	if m == ExportViewport {
		return "viewport"
	}
	return "full"
}

// ExportImage composites the map image with the darkness and marker
// layers. Session state is never modified.
func (s *Session) ExportImage(mode ExportMode) (*image.RGBA, error) {
	if s.mapImage == nil {
		return nil, ErrNoMapImage
	}
	layers := []Surface{s.overlay, s.markerLayer}

	if mode == ExportViewport {
		v := s.view
		w, h := int(v.ViewportW), int(v.ViewportH)
		if w <= 0 || h <= 0 || v.Zoom <= 0 {
			return nil, fmt.Errorf("export viewport: empty viewport %dx%d", w, h)
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		// Map pixel (x, y) lands at (PanX + x*Zoom, PanY + y*Zoom).
		drawAffine(dst, s.mapImage, 1, v)
		for _, l := range layers {
			drawAffine(dst, l.Snapshot(), l.Scale(), v)
		}
		return dst, nil
	}

	g := s.grid
	out := NewRasterSurface(g.Width(), g.Height(), 1)
	out.DrawImage(s.mapImage, DrawOptions{Width: g.Width(), Height: g.Height(), Smooth: true})
	for _, l := range layers {
		out.DrawSurface(l, DrawOptions{Smooth: true})
	}
	return out.Image(), nil
}

func drawAffine(dst *image.RGBA, src image.Image, srcScale float64, v View) {
	k := v.Zoom / srcScale
	m := f64.Aff3{
		k, 0, v.PanX,
		0, k, v.PanY,
	}
	draw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Over, nil)
}

// ExportPNG writes the export as a PNG to w.
func (s *Session) ExportPNG(w io.Writer, mode ExportMode) error {
	img, err := s.ExportImage(mode)
	if err != nil {
		return err
	}
	if err := png.Encode(w, toNRGBA(img)); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ExportFile writes the export to dir/ExportFileName and returns the
// notification to show. Failures are logged and reported, never fatal.
func (s *Session) ExportFile(dir string, mode ExportMode) Notification {
	path := filepath.Join(dir, ExportFileName)
	if err := s.writeExport(path, mode); err != nil {
		s.log.WithError(err).WithField("mode", mode.String()).Error("export failed")
		return notifyExportFailed(err)
	}
	s.log.WithField("path", path).Info("exported")
	return notifyExported(path)
}

func (s *Session) writeExport(path string, mode ExportMode) error {
	img, err := s.ExportImage(mode)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	return writePNG(path, toNRGBA(img))
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// toNRGBA converts premultiplied RGBA to straight alpha.
func toNRGBA(src *image.RGBA) *image.NRGBA {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := img.PixOffset(0, y)
		for x := 0; x < b.Dx()*4; x += 4 {
			r, g, bl, a := src.Pix[si+x], src.Pix[si+x+1], src.Pix[si+x+2], src.Pix[si+x+3]
			if a > 0 && a < 255 {
				r = uint8(min(int(r)*255/int(a), 255))
				g = uint8(min(int(g)*255/int(a), 255))
				bl = uint8(min(int(bl)*255/int(a), 255))
			}
			img.Pix[di+x] = r
			img.Pix[di+x+1] = g
			img.Pix[di+x+2] = bl
			img.Pix[di+x+3] = a
		}
	}
	return img
}
