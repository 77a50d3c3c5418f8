package chunkmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io/fs"
	"math"
	"strconv"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/leonelquinteros/gotext"
	"golang.org/x/image/draw"
)

// MarkerType is the icon shown on a tile. MarkerNone means no entry.
type MarkerType uint8

const (
	MarkerNone MarkerType = iota
	MarkerSkull
	MarkerRedSkull
	MarkerLock
)

// MarkerCycle is the order a tile steps through on repeated marker
// toggles. After the last type the marker is removed.
var MarkerCycle = []MarkerType{MarkerSkull, MarkerRedSkull, MarkerLock}

var markerNames = [...]string{"", "skull", "redskull", "lock"}

func (m MarkerType) String() string {
	if int(m) < len(markerNames) {
		return markerNames[m]
	}
	return "MarkerType(" + strconv.Itoa(int(m)) + ")"
}

// Label returns the human-readable name used in the tooltip.
func (m MarkerType) Label() string {
	switch m {
	case MarkerSkull:
		return gotext.Get("Skull")
	case MarkerRedSkull:
		return gotext.Get("Red Skull")
	case MarkerLock:
		return gotext.Get("Lock")
	}
	return ""
}

// ParseMarkerType parses a persisted marker name.
func ParseMarkerType(s string) (MarkerType, error) {
	for i, n := range markerNames {
		if i > 0 && n == s {
			return MarkerType(i), nil
		}
	}
	return MarkerNone, fmt.Errorf("unknown marker type %q", s)
}

// Next returns the marker that follows m in MarkerCycle, wrapping to
// MarkerNone after the last type.
func (m MarkerType) Next() MarkerType {
	if m == MarkerNone {
		return MarkerCycle[0]
	}
	for i, t := range MarkerCycle {
		if t == m && i+1 < len(MarkerCycle) {
			return MarkerCycle[i+1]
		}
	}
	return MarkerNone
}

// MinimapColor is the dot color for m on the minimap.
func (m MarkerType) MinimapColor() Color {
	switch m {
	case MarkerSkull:
		return MustHexColor("#ffffff")
	case MarkerLock:
		return MustHexColor("#ffaa00")
	}
	return MustHexColor("#ff4444")
}

// CycleMarker advances k's entry in markers and returns the new value.
// Reaching MarkerNone deletes the entry.
func CycleMarker(markers map[TileKey]MarkerType, k TileKey) MarkerType {
	next := markers[k].Next()
	if next == MarkerNone {
		delete(markers, k)
	} else {
		markers[k] = next
	}
	return next
}

// --- Position ---

// MarkerPosition anchors marker icons within their tile.
type MarkerPosition uint8

const (
	MarkerTopRight MarkerPosition = iota
	MarkerTopLeft
	MarkerBottomLeft
	MarkerBottomRight
	MarkerCenter
)

var markerPositionNames = [...]string{"top-right", "top-left", "bottom-left", "bottom-right", "center"}

func (p MarkerPosition) String() string {
	if int(p) < len(markerPositionNames) {
		return markerPositionNames[p]
	}
	return markerPositionNames[MarkerTopRight]
}

// ParseMarkerPosition parses a position name.
func ParseMarkerPosition(s string) (MarkerPosition, error) {
	for i, n := range markerPositionNames {
		if n == s {
			return MarkerPosition(i), nil
		}
	}
	return MarkerTopRight, fmt.Errorf("unknown marker position %q", s)
}

// Anchor geometry: corner anchors are placed for a DefaultMarkerSize icon
// inset by markerPad, whatever the configured size.
const (
	DefaultMarkerSize = 50
	markerPad         = 6

	markerShadowBlur   = 10
	markerShadowOffset = 3
)

var markerShadowColor = Color{0, 0, 0, 0.7}

// markerAnchor returns the icon center for a tile.
func markerAnchor(r Rect, pos MarkerPosition) (x, y float64) {
	near := DefaultMarkerSize/2.0 + markerPad
	switch pos {
	case MarkerTopLeft:
		return r.X + near, r.Y + near
	case MarkerBottomLeft:
		return r.X + near, r.Y + r.Height - near
	case MarkerBottomRight:
		return r.X + r.Width - near, r.Y + r.Height - near
	case MarkerCenter:
		return r.Center()
	}
	return r.X + r.Width - near, r.Y + near
}

// fitIcon scales a w x h icon to fit a size x size box, keeping its
// aspect ratio.
func fitIcon(w, h, size int) (dw, dh int) {
	s := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	return int(math.Round(float64(w) * s)), int(math.Round(float64(h) * s))
}

// --- Icons ---

// MarkerIcons holds the icon image for each marker type. Drawing waits
// until every type has either loaded or failed; failed types are skipped.
type MarkerIcons struct {
	icons    map[MarkerType]image.Image
	failed   map[MarkerType]error
	prepared *ristretto.Cache[string, *preparedIcon]
}

type preparedIcon struct {
	icon   *image.RGBA
	shadow *image.RGBA
	pad    int
}

// NewMarkerIcons creates an empty icon set.
func NewMarkerIcons() (*MarkerIcons, error) {
	cache, err := ristretto.NewCache[string, *preparedIcon](&ristretto.Config[string, *preparedIcon]{
		NumCounters: 1000,
		MaxCost:     16 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create icon cache: %w", err)
	}
	return &MarkerIcons{
		icons:    make(map[MarkerType]image.Image),
		failed:   make(map[MarkerType]error),
		prepared: cache,
	}, nil
}

// Set records the loaded icon for t.
func (m *MarkerIcons) Set(t MarkerType, img image.Image) {
	delete(m.failed, t)
	m.icons[t] = img
}

// Fail records that t's icon could not be loaded.
func (m *MarkerIcons) Fail(t MarkerType, err error) {
	delete(m.icons, t)
	m.failed[t] = err
}

// LoadFS decodes each icon from fsys. Every type is resolved either way:
// a type whose file is missing or undecodable is marked failed and its
// markers are skipped. The returned error joins the individual failures.
func (m *MarkerIcons) LoadFS(fsys fs.FS, paths map[MarkerType]string) error {
	var errs []error
	for _, t := range MarkerCycle {
		path, ok := paths[t]
		if !ok {
			err := fmt.Errorf("marker %s: no icon path", t)
			m.Fail(t, err)
			errs = append(errs, err)
			continue
		}
		img, err := decodeImageFS(fsys, path)
		if err != nil {
			err = fmt.Errorf("marker %s: %w", t, err)
			m.Fail(t, err)
			errs = append(errs, err)
			continue
		}
		m.Set(t, img)
	}
	return errors.Join(errs...)
}

func decodeImageFS(fsys fs.FS, path string) (image.Image, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Ready reports whether every marker type has been resolved.
func (m *MarkerIcons) Ready() bool {
	for _, t := range MarkerCycle {
		_, ok := m.icons[t]
		_, bad := m.failed[t]
		if !ok && !bad {
			return false
		}
	}
	return true
}

// Icon returns the raw icon for t.
func (m *MarkerIcons) Icon(t MarkerType) (image.Image, bool) {
	img, ok := m.icons[t]
	return img, ok
}

// Close releases the prepared-icon cache.
func (m *MarkerIcons) Close() {
	m.prepared.Close()
}

// prepare returns t's icon scaled to fit size with nearest-neighbor
// sampling, plus its blurred drop shadow.
func (m *MarkerIcons) prepare(t MarkerType, size int) (*preparedIcon, bool) {
	src, ok := m.icons[t]
	if !ok {
		return nil, false
	}
	key := t.String() + "@" + strconv.Itoa(size)
	if p, ok := m.prepared.Get(key); ok {
		return p, true
	}

	sb := src.Bounds()
	if sb.Empty() {
		return nil, false
	}
	dw, dh := fitIcon(sb.Dx(), sb.Dy(), size)
	if dw <= 0 || dh <= 0 {
		return nil, false
	}
	icon := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.NearestNeighbor.Scale(icon, icon.Bounds(), src, sb, draw.Src, nil)

	pad := markerShadowBlur * 2
	mask := image.NewAlpha(image.Rect(0, 0, dw+pad*2, dh+pad*2))
	draw.Draw(mask, icon.Bounds().Add(image.Pt(pad, pad)), icon, image.Point{}, draw.Src)
	blurred := kawaseBlur(mask, markerShadowBlur)
	shadow := image.NewRGBA(mask.Bounds())
	draw.DrawMask(shadow, shadow.Bounds(), image.NewUniform(markerShadowColor.RGBA()), image.Point{}, blurred, image.Point{}, draw.Src)

	p := &preparedIcon{icon: icon, shadow: shadow, pad: pad}
	m.prepared.Set(key, p, int64(len(icon.Pix)+len(shadow.Pix)))
	m.prepared.Wait()
	return p, true
}

// DefaultMarkerIcons draws simple built-in icons, for hosts that ship no
// artwork.
func DefaultMarkerIcons() (*MarkerIcons, error) {
	icons, err := NewMarkerIcons()
	if err != nil {
		return nil, err
	}
	icons.Set(MarkerSkull, drawSkullIcon(color.RGBA{0xee, 0xee, 0xee, 0xff}))
	icons.Set(MarkerRedSkull, drawSkullIcon(color.RGBA{0xdd, 0x22, 0x22, 0xff}))
	icons.Set(MarkerLock, drawLockIcon())
	return icons, nil
}

func drawSkullIcon(c color.RGBA) image.Image {
	s := NewRasterSurface(25, 25, 1)
	fill := Color{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, 1}
	head := &Path{}
	for i := 0; i < 24; i++ {
		a := 2 * math.Pi * float64(i) / 24
		x, y := 12.5+10*math.Cos(a), 11+9*math.Sin(a)
		if i == 0 {
			head.MoveTo(x, y)
		} else {
			head.LineTo(x, y)
		}
	}
	head.Close()
	s.FillPath(head, fill)
	s.FillRect(Rect{X: 7, Y: 17, Width: 11, Height: 6}, fill)
	s.ClearRect(Rect{X: 7, Y: 9, Width: 4, Height: 4})
	s.ClearRect(Rect{X: 14, Y: 9, Width: 4, Height: 4})
	s.ClearRect(Rect{X: 11, Y: 20, Width: 1, Height: 3})
	s.ClearRect(Rect{X: 14, Y: 20, Width: 1, Height: 3})
	return s.Image()
}

func drawLockIcon() image.Image {
	s := NewRasterSurface(25, 25, 1)
	gold := MustHexColor("#ffaa00")
	shackle := &Path{}
	shackle.MoveTo(7, 12)
	shackle.LineTo(7, 7)
	shackle.LineTo(18, 7)
	shackle.LineTo(18, 12)
	s.StrokePath(shackle, StrokeStyle{Width: 3, Color: gold})
	s.FillRect(Rect{X: 4, Y: 11, Width: 17, Height: 12}, gold)
	s.ClearRect(Rect{X: 11, Y: 15, Width: 3, Height: 4})
	return s.Image()
}

// --- Layer ---

// drawMarkers renders every marker: a blurred, offset drop shadow first,
// then the crisp icon. Nothing is drawn until the icons are ready.
func drawMarkers(s Surface, g Grid, markers map[TileKey]MarkerType, icons *MarkerIcons, size int, pos MarkerPosition) {
	if icons == nil || !icons.Ready() {
		return
	}
	if size <= 0 {
		size = DefaultMarkerSize
	}
	keys := make([]TileKey, 0, len(markers))
	for k := range markers {
		keys = append(keys, k)
	}
	for _, k := range SortTiles(keys) {
		if !g.ContainsKey(k) {
			continue
		}
		p, ok := icons.prepare(markers[k], size)
		if !ok {
			continue
		}
		ax, ay := markerAnchor(g.rect(k), pos)
		w, h := float64(p.icon.Bounds().Dx()), float64(p.icon.Bounds().Dy())
		x, y := ax-w/2, ay-h/2
		pad := float64(p.pad)

		s.DrawImage(p.shadow, DrawOptions{
			X:      x + markerShadowOffset - pad,
			Y:      y + markerShadowOffset - pad,
			Width:  w + pad*2,
			Height: h + pad*2,
			Smooth: true,
		})
		s.DrawImage(p.icon, DrawOptions{X: x, Y: y, Width: w, Height: h})
	}
}
