package chunkmap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"
)

func TestMarkerCycleOrder(t *testing.T) {
	markers := make(map[TileKey]MarkerType)
	k := TileKey{3, 4}
	want := []MarkerType{MarkerSkull, MarkerRedSkull, MarkerLock, MarkerNone}
	for i, w := range want {
		got := CycleMarker(markers, k)
		if got != w {
			t.Fatalf("step %d: CycleMarker = %v, want %v", i, got, w)
		}
	}
	if _, ok := markers[k]; ok {
		t.Error("entry still present after cycling back to none")
	}
	if len(markers) != 0 {
		t.Errorf("len(markers) = %d, want 0", len(markers))
	}
}

func TestMarkerTypeText(t *testing.T) {
	for _, m := range MarkerCycle {
		got, err := ParseMarkerType(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMarkerType(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMarkerType(""); err == nil {
		t.Error("empty marker name parsed")
	}
	if got := MarkerRedSkull.Label(); got != "Red Skull" {
		t.Errorf("Label = %q, want %q", got, "Red Skull")
	}
}

func TestMarkerAnchor(t *testing.T) {
	r := Rect{X: 192, Y: 384, Width: 192, Height: 192}
	near := DefaultMarkerSize/2.0 + markerPad
	tests := []struct {
		pos    MarkerPosition
		wx, wy float64
	}{
		{MarkerTopRight, 384 - near, 384 + near},
		{MarkerTopLeft, 192 + near, 384 + near},
		{MarkerBottomLeft, 192 + near, 576 - near},
		{MarkerBottomRight, 384 - near, 576 - near},
		{MarkerCenter, 288, 480},
	}
	for _, tt := range tests {
		x, y := markerAnchor(r, tt.pos)
		assertNear(t, tt.pos.String()+" x", x, tt.wx)
		assertNear(t, tt.pos.String()+" y", y, tt.wy)
	}
}

func TestFitIconKeepsAspect(t *testing.T) {
	w, h := fitIcon(25, 50, 50)
	if w != 25 || h != 50 {
		t.Errorf("fitIcon(25, 50, 50) = %d, %d, want 25, 50", w, h)
	}
	w, h = fitIcon(100, 50, 40)
	if w != 40 || h != 20 {
		t.Errorf("fitIcon(100, 50, 40) = %d, %d, want 40, 20", w, h)
	}
}

func solidIcon(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestMarkerIconsReadyGating(t *testing.T) {
	icons, err := NewMarkerIcons()
	if err != nil {
		t.Fatal(err)
	}
	defer icons.Close()

	g := NewGrid(200, 200, 100)
	s := NewRasterSurface(g.Width(), g.Height(), 1)
	markers := map[TileKey]MarkerType{{0, 0}: MarkerSkull, {1, 1}: MarkerLock}
	red := color.RGBA{0xff, 0, 0, 0xff}

	icons.Set(MarkerSkull, solidIcon(red))
	drawMarkers(s, g, markers, icons, 20, MarkerCenter)
	if got := s.At(50, 50); got.A != 0 {
		t.Errorf("drew before all icons resolved: %v", got)
	}

	icons.Set(MarkerRedSkull, solidIcon(red))
	icons.Fail(MarkerLock, errors.New("404"))
	if !icons.Ready() {
		t.Fatal("Ready = false after every type resolved")
	}
	drawMarkers(s, g, markers, icons, 20, MarkerCenter)
	if got := s.At(50, 50); got != red {
		t.Errorf("skull center = %v, want %v", got, red)
	}
	if got := s.At(150, 150); got.R != 0 {
		t.Errorf("failed lock icon drew: %v", got)
	}
}

func TestMarkerIconsLoadFS(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidIcon(color.RGBA{0, 0xff, 0, 0xff})); err != nil {
		t.Fatal(err)
	}
	fsys := fstest.MapFS{
		"skull.png":    {Data: buf.Bytes()},
		"redskull.png": {Data: buf.Bytes()},
		"lock.png":     {Data: []byte("not a png")},
	}
	icons, err := NewMarkerIcons()
	if err != nil {
		t.Fatal(err)
	}
	defer icons.Close()

	err = icons.LoadFS(fsys, map[MarkerType]string{
		MarkerSkull:    "skull.png",
		MarkerRedSkull: "redskull.png",
		MarkerLock:     "lock.png",
	})
	if err == nil {
		t.Error("LoadFS returned nil error with an undecodable icon")
	}
	if !icons.Ready() {
		t.Error("Ready = false; a failed type must still count as resolved")
	}
	if _, ok := icons.Icon(MarkerSkull); !ok {
		t.Error("skull icon missing")
	}
	if _, ok := icons.Icon(MarkerLock); ok {
		t.Error("lock icon present after decode failure")
	}
}

func TestDefaultMarkerIcons(t *testing.T) {
	icons, err := DefaultMarkerIcons()
	if err != nil {
		t.Fatal(err)
	}
	defer icons.Close()
	if !icons.Ready() {
		t.Fatal("default icons not ready")
	}
	p, ok := icons.prepare(MarkerLock, 50)
	if !ok {
		t.Fatal("prepare failed")
	}
	if b := p.icon.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("prepared size = %v, want 50x50", b.Size())
	}
	if p.shadow.Bounds().Dx() != 50+p.pad*2 {
		t.Errorf("shadow width = %d, want %d", p.shadow.Bounds().Dx(), 50+p.pad*2)
	}
}
