package chunkmap

import (
	"math"
	"testing"
)

func TestViewRoundTripFlat(t *testing.T) {
	g := DefaultGrid()
	v := NewView(1280, 720)
	v.Fit(g.Width(), g.Height())
	v.PanX += 37.5
	v.PanY -= 12.25

	g.Each(func(k TileKey) {
		sx, sy, ok := v.TileCenterToScreen(g, k)
		if !ok {
			t.Fatalf("tile %v projected behind camera", k)
		}
		got, ok := v.ScreenToTile(g, sx, sy)
		if !ok || got != k {
			t.Errorf("round trip %v = %v, %v", k, got, ok)
		}
	})
}

func TestViewAffineInverse(t *testing.T) {
	v := View{PanX: 100, PanY: -50, Zoom: 0.5, ViewportW: 800, ViewportH: 600}
	mx, my, ok := v.ScreenToMap(300, 250)
	if !ok {
		t.Fatal("ScreenToMap failed")
	}
	assertNear(t, "mx", mx, 400)
	assertNear(t, "my", my, 600)
}

func TestViewRoundTripTilted(t *testing.T) {
	g := DefaultGrid()
	v := NewView(1280, 720)
	v.Fit(g.Width(), g.Height())
	v.Zoom *= 3
	v.TiltX = 35
	v.TiltY = -12
	v.RotateZ = 20

	center, ok := v.ScreenToTile(g, 640, 360)
	if !ok {
		t.Fatal("no tile under viewport center")
	}
	checked := 0
	for dr := -3; dr <= 3; dr++ {
		for dc := -3; dc <= 3; dc++ {
			k := TileKey{center.Col + dc, center.Row + dr}
			if !g.ContainsKey(k) {
				continue
			}
			sx, sy, ok := v.TileCenterToScreen(g, k)
			if !ok {
				continue
			}
			got, ok := v.ScreenToTile(g, sx, sy)
			if !ok {
				t.Errorf("tile %v: no hit at (%.2f, %.2f)", k, sx, sy)
				continue
			}
			if abs(got.Col-k.Col) > 1 || abs(got.Row-k.Row) > 1 {
				t.Errorf("tile %v resolved to %v", k, got)
			}
			checked++
		}
	}
	if checked == 0 {
		t.Fatal("no tiles checked")
	}
}

func TestViewTiltedMapPointRoundTrip(t *testing.T) {
	v := NewView(1000, 800)
	v.Zoom = 0.2
	v.PanX, v.PanY = -200, -100
	v.TiltX = 50
	v.RotateZ = -30

	sx, sy, ok := v.MapToScreen(4321, 2468)
	if !ok {
		t.Fatal("point behind camera")
	}
	mx, my, ok := v.ScreenToMap(sx, sy)
	if !ok {
		t.Fatal("ScreenToMap failed")
	}
	if !approxEqual(mx, 4321, 1e-6) || !approxEqual(my, 2468, 1e-6) {
		t.Errorf("round trip = (%v, %v), want (4321, 2468)", mx, my)
	}
}

func TestViewParallelRay(t *testing.T) {
	v := NewView(800, 600)
	v.TiltX = 90
	// With the map edge-on, a ray through the horizontal midline lies in
	// the map plane.
	if _, _, ok := v.ScreenToMap(500, 300); ok {
		t.Error("ScreenToMap on edge-on plane succeeded")
	}
	if _, ok := v.ScreenToTile(DefaultGrid(), 500, 300); ok {
		t.Error("ScreenToTile on edge-on plane succeeded")
	}
}

func TestViewOutsideGrid(t *testing.T) {
	v := NewView(800, 600)
	if _, ok := v.ScreenToTile(DefaultGrid(), -10, -10); ok {
		t.Error("point left of map resolved to a tile")
	}
}

func TestViewZoomAtKeepsAnchor(t *testing.T) {
	v := NewView(800, 600)
	v.Zoom = 0.5
	v.PanX, v.PanY = 20, 30
	bx, by, _ := v.ScreenToMap(250, 175)

	v.ZoomAt(250, 175, -1)
	assertNear(t, "zoom", v.Zoom, 0.5*WheelZoomStep)
	ax, ay, _ := v.ScreenToMap(250, 175)
	if !approxEqual(ax, bx, 1e-9) || !approxEqual(ay, by, 1e-9) {
		t.Errorf("anchor moved from (%v,%v) to (%v,%v)", bx, by, ax, ay)
	}

	v.ZoomAt(250, 175, 1)
	assertNear(t, "zoom", v.Zoom, 0.5)
}

func TestViewZoomClamp(t *testing.T) {
	v := NewView(800, 600)
	v.Zoom = MaxZoom
	v.ZoomAt(0, 0, -1)
	if v.Zoom != MaxZoom {
		t.Errorf("Zoom = %v, want %v", v.Zoom, MaxZoom)
	}
	v.Zoom = MinZoom
	v.ZoomAt(0, 0, 1)
	if v.Zoom != MinZoom {
		t.Errorf("Zoom = %v, want %v", v.Zoom, MinZoom)
	}
}

func TestViewFit(t *testing.T) {
	v := NewView(800, 600)
	v.Fit(9216, 6528)
	want := math.Min(800.0/9216, 600.0/6528) * 0.95
	assertNear(t, "zoom", v.Zoom, want)
	assertNear(t, "panX", v.PanX, (800-9216*want)/2)
	assertNear(t, "panY", v.PanY, (600-6528*want)/2)
}

func TestViewVisibleMapRect(t *testing.T) {
	v := View{PanX: -100, PanY: -50, Zoom: 0.5, ViewportW: 800, ViewportH: 600}
	r := v.VisibleMapRect()
	want := Rect{X: 200, Y: 100, Width: 1600, Height: 1200}
	if r != want {
		t.Errorf("VisibleMapRect = %+v, want %+v", r, want)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
