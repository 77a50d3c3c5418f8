package chunkmap

// --- Constants ---

// PointerButton identifies the pressed pointer button.
type PointerButton uint8

const (
	ButtonPrimary PointerButton = iota
	ButtonSecondary
	ButtonMiddle
)

// paintMode is fixed by the first tile a paint stroke touches.
type paintMode uint8

const (
	paintUnlock paintMode = iota
	paintLock
)

// --- Pointer state ---

type pointerInput struct {
	dragging bool
	painting bool
	mode     paintMode

	startX, startY       float64
	panStartX, panStartY float64

	hovered    TileKey
	hasHovered bool
}

// Hovered returns the tile under the pointer after the last PointerMove.
func (s *Session) Hovered() (TileKey, bool) {
	return s.input.hovered, s.input.hasHovered
}

// Dragging reports whether a pan drag is in progress.
func (s *Session) Dragging() bool { return s.input.dragging }

// Painting reports whether a paint stroke is in progress.
func (s *Session) Painting() bool { return s.input.painting }

// --- Pointer events ---

// PointerDown starts a gesture at viewport position (x, y). With Ctrl or
// Meta held it cycles the marker under the pointer; with Shift it starts a
// paint stroke whose mode (unlock or lock) follows the first tile touched;
// otherwise it starts a pan drag. Only the primary button is handled.
func (s *Session) PointerDown(x, y float64, button PointerButton, mods KeyModifiers) {
	if button != ButtonPrimary {
		return
	}
	in := &s.input

	if mods&(ModCtrl|ModMeta) != 0 {
		if k, ok := s.TileAt(x, y); ok {
			s.CycleMarker(k)
		}
		return
	}

	if mods&ModShift != 0 {
		in.painting = true
		in.mode = paintUnlock
		if k, ok := s.TileAt(x, y); ok && s.unlocked.Has(k) {
			in.mode = paintLock
		}
		s.paintAt(x, y)
		return
	}

	in.dragging = true
	in.startX, in.startY = x, y
	in.panStartX, in.panStartY = s.view.PanX, s.view.PanY
}

// PointerMove updates the hovered tile and continues any drag or paint
// stroke.
func (s *Session) PointerMove(x, y float64) {
	in := &s.input
	in.hovered, in.hasHovered = s.TileAt(x, y)

	if in.dragging {
		s.SetPan(in.panStartX+(x-in.startX), in.panStartY+(y-in.startY))
	}
	if in.painting {
		s.paintAt(x, y)
	}
}

// PointerUp ends the current gesture. A finished drag or paint stroke
// saves.
func (s *Session) PointerUp() {
	in := &s.input
	if in.dragging || in.painting {
		s.persist()
	}
	in.dragging = false
	in.painting = false
}

// PointerLeave clears the hovered tile.
func (s *Session) PointerLeave() {
	s.input.hasHovered = false
}

func (s *Session) paintAt(x, y float64) {
	k, ok := s.TileAt(x, y)
	if !ok {
		return
	}
	if s.input.mode == paintUnlock {
		s.Unlock(k)
	} else {
		s.Lock(k)
	}
}

// Wheel zooms one notch around viewport position (x, y). deltaY < 0 zooms
// in.
func (s *Session) Wheel(x, y, deltaY float64) {
	if deltaY == 0 {
		return
	}
	s.view.ZoomAt(x, y, deltaY)
	s.redrawMinimap()
	s.persist()
}

// --- Keyboard ---

// KeyDown handles a shortcut key. The queue keys act on the hovered tile
// and are ignored during playback.
func (s *Session) KeyDown(key Key) {
	switch key {
	case KeyGrid:
		s.ToggleGrid()
	case KeyQueueAdd:
		if k, ok := s.Hovered(); ok {
			s.QueueAdd(k)
		}
	case KeyQueueDel, KeyQueueDelBk:
		if k, ok := s.Hovered(); ok {
			s.QueueRemove(k)
		}
	}
}
