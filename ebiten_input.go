package chunkmap

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyBindings maps ebiten keys to session shortcuts.
var KeyBindings = map[ebiten.Key]Key{
	ebiten.KeyG:         KeyGrid,
	ebiten.KeyDigit1:    KeyQueueAdd,
	ebiten.KeyDelete:    KeyQueueDel,
	ebiten.KeyBackspace: KeyQueueDelBk,
}

// InputPoller feeds ebiten mouse, touch, wheel and keyboard state into a
// session once per Update. The viewport sits at (OriginX, OriginY) in
// window coordinates.
type InputPoller struct {
	OriginX, OriginY float64

	down     bool
	touch    ebiten.TouchID
	touching bool
	inside   bool
	touchIDs []ebiten.TouchID
}

// Poll reads this tick's input and dispatches it to s.
func (p *InputPoller) Poll(s *Session) {
	mods := readModifiers()

	if p.pollTouch(s, mods) {
		p.pollKeys(s)
		return
	}

	mx, my := ebiten.CursorPosition()
	x, y := float64(mx)-p.OriginX, float64(my)-p.OriginY
	w, h := s.View().ViewportW, s.View().ViewportH
	inside := x >= 0 && y >= 0 && x < w && y < h

	switch {
	case inside:
		s.PointerMove(x, y)
	case p.inside:
		s.PointerLeave()
	}
	p.inside = inside

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && inside {
		s.PointerDown(x, y, ButtonPrimary, mods)
		p.down = true
	}
	if p.down && !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		s.PointerUp()
		p.down = false
	}

	if _, dy := ebiten.Wheel(); dy != 0 && inside {
		// ebiten reports wheel-up as positive; the session zooms in on
		// negative deltas.
		s.Wheel(x, y, -dy)
	}

	p.pollKeys(s)
}

// pollTouch drives the first active touch as the primary pointer. It
// reports whether a touch gesture owns this tick.
func (p *InputPoller) pollTouch(s *Session, mods KeyModifiers) bool {
	p.touchIDs = ebiten.AppendTouchIDs(p.touchIDs[:0])

	if p.touching {
		for _, id := range p.touchIDs {
			if id == p.touch {
				tx, ty := ebiten.TouchPosition(id)
				s.PointerMove(float64(tx)-p.OriginX, float64(ty)-p.OriginY)
				return true
			}
		}
		s.PointerUp()
		s.PointerLeave()
		p.touching = false
		return true
	}

	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		tx, ty := ebiten.TouchPosition(id)
		x, y := float64(tx)-p.OriginX, float64(ty)-p.OriginY
		p.touch, p.touching = id, true
		s.PointerMove(x, y)
		s.PointerDown(x, y, ButtonPrimary, mods)
		return true
	}
	return false
}

func (p *InputPoller) pollKeys(s *Session) {
	for k, key := range KeyBindings {
		if inpututil.IsKeyJustPressed(k) {
			s.KeyDown(key)
		}
	}
}

// readModifiers reads the modifier keys held this tick.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}
