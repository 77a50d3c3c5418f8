package chunkmap

import (
	"context"
	"errors"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultAutosaveInterval is how often a session flushes its state.
const DefaultAutosaveInterval = 2 * time.Second

const saveTimeout = 5 * time.Second

// SurfaceFactory creates a blank surface covering w x h map pixels at scale.
type SurfaceFactory func(w, h, scale float64) Surface

func rasterFactory(w, h, scale float64) Surface {
	return NewRasterSurface(w, h, scale)
}

// Options configures a Session. Zero values select defaults.
type Options struct {
	Grid  Grid
	Store Store
	Clock Clock
	// Logger receives persistence and asset diagnostics. nil discards them.
	Logger logrus.FieldLogger

	ViewportW, ViewportH float64
	// Depth is the perspective camera distance.
	Depth float64

	RevealDuration   time.Duration
	GlowFadeDuration time.Duration
	AutosaveInterval time.Duration

	// OverlayScale is the resolution of the overlay layers relative to the
	// map image. Zero means 1.
	OverlayScale float64
	MinimapWidth int
	// NewSurface creates the layer surfaces. nil uses RasterSurface.
	NewSurface SurfaceFactory

	// Icons supplies the marker artwork. nil uses DefaultMarkerIcons. The
	// session closes the icons on Close.
	Icons *MarkerIcons
	// MapImage is the base map, used by the minimap and exports.
	MapImage image.Image

	// Debug logs the timing of every overlay redraw.
	Debug bool
}

// Session owns all state of one map instance: the unlocked set, markers,
// queue, view and settings, plus the derived animation and glow state. It
// is created by Open, mutated only from the host's UI goroutine, and
// flushed by Close.
type Session struct {
	grid  Grid
	log   logrus.FieldLogger
	store Store
	sched *Scheduler

	unlocked TileSet
	markers  map[TileKey]MarkerType
	settings Settings
	view     View

	anims      *Animations
	fade       *GlowFade
	glowHidden bool

	darkness *DarknessLayer
	playback *Playback
	minimap  *Minimap
	icons    *MarkerIcons
	mapImage image.Image

	overlay     Surface
	gridLayer   Surface
	markerLayer Surface
	minimapSurf Surface

	animLoop *FrameLoop
	fadeLoop *FrameLoop
	autosave TimerID

	input  pointerInput
	closed bool
	debug  bool
}

// Open loads the session state from opts.Store, falling back to a fresh
// state when the store is empty, unavailable, or holds a malformed
// document. It fails only when the options themselves are unusable.
func Open(ctx context.Context, opts Options) (*Session, error) {
	g := opts.Grid
	if g.Cols <= 0 || g.Rows <= 0 {
		g = DefaultGrid()
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	store := opts.Store
	if store == nil {
		store = NewMemoryStore(nil)
	}
	icons := opts.Icons
	if icons == nil {
		var err error
		if icons, err = DefaultMarkerIcons(); err != nil {
			return nil, err
		}
	}
	newSurface := opts.NewSurface
	if newSurface == nil {
		newSurface = rasterFactory
	}
	scale := opts.OverlayScale
	if scale <= 0 {
		scale = 1
	}
	interval := opts.AutosaveInterval
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}

	s := &Session{
		grid:     g,
		log:      log,
		store:    store,
		sched:    NewScheduler(opts.Clock),
		anims:    NewAnimations(opts.RevealDuration),
		fade:     NewGlowFade(opts.GlowFadeDuration),
		darkness: NewDarknessLayer(g),
		minimap:  NewMinimap(g, opts.MinimapWidth),
		icons:    icons,
		mapImage: opts.MapImage,
		debug:    opts.Debug,
	}
	s.playback = NewPlayback(s.sched, playbackHost{s})
	s.animLoop = s.sched.NewFrameLoop(s.animFrame)
	s.fadeLoop = s.sched.NewFrameLoop(s.fadeFrame)

	s.overlay = newSurface(g.Width(), g.Height(), scale)
	s.gridLayer = newSurface(g.Width(), g.Height(), scale)
	s.markerLayer = newSurface(g.Width(), g.Height(), scale)
	s.minimapSurf = newSurface(g.Width(), g.Height(), s.minimap.Scale())
	if opts.MapImage != nil {
		s.minimap.SetMapImage(opts.MapImage)
	}

	st := s.load(ctx)
	s.unlocked = st.Unlocked
	s.markers = st.Markers
	s.settings = st.Settings
	s.playback.SetQueue(st.Queue, g.ContainsKey)

	s.view = NewView(opts.ViewportW, opts.ViewportH)
	if opts.Depth > 0 {
		s.view.Depth = opts.Depth
	}
	s.applyPerspective()
	if st.View.Zoom > 0 {
		s.view.PanX, s.view.PanY, s.view.Zoom = st.View.PanX, st.View.PanY, st.View.Zoom
	} else {
		s.view.Fit(g.Width(), g.Height())
	}

	s.autosave = s.sched.Every(interval, s.persist)
	s.redrawAll()
	return s, nil
}

func (s *Session) load(ctx context.Context) State {
	data, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			s.log.Debug("no saved state, starting fresh")
		} else {
			s.log.WithError(err).Debug("load state failed, starting fresh")
		}
		return NewState()
	}
	st, err := DecodeState(data, s.grid)
	if err != nil {
		s.log.WithError(err).Debug("saved state unreadable, starting fresh")
		return NewState()
	}
	s.log.WithFields(logrus.Fields{
		"unlocked": st.Unlocked.Size(),
		"markers":  len(st.Markers),
		"queue":    len(st.Queue),
	}).Debug("state loaded")
	return st
}

// --- Lifecycle ---

// Frame advances the session one display frame: due timers run, then the
// reveal and fade loops.
func (s *Session) Frame() {
	s.sched.Frame()
}

// Scheduler returns the session's scheduler.
func (s *Session) Scheduler() *Scheduler { return s.sched }

// Snapshot returns a copy of the persisted state.
func (s *Session) Snapshot() State {
	st := State{
		Unlocked: NewTileSet(SortedKeys(s.unlocked)...),
		Markers:  make(map[TileKey]MarkerType, len(s.markers)),
		Queue:    append([]TileKey(nil), s.playback.Queue()...),
		View:     ViewState{PanX: s.view.PanX, PanY: s.view.PanY, Zoom: s.view.Zoom},
		Settings: s.settings,
	}
	for k, t := range s.markers {
		st.Markers[k] = t
	}
	return st
}

// Save writes the current state to the store.
func (s *Session) Save(ctx context.Context) error {
	data, err := EncodeState(s.Snapshot())
	if err != nil {
		return err
	}
	return s.store.Save(ctx, data)
}

// persist saves and swallows failures; the interactive session never
// depends on persistence succeeding.
func (s *Session) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		s.log.WithError(err).Debug("save state failed")
	}
}

// Close stops playback and every timer, then performs a final save.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.playback.Stop()
	s.sched.Cancel(s.autosave)
	s.animLoop.Cancel()
	s.fadeLoop.Cancel()
	err := s.Save(ctx)
	if err != nil {
		s.log.WithError(err).Debug("final save failed")
	}
	s.icons.Close()
	return err
}

// --- Tiles ---

// Grid returns the session's grid.
func (s *Session) Grid() Grid { return s.grid }

// Unlocked reports whether k is unlocked.
func (s *Session) Unlocked(k TileKey) bool { return s.unlocked.Has(k) }

// UnlockedCount returns the number of unlocked tiles.
func (s *Session) UnlockedCount() int { return s.unlocked.Size() }

// Animating reports whether k's reveal is in flight.
func (s *Session) Animating(k TileKey) bool { return s.anims.Has(k) }

// Unlock reveals k with an animation. Unlocking an unlocked or
// out-of-grid tile does nothing and reports false, as does any edit while
// playback owns the unlocked set. Unlock does not save; the change is
// written by the next autosave or at the end of a paint stroke.
func (s *Session) Unlock(k TileKey) bool {
	if s.playback.Playing() || !s.grid.ContainsKey(k) || s.unlocked.Has(k) {
		return false
	}
	s.revealTile(k)
	return true
}

func (s *Session) revealTile(k TileKey) {
	s.unlocked.Put(k)
	s.anims.Trigger(k, s.sched.Now())
	s.animLoop.Request()
	s.redrawOverlay()
}

// Lock darkens k immediately, cancelling its reveal. It reports whether k
// was unlocked. Like Unlock, it leaves saving to autosave.
func (s *Session) Lock(k TileKey) bool {
	if s.playback.Playing() {
		return false
	}
	was := s.unlocked.Has(k)
	s.unlocked.Remove(k)
	s.anims.Remove(k)
	s.redrawOverlay()
	return was
}

// LockAll darkens every tile. Ignored during playback.
func (s *Session) LockAll() {
	if s.playback.Playing() {
		return
	}
	s.clearUnlocked()
	s.persist()
}

func (s *Session) clearUnlocked() {
	s.unlocked = NewTileSet()
	s.anims.Clear()
	s.redrawOverlay()
}

// UnlockAll reveals every tile at once, without animation. Ignored during
// playback.
func (s *Session) UnlockAll() {
	if s.playback.Playing() {
		return
	}
	s.grid.Each(func(k TileKey) { s.unlocked.Put(k) })
	s.redrawOverlay()
	s.persist()
}

// --- Markers ---

// Marker returns k's marker.
func (s *Session) Marker(k TileKey) MarkerType { return s.markers[k] }

// Markers returns a copy of the marker map.
func (s *Session) Markers() map[TileKey]MarkerType {
	m := make(map[TileKey]MarkerType, len(s.markers))
	for k, t := range s.markers {
		m[k] = t
	}
	return m
}

// CycleMarker advances k's marker and saves.
func (s *Session) CycleMarker(k TileKey) MarkerType {
	if !s.grid.ContainsKey(k) {
		return MarkerNone
	}
	t := CycleMarker(s.markers, k)
	s.redrawMarkers()
	s.redrawMinimap()
	s.persist()
	return t
}

// --- Queue ---

// Queue returns the playback queue.
func (s *Session) Queue() []TileKey {
	return append([]TileKey(nil), s.playback.Queue()...)
}

// QueueAdd appends k to the queue. Refused during playback and for
// duplicates.
func (s *Session) QueueAdd(k TileKey) bool {
	if !s.grid.ContainsKey(k) || !s.playback.Add(k) {
		return false
	}
	s.persist()
	return true
}

// QueueRemove removes k from the queue. Refused during playback.
func (s *Session) QueueRemove(k TileKey) bool {
	if !s.playback.Remove(k) {
		return false
	}
	s.persist()
	return true
}

// QueueMove moves the entry at i one place up (dir < 0) or down.
func (s *Session) QueueMove(i, dir int) bool {
	if dir < 0 {
		dir = -1
	} else {
		dir = 1
	}
	if !s.playback.Move(i, dir) {
		return false
	}
	s.persist()
	return true
}

// QueueReset stops playback and re-locks every queued tile so the queue
// can animate from scratch.
func (s *Session) QueueReset() {
	if s.playback.Playing() {
		s.playback.Stop()
	}
	for _, k := range s.playback.Queue() {
		s.unlocked.Remove(k)
		s.anims.Remove(k)
	}
	s.redrawOverlay()
	s.persist()
}

// QueueClear stops playback and empties the queue.
func (s *Session) QueueClear() {
	s.playback.Clear()
	s.persist()
}

// SetLoop enables or disables looping playback.
func (s *Session) SetLoop(on bool) { s.playback.SetLoop(on) }

// Loop reports whether playback loops.
func (s *Session) Loop() bool { return s.playback.Loop() }

// Play starts playback with the configured delay, or stops it if running.
func (s *Session) Play() {
	s.playback.Start(s.settings.QueueDelay)
}

// StopPlayback stops playback. It is idempotent.
func (s *Session) StopPlayback() {
	if s.playback.Playing() {
		s.playback.Stop()
	}
}

// Playing reports whether playback is running.
func (s *Session) Playing() bool { return s.playback.Playing() }

// PlaybackStep returns the index of the next queue entry playback reveals.
func (s *Session) PlaybackStep() int { return s.playback.Step() }

// playbackHost adapts the session to PlaybackHost.
type playbackHost struct{ s *Session }

func (h playbackHost) ClearUnlocked() { h.s.clearUnlocked() }
func (h playbackHost) RevealTile(k TileKey) { h.s.revealTile(k) }
func (h playbackHost) HideGlow() { h.s.hideGlow() }
func (h playbackHost) ShowGlow() { h.s.showGlow() }
func (h playbackHost) Persist() { h.s.persist() }

// --- Glow ---

// GlowHidden reports whether the cached glow is suppressed.
func (s *Session) GlowHidden() bool { return s.glowHidden }

// GlowFading reports whether the glow fade-in is running.
func (s *Session) GlowFading() bool { return s.fade.Active() }

// GlowCache returns the overlay's glow cache.
func (s *Session) GlowCache() *GlowCache { return s.darkness.GlowCache() }

func (s *Session) hideGlow() {
	s.glowHidden = true
	s.fade.Stop()
	s.fadeLoop.Cancel()
	s.redrawOverlay()
}

func (s *Session) showGlow() {
	if !s.glowHidden {
		return
	}
	s.darkness.GlowCache().Invalidate()
	s.fade.Start(s.sched.Now())
	s.glowHidden = false
	s.fadeLoop.Request()
	s.redrawOverlay()
}

// animFrame redraws while reveals are in flight and stops rescheduling
// once none remain.
func (s *Session) animFrame() {
	if s.anims.Len() == 0 {
		return
	}
	s.redrawOverlay()
	if s.anims.Len() > 0 {
		s.animLoop.Request()
	}
}

func (s *Session) fadeFrame() {
	if !s.fade.Active() {
		return
	}
	if s.fade.Progress(s.sched.Now()) >= 1 {
		s.fade.Stop()
		s.redrawOverlay()
		return
	}
	s.redrawOverlay()
	s.fadeLoop.Request()
}

// --- Settings ---

// Settings returns the current settings.
func (s *Session) Settings() Settings { return s.settings }

// UpdateSettings applies fn to the settings, redraws every layer and
// saves. Glow changes reach the cache through its fingerprint.
func (s *Session) UpdateSettings(fn func(*Settings)) {
	fn(&s.settings)
	s.settings.DarknessOpacity = clamp01(s.settings.DarknessOpacity)
	s.settings.GridOpacity = clamp01(s.settings.GridOpacity)
	if s.settings.MarkerSize <= 0 {
		s.settings.MarkerSize = DefaultMarkerSize
	}
	if s.settings.QueueDelay <= 0 {
		s.settings.QueueDelay = DefaultQueueDelay
	}
	s.applyPerspective()
	s.redrawAll()
	s.persist()
}

// ToggleGrid shows or hides the grid overlay.
func (s *Session) ToggleGrid() {
	s.settings.GridVisible = !s.settings.GridVisible
	s.redrawGrid()
	s.persist()
}

// --- View ---

// View returns the current view.
func (s *Session) View() View { return s.view }

// SetViewport records a new viewport size.
func (s *Session) SetViewport(w, h float64) {
	s.view.ViewportW, s.view.ViewportH = w, h
	s.redrawMinimap()
}

// FitView fits the map into the viewport.
func (s *Session) FitView() {
	s.view.Fit(s.grid.Width(), s.grid.Height())
	s.redrawMinimap()
	s.persist()
}

// SetPan moves the map to (x, y) in viewport pixels.
func (s *Session) SetPan(x, y float64) {
	s.view.PanX, s.view.PanY = x, y
	s.redrawMinimap()
}

func (s *Session) applyPerspective() {
	s.view.TiltX = s.settings.TiltX
	s.view.TiltY = s.settings.TiltY
	s.view.RotateZ = s.settings.RotateZ
}

// TileAt resolves a viewport position to a tile.
func (s *Session) TileAt(sx, sy float64) (TileKey, bool) {
	return s.view.ScreenToTile(s.grid, sx, sy)
}

// --- Text ---

// CounterText returns the unlocked counter.
func (s *Session) CounterText() string {
	return Counter(s.unlocked.Size(), s.grid.Total())
}

// TooltipText returns the hover text for the hovered tile, or "".
func (s *Session) TooltipText() string {
	k, ok := s.Hovered()
	if !ok {
		return ""
	}
	return Tooltip(k, s.unlocked.Has(k), s.markers[k], s.playback.Index(k)+1)
}

// --- Layers ---

// OverlayLayer returns the darkness and glow layer.
func (s *Session) OverlayLayer() Surface { return s.overlay }

// GridLayer returns the grid overlay layer.
func (s *Session) GridLayer() Surface { return s.gridLayer }

// MarkerLayer returns the marker icon layer.
func (s *Session) MarkerLayer() Surface { return s.markerLayer }

// MinimapLayer returns the minimap surface.
func (s *Session) MinimapLayer() Surface { return s.minimapSurf }

// Minimap returns the minimap geometry.
func (s *Session) Minimap() *Minimap { return s.minimap }

func (s *Session) frame() Frame {
	return Frame{
		Unlocked:   s.unlocked,
		Anims:      s.anims,
		Settings:   s.settings,
		GlowHidden: s.glowHidden,
		Fade:       s.fade,
		Now:        s.sched.Now(),
	}
}

func (s *Session) redrawOverlay() {
	if !s.debug {
		s.darkness.Redraw(s.overlay, s.frame())
		s.redrawMinimap()
		return
	}

	glow := s.darkness.GlowCache()
	before := glow.Rebuilds()
	start := time.Now()
	s.darkness.Redraw(s.overlay, s.frame())
	mid := time.Now()
	s.redrawMinimap()

	stats := redrawStats{
		darknessTime: mid.Sub(start),
		minimapTime:  time.Since(mid),
		animating:    s.anims.Len(),
		rebuilt:      glow.Rebuilds() != before,
		lowQuality:   glow.LowQuality(),
	}
	s.debugLog(stats)
	s.debugCheckSlow(stats)
}

func (s *Session) redrawGrid() {
	DrawGrid(s.gridLayer, s.grid, s.settings)
}

func (s *Session) redrawMarkers() {
	s.markerLayer.Clear()
	drawMarkers(s.markerLayer, s.grid, s.markers, s.icons, s.settings.MarkerSize, s.settings.MarkerPosition)
}

func (s *Session) redrawMinimap() {
	s.minimap.Draw(s.minimapSurf, s.unlocked, s.markers, s.settings, s.view)
}

func (s *Session) redrawAll() {
	s.redrawOverlay()
	s.redrawGrid()
	s.redrawMarkers()
}

// IconsLoaded redraws the marker layer once the host has finished
// resolving marker icons.
func (s *Session) IconsLoaded() {
	if !s.icons.Ready() {
		s.log.Warn("marker icons not ready; markers stay hidden")
		return
	}
	s.redrawMarkers()
}
