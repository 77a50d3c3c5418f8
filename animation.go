package chunkmap

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Animation timings.
const (
	RevealDuration   = 400 * time.Millisecond
	GlowFadeDuration = 400 * time.Millisecond
)

type revealAnim struct {
	start    time.Time
	duration time.Duration
}

func (a revealAnim) progress(now time.Time) float64 {
	if a.duration <= 0 {
		return 1
	}
	return clamp01(float64(now.Sub(a.start)) / float64(a.duration))
}

// Animations is the set of tiles whose reveal is in flight. An entry exists
// only while its tile is unlocked and its progress is below 1.
type Animations struct {
	m        map[TileKey]revealAnim
	duration time.Duration
}

// NewAnimations creates an empty set whose reveals last d. Zero uses
// RevealDuration.
func NewAnimations(d time.Duration) *Animations {
	if d <= 0 {
		d = RevealDuration
	}
	return &Animations{m: make(map[TileKey]revealAnim), duration: d}
}

// Trigger starts (or restarts) the reveal of k at now.
func (a *Animations) Trigger(k TileKey, now time.Time) {
	a.m[k] = revealAnim{start: now, duration: a.duration}
}

// Has reports whether k is animating.
func (a *Animations) Has(k TileKey) bool {
	_, ok := a.m[k]
	return ok
}

// Remove drops k's animation, if any.
func (a *Animations) Remove(k TileKey) {
	delete(a.m, k)
}

// Clear drops every animation.
func (a *Animations) Clear() {
	clear(a.m)
}

// Len returns the number of animating tiles.
func (a *Animations) Len() int { return len(a.m) }

// Progress returns k's raw progress in [0, 1].
func (a *Animations) Progress(k TileKey, now time.Time) (float64, bool) {
	an, ok := a.m[k]
	if !ok {
		return 0, false
	}
	return an.progress(now), true
}

// Keys returns the animating tiles in row-major order.
func (a *Animations) Keys() []TileKey {
	keys := make([]TileKey, 0, len(a.m))
	for k := range a.m {
		keys = append(keys, k)
	}
	return SortTiles(keys)
}

// --- Glow fade ---

// GlowFade ramps the cached glow in with a quadratic ease-out after it has
// been hidden. While it runs, settled per-tile borders fade out by the
// complementary amount.
type GlowFade struct {
	duration time.Duration
	start    time.Time
	tween    *gween.Tween
	active   bool
}

// NewGlowFade creates an idle fade lasting d. Zero uses GlowFadeDuration.
func NewGlowFade(d time.Duration) *GlowFade {
	if d <= 0 {
		d = GlowFadeDuration
	}
	return &GlowFade{duration: d}
}

// Start begins the fade at now, restarting it if already running.
func (f *GlowFade) Start(now time.Time) {
	f.start = now
	f.tween = gween.New(0, 1, float32(f.duration.Seconds()), ease.OutQuad)
	f.active = true
}

// Stop ends the fade immediately.
func (f *GlowFade) Stop() {
	f.active = false
}

// Active reports whether the fade is running.
func (f *GlowFade) Active() bool { return f.active }

// Progress returns the raw fade progress at now, clamped to [0, 1].
func (f *GlowFade) Progress(now time.Time) float64 {
	if !f.active {
		return 1
	}
	return clamp01(float64(now.Sub(f.start)) / float64(f.duration))
}

// Alpha returns the glow opacity at now: 1 when idle, otherwise t(2-t).
func (f *GlowFade) Alpha(now time.Time) float64 {
	if !f.active {
		return 1
	}
	t := f.Progress(now)
	if t >= 1 {
		return 1
	}
	v, _ := f.tween.Set(float32(t * f.duration.Seconds()))
	return clamp01(float64(v))
}

// BorderAlpha is the multiplier for settled per-tile borders during the
// fade, the inverse of Alpha.
func (f *GlowFade) BorderAlpha(now time.Time) float64 {
	return 1 - f.Alpha(now)
}
