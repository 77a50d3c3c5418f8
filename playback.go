package chunkmap

import "time"

// PlaybackHost is the session side of a Playback: the state the queue
// replays into.
type PlaybackHost interface {
	// ClearUnlocked locks every tile.
	ClearUnlocked()
	// RevealTile unlocks k and starts its reveal animation.
	RevealTile(k TileKey)
	// HideGlow hides the cached glow and cancels any fade in progress.
	HideGlow()
	// ShowGlow unhides a hidden glow and starts its fade-in.
	ShowGlow()
	// Persist saves the current state.
	Persist()
}

// Playback replays the queue one tile per step. It is idle or playing; a
// pending step timer exists only while playing.
type Playback struct {
	sched *Scheduler
	host  PlaybackHost

	queue []TileKey
	loop  bool

	playing bool
	step    int
	delay   time.Duration
	timer   TimerID
}

// NewPlayback creates an idle controller that schedules its steps on sched.
func NewPlayback(sched *Scheduler, host PlaybackHost) *Playback {
	return &Playback{sched: sched, host: host}
}

// Playing reports whether playback is running.
func (p *Playback) Playing() bool { return p.playing }

// Step returns the index of the next queue entry to reveal.
func (p *Playback) Step() int { return p.step }

// Loop reports whether playback restarts after the last tile.
func (p *Playback) Loop() bool { return p.loop }

// SetLoop enables or disables looping. It takes effect at the end of the
// current pass.
func (p *Playback) SetLoop(on bool) { p.loop = on }

// Queue returns the queued tiles in order. The slice must not be modified.
func (p *Playback) Queue() []TileKey { return p.queue }

// SetQueue replaces the queue. Duplicates and keys rejected by keep are
// dropped. Ignored while playing.
func (p *Playback) SetQueue(keys []TileKey, keep func(TileKey) bool) {
	if p.playing {
		return
	}
	queue := make([]TileKey, 0, len(keys))
	seen := make(map[TileKey]bool, len(keys))
	for _, k := range keys {
		if (keep == nil || keep(k)) && !seen[k] {
			seen[k] = true
			queue = append(queue, k)
		}
	}
	p.queue = queue
}

// Index returns k's position in the queue, or -1.
func (p *Playback) Index(k TileKey) int {
	for i, q := range p.queue {
		if q == k {
			return i
		}
	}
	return -1
}

// Add appends k. It reports false, leaving the queue unchanged, when k is
// already queued or playback is running.
func (p *Playback) Add(k TileKey) bool {
	if p.playing || p.Index(k) >= 0 {
		return false
	}
	p.queue = append(p.queue, k)
	return true
}

// Remove deletes k from the queue. It reports false when k is not queued
// or playback is running.
func (p *Playback) Remove(k TileKey) bool {
	if p.playing {
		return false
	}
	i := p.Index(k)
	if i < 0 {
		return false
	}
	p.queue = append(p.queue[:i], p.queue[i+1:]...)
	return true
}

// Move swaps the entry at i with its neighbour in direction dir (-1 up,
// +1 down). It reports false when the move is impossible or playback is
// running.
func (p *Playback) Move(i, dir int) bool {
	j := i + dir
	if p.playing || i < 0 || i >= len(p.queue) || j < 0 || j >= len(p.queue) {
		return false
	}
	p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	return true
}

// Clear stops playback and empties the queue.
func (p *Playback) Clear() {
	p.Stop()
	p.queue = nil
}

// Start begins playback, or stops it if it is already running. An empty
// queue does nothing. Starting locks every tile, hides the glow, and
// reveals the first tile immediately; each later tile follows after delay.
// A non-positive delay uses DefaultQueueDelay.
func (p *Playback) Start(delay time.Duration) {
	if len(p.queue) == 0 {
		return
	}
	if p.playing {
		p.Stop()
		return
	}
	if delay <= 0 {
		delay = DefaultQueueDelay
	}
	p.host.ClearUnlocked()
	p.host.HideGlow()
	p.playing = true
	p.step = 0
	p.delay = delay
	p.tick()
}

func (p *Playback) tick() {
	p.timer = 0
	if !p.playing {
		return
	}
	if p.step >= len(p.queue) {
		if !p.loop {
			p.Stop()
			return
		}
		p.step = 0
		p.host.ClearUnlocked()
	}
	p.host.RevealTile(p.queue[p.step])
	p.host.Persist()
	p.step++
	p.timer = p.sched.After(p.delay, p.tick)
}

// Stop ends playback, cancelling any pending step before it returns, and
// shows the glow again. Stopping an idle controller only shows a glow that
// is still hidden.
func (p *Playback) Stop() {
	if p.timer != 0 {
		p.sched.Cancel(p.timer)
		p.timer = 0
	}
	p.playing = false
	p.host.ShowGlow()
}
