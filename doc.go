// Package chunkmap is an interactive fog-of-war overlay for a large raster
// map cut into square tiles ("chunks"), rendered with [Ebitengine].
//
// A [Session] owns the whole map state: which tiles are unlocked, the marker
// on each tile, the playback queue, the pan/zoom/perspective view and the
// user's settings. Locked tiles are darkened; unlocking a tile plays a short
// reveal animation in one of six styles, and the settled unlocked region is
// outlined by a cached glow that is rebuilt only when its inputs change.
//
// # Quick start
//
//	sess, err := chunkmap.Open(ctx, chunkmap.Options{
//		Store:      chunkmap.NewFileStore(".", chunkmap.DefaultSlot),
//		ViewportW:  1280,
//		ViewportH:  800,
//		NewSurface: chunkmap.EbitenSurfaces,
//	})
//	if err != nil {
//		return err
//	}
//	defer sess.Close(ctx)
//
// The host forwards pointer, wheel and key events to the session (or lets an
// [InputPoller] read them from ebiten), calls [Session.Frame] once per
// display frame, and draws the session's layers with [DrawLayer].
//
// # Time
//
// Nothing in the package starts a goroutine. Reveal animations, the glow
// fade, playback steps and autosave are driven by a [Scheduler] whose clock
// is injectable; tests use a [ManualClock] and step frames by hand.
//
// # Rendering
//
// Renderers draw into the [Surface] interface in map-space coordinates.
// [RasterSurface] is a pure-Go software implementation used for tests,
// exports and the minimap; [EbitenSurface] adds a GPU texture on top of it.
//
// # Persistence
//
// State is stored as one JSON document per slot through the [Store]
// interface. [DecodeState] also accepts the legacy formats: a bare array of
// unlocked keys, and the "skulls" list that predates typed markers.
// Persistence never fails an interactive operation; errors are logged at
// debug level.
//
// [Ebitengine]: https://ebitengine.org
package chunkmap
