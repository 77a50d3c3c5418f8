package chunkmap

import (
	"time"

	"github.com/sirupsen/logrus"
)

// redrawStats holds timing for one overlay redraw.
// Only populated when Options.Debug is set.
type redrawStats struct {
	darknessTime time.Duration
	minimapTime  time.Duration
	animating    int
	rebuilt      bool
	lowQuality   bool
}

// debugLog reports a redraw's timings at debug level.
func (s *Session) debugLog(stats redrawStats) {
	if !s.debug {
		return
	}
	s.log.WithFields(logrus.Fields{
		"darkness":  stats.darknessTime,
		"minimap":   stats.minimapTime,
		"total":     stats.darknessTime + stats.minimapTime,
		"animating": stats.animating,
		"rebuilt":   stats.rebuilt,
		"low_q":     stats.lowQuality,
	}).Debug("overlay redraw")
}

// debugSlowRedraw is the redraw time past which a warning is logged in
// debug mode.
const debugSlowRedraw = 16 * time.Millisecond

func (s *Session) debugCheckSlow(stats redrawStats) {
	if total := stats.darknessTime + stats.minimapTime; total > debugSlowRedraw {
		s.log.WithField("total", total).Warn("overlay redraw exceeded one frame")
	}
}
