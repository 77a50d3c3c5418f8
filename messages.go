package chunkmap

import (
	"github.com/leonelquinteros/gotext"
)

// User-facing text goes through gotext so a host can load a locale with
// gotext.Configure; untranslated strings format as written.

// Counter formats the unlocked-tile counter.
func Counter(unlocked, total int) string {
	return gotext.Get("%d / %d chunks unlocked", unlocked, total)
}

// Tooltip formats the hover text for a tile. queuePos is the 1-based queue
// position, or 0 when the tile is not queued.
func Tooltip(k TileKey, unlocked bool, marker MarkerType, queuePos int) string {
	status := gotext.Get("Locked")
	if unlocked {
		status = gotext.Get("Unlocked")
	}
	text := gotext.Get("Chunk (%d, %d) — %s", k.Col, k.Row, status)
	if marker != MarkerNone {
		text += " [" + marker.Label() + "]"
	}
	if queuePos > 0 {
		text += gotext.Get(" #%d", queuePos)
	}
	return text
}

// NotificationLevel grades a Notification.
type NotificationLevel uint8

const (
	NotifyInfo NotificationLevel = iota
	NotifyError
)

func (l NotificationLevel) String() string {
	if l == NotifyError {
		return "error"
	}
	return "info"
}

// Notification is a short, non-fatal message for the user.
type Notification struct {
	Level   NotificationLevel
	Message string
}

func notifyExported(path string) Notification {
	return Notification{Level: NotifyInfo, Message: gotext.Get("Exported %s", path)}
}

func notifyExportFailed(err error) Notification {
	return Notification{Level: NotifyError, Message: gotext.Get("Export failed: %v", err)}
}
