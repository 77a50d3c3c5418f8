package chunkmap

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestDebugRedrawLogging(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	s, err := Open(context.Background(), Options{
		Grid:   NewGrid(64, 64, 32),
		Clock:  NewManualClock(epoch),
		Logger: log,
		Debug:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	hook.Reset()

	s.Unlock(TileKey{0, 0})
	var redraws int
	for _, e := range hook.AllEntries() {
		if e.Message != "overlay redraw" {
			continue
		}
		redraws++
		if e.Data["animating"] != 1 {
			t.Errorf("animating = %v, want 1", e.Data["animating"])
		}
	}
	if redraws != 1 {
		t.Errorf("%d redraw entries, want 1", redraws)
	}
}

func TestDebugOffIsSilent(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	s, err := Open(context.Background(), Options{Grid: NewGrid(64, 64, 32), Logger: log})
	if err != nil {
		t.Fatal(err)
	}
	hook.Reset()
	s.Unlock(TileKey{0, 0})
	for _, e := range hook.AllEntries() {
		if e.Message == "overlay redraw" {
			t.Fatal("redraw logged without Debug")
		}
	}
}
