package chunkmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultQueueDelay is the playback step delay when none is configured.
const DefaultQueueDelay = 500 * time.Millisecond

// Settings holds every persisted toolbar setting.
type Settings struct {
	DarknessOpacity float64
	DarknessColor   Color

	GridVisible bool
	GridColor   Color
	GridOpacity float64

	GlowEnabled bool
	Glow        GlowStyle

	// Perspective angles in degrees.
	TiltX, TiltY, RotateZ float64

	MarkerSize     int
	MarkerPosition MarkerPosition

	RevealStyle RevealStyle
	QueueDelay  time.Duration
}

// DefaultSettings returns the settings of a fresh map.
func DefaultSettings() Settings {
	return Settings{
		DarknessOpacity: 0.7,
		DarknessColor:   ColorBlack,
		GridVisible:     false,
		GridColor:       ColorWhite,
		GridOpacity:     0.3,
		GlowEnabled:     true,
		Glow:            DefaultGlowStyle(),
		MarkerSize:      DefaultMarkerSize,
		MarkerPosition:  MarkerTopRight,
		RevealStyle:     RevealGrow,
		QueueDelay:      DefaultQueueDelay,
	}
}

// darkness returns the darkness color carrying the opacity in its alpha.
func (s Settings) darkness() Color {
	return s.DarknessColor.WithAlpha(s.DarknessOpacity)
}

// ViewState is the persisted pan and zoom. A zero Zoom means no view was
// saved and the map should be fitted to the viewport.
type ViewState struct {
	PanX, PanY, Zoom float64
}

// State is all authoritative, persisted map state.
type State struct {
	Unlocked TileSet
	Markers  map[TileKey]MarkerType
	Queue    []TileKey
	View     ViewState
	Settings Settings
}

// NewState returns an empty state with default settings.
func NewState() State {
	return State{
		Unlocked: NewTileSet(),
		Markers:  make(map[TileKey]MarkerType),
		Settings: DefaultSettings(),
	}
}

// --- Wire format ---

type stateDoc struct {
	Unlocked []string          `json:"unlocked"`
	Markers  map[string]string `json:"markers,omitempty"`
	Skulls   []string          `json:"skulls,omitempty"`
	Queue    []string          `json:"queue"`
	View     *viewDoc          `json:"view,omitempty"`
	Settings *settingsDoc      `json:"settings,omitempty"`
}

type viewDoc struct {
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
	Zoom float64 `json:"zoom"`
}

// settingsDoc mirrors the toolbar controls, whose values are strings.
type settingsDoc struct {
	DarknessOpacity flexString `json:"darknessOpacity,omitempty"`
	DarknessColor   flexString `json:"darknessColor,omitempty"`
	GridToggle      flexString `json:"gridToggle,omitempty"`
	GridColor       flexString `json:"gridColor,omitempty"`
	GridOpacity     flexString `json:"gridOpacity,omitempty"`
	GlowToggle      flexString `json:"glowToggle,omitempty"`
	GlowColor       flexString `json:"glowColor,omitempty"`
	GlowSize        flexString `json:"glowSize,omitempty"`
	GlowIntensity   flexString `json:"glowIntensity,omitempty"`
	GlowPower       flexString `json:"glowPower,omitempty"`
	GlowBorder      flexString `json:"glowBorder,omitempty"`
	GlowCorners     flexString `json:"glowCorners,omitempty"`
	PerspTilt       flexString `json:"perspTilt,omitempty"`
	PerspTiltY      flexString `json:"perspTiltY,omitempty"`
	PerspRotate     flexString `json:"perspRotate,omitempty"`
	SkullSize       flexString `json:"skullSize,omitempty"`
	SkullPosition   flexString `json:"skullPosition,omitempty"`
	AnimStyle       flexString `json:"animStyle,omitempty"`
	QueueDelay      flexString `json:"queueDelay,omitempty"`
}

// flexString accepts a JSON string, number, or boolean and keeps its text.
// It always encodes as a string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case bytes.Equal(b, []byte("true")):
		*f = "on"
	case bytes.Equal(b, []byte("false")):
		*f = "off"
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("setting value %s: %w", b, err)
		}
		*f = flexString(n.String())
	}
	return nil
}

func formatFloat(v float64) flexString {
	return flexString(strconv.FormatFloat(v, 'f', -1, 64))
}

func formatToggle(on bool) flexString {
	if on {
		return "on"
	}
	return "off"
}

// EncodeState serializes s to the persisted JSON document.
func EncodeState(s State) ([]byte, error) {
	doc := stateDoc{
		Unlocked: make([]string, 0, s.Unlocked.Size()),
		Markers:  make(map[string]string, len(s.Markers)),
		Queue:    make([]string, 0, len(s.Queue)),
		View:     &viewDoc{PanX: s.View.PanX, PanY: s.View.PanY, Zoom: s.View.Zoom},
	}
	for _, k := range SortedKeys(s.Unlocked) {
		doc.Unlocked = append(doc.Unlocked, k.String())
	}
	for k, t := range s.Markers {
		if t != MarkerNone {
			doc.Markers[k.String()] = t.String()
		}
	}
	for _, k := range s.Queue {
		doc.Queue = append(doc.Queue, k.String())
	}

	st := s.Settings
	doc.Settings = &settingsDoc{
		DarknessOpacity: formatFloat(st.DarknessOpacity),
		DarknessColor:   flexString(st.DarknessColor.Hex()),
		GridToggle:      formatToggle(st.GridVisible),
		GridColor:       flexString(st.GridColor.Hex()),
		GridOpacity:     formatFloat(st.GridOpacity),
		GlowToggle:      formatToggle(st.GlowEnabled),
		GlowColor:       flexString(st.Glow.Color.Hex()),
		GlowSize:        formatFloat(st.Glow.Size),
		GlowIntensity:   formatFloat(st.Glow.Intensity),
		GlowPower:       flexString(strconv.Itoa(st.Glow.power())),
		GlowBorder:      formatFloat(st.Glow.Border),
		GlowCorners:     flexString(st.Glow.Corners.String()),
		PerspTilt:       formatFloat(st.TiltX),
		PerspTiltY:      formatFloat(st.TiltY),
		PerspRotate:     formatFloat(st.RotateZ),
		SkullSize:       flexString(strconv.Itoa(st.MarkerSize)),
		SkullPosition:   flexString(st.MarkerPosition.String()),
		AnimStyle:       flexString(st.RevealStyle.String()),
		QueueDelay:      flexString(strconv.FormatInt(st.QueueDelay.Milliseconds(), 10)),
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return b, nil
}

// DecodeState parses a persisted document for grid g. A bare JSON array is
// the legacy format and lists only the unlocked tiles. A legacy "skulls"
// list is migrated to skull markers when no marker map is present. Tile
// keys that do not parse or fall outside g are dropped; settings that do not
// parse keep their defaults.
func DecodeState(data []byte, g Grid) (State, error) {
	s := NewState()
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return s, fmt.Errorf("decode state: %w", ErrSlotEmpty)
	}

	if data[0] == '[' {
		var keys []string
		if err := json.Unmarshal(data, &keys); err != nil {
			return NewState(), fmt.Errorf("decode legacy state: %w", err)
		}
		addKeys(s.Unlocked, keys, g)
		return s, nil
	}

	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return NewState(), fmt.Errorf("decode state: %w", err)
	}

	addKeys(s.Unlocked, doc.Unlocked, g)

	if doc.Markers != nil {
		for key, name := range doc.Markers {
			k, ok := parseGridKey(key, g)
			if !ok {
				continue
			}
			t, err := ParseMarkerType(name)
			if err != nil {
				continue
			}
			s.Markers[k] = t
		}
	} else {
		for _, key := range doc.Skulls {
			if k, ok := parseGridKey(key, g); ok {
				s.Markers[k] = MarkerSkull
			}
		}
	}

	seen := make(map[TileKey]bool, len(doc.Queue))
	for _, key := range doc.Queue {
		k, ok := parseGridKey(key, g)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		s.Queue = append(s.Queue, k)
	}

	if v := doc.View; v != nil && v.Zoom > 0 && isFinite(v.PanX) && isFinite(v.PanY) && isFinite(v.Zoom) {
		s.View = ViewState{PanX: v.PanX, PanY: v.PanY, Zoom: v.Zoom}
	}

	if doc.Settings != nil {
		doc.Settings.apply(&s.Settings)
	}
	return s, nil
}

func addKeys(set TileSet, keys []string, g Grid) {
	for _, key := range keys {
		if k, ok := parseGridKey(key, g); ok {
			set.Put(k)
		}
	}
}

func parseGridKey(s string, g Grid) (TileKey, bool) {
	k, err := ParseTileKey(s)
	if err != nil || !g.ContainsKey(k) {
		return TileKey{}, false
	}
	return k, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// apply copies every present, well-formed value onto st.
func (d *settingsDoc) apply(st *Settings) {
	setFloat(d.DarknessOpacity, 0, 1, &st.DarknessOpacity)
	setColor(d.DarknessColor, &st.DarknessColor)
	setToggle(d.GridToggle, &st.GridVisible)
	setColor(d.GridColor, &st.GridColor)
	setFloat(d.GridOpacity, 0, 1, &st.GridOpacity)
	setToggle(d.GlowToggle, &st.GlowEnabled)
	setColor(d.GlowColor, &st.Glow.Color)
	setFloat(d.GlowSize, 0, 100, &st.Glow.Size)
	setFloat(d.GlowIntensity, 0, 100, &st.Glow.Intensity)
	if v, ok := parseFloat(d.GlowPower); ok && v >= 1 {
		st.Glow.Power = int(math.Round(v))
	}
	setFloat(d.GlowBorder, 0, 100, &st.Glow.Border)
	if c, err := ParseCornerStyle(string(d.GlowCorners)); err == nil {
		st.Glow.Corners = c
	}
	setFloat(d.PerspTilt, -90, 90, &st.TiltX)
	setFloat(d.PerspTiltY, -90, 90, &st.TiltY)
	setFloat(d.PerspRotate, -180, 180, &st.RotateZ)
	if v, ok := parseFloat(d.SkullSize); ok && v > 0 {
		st.MarkerSize = int(math.Round(v))
	}
	if p, err := ParseMarkerPosition(string(d.SkullPosition)); err == nil {
		st.MarkerPosition = p
	}
	if r, err := ParseRevealStyle(string(d.AnimStyle)); err == nil {
		st.RevealStyle = r
	}
	if v, ok := parseFloat(d.QueueDelay); ok && v > 0 {
		st.QueueDelay = time.Duration(v) * time.Millisecond
	}
}

func parseFloat(f flexString) (float64, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}

func setFloat(f flexString, lo, hi float64, dst *float64) {
	if v, ok := parseFloat(f); ok {
		*dst = clamp(v, lo, hi)
	}
}

func setColor(f flexString, dst *Color) {
	if f == "" {
		return
	}
	if c, err := ParseHexColor(string(f)); err == nil {
		*dst = c
	}
}

func setToggle(f flexString, dst *bool) {
	switch strings.ToLower(strings.TrimSpace(string(f))) {
	case "on", "true", "1":
		*dst = true
	case "off", "false", "0":
		*dst = false
	}
}
