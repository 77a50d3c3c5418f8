package chunkmap

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// Default lattice of the world map: a 9216x6528 image cut into 192px chunks.
const (
	DefaultMapWidth  = 9216
	DefaultMapHeight = 6528
	DefaultTilePx    = 192
)

// TileKey identifies a tile by column and row. It is comparable and used
// directly as a map key; its text form is "col,row".
type TileKey struct {
	Col, Row int
}

// String returns the persisted "col,row" form.
func (k TileKey) String() string {
	return strconv.Itoa(k.Col) + "," + strconv.Itoa(k.Row)
}

// MarshalText implements encoding.TextMarshaler so TileKey can key JSON objects.
func (k TileKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TileKey) UnmarshalText(b []byte) error {
	parsed, err := ParseTileKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseTileKey parses the "col,row" form.
func ParseTileKey(s string) (TileKey, error) {
	c, r, ok := strings.Cut(s, ",")
	if !ok {
		return TileKey{}, fmt.Errorf("parse tile key %q: missing comma", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return TileKey{}, fmt.Errorf("parse tile key %q: %w", s, err)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return TileKey{}, fmt.Errorf("parse tile key %q: %w", s, err)
	}
	return TileKey{Col: col, Row: row}, nil
}

// compareTiles orders tiles row-major.
func compareTiles(a, b TileKey) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Col, b.Col)
}

// SortTiles sorts keys row-major in place and returns them.
func SortTiles(keys []TileKey) []TileKey {
	slices.SortFunc(keys, compareTiles)
	return keys
}

// Grid is the fixed tile lattice laid over the map image.
type Grid struct {
	Cols, Rows int
	TilePx     float64
}

// NewGrid cuts a mapW x mapH image into square tiles of tilePx pixels.
// Partial tiles at the right and bottom edges are dropped.
func NewGrid(mapW, mapH, tilePx int) Grid {
	if tilePx <= 0 {
		tilePx = DefaultTilePx
	}
	return Grid{Cols: mapW / tilePx, Rows: mapH / tilePx, TilePx: float64(tilePx)}
}

// DefaultGrid returns the 48x34 grid of 192px tiles.
func DefaultGrid() Grid {
	return NewGrid(DefaultMapWidth, DefaultMapHeight, DefaultTilePx)
}

// TileKey returns the identity of the tile at (col, row).
func (g Grid) TileKey(col, row int) TileKey {
	return TileKey{Col: col, Row: row}
}

// Contains reports whether (col, row) lies inside the grid.
func (g Grid) Contains(col, row int) bool {
	return col >= 0 && col < g.Cols && row >= 0 && row < g.Rows
}

// ContainsKey is Contains for a TileKey.
func (g Grid) ContainsKey(k TileKey) bool {
	return g.Contains(k.Col, k.Row)
}

// TileRect returns the pixel rectangle of tile (col, row) in map space.
func (g Grid) TileRect(col, row int) (Rect, error) {
	if !g.Contains(col, row) {
		return Rect{}, fmt.Errorf("tile (%d, %d): %w", col, row, ErrOutOfBounds)
	}
	return g.rect(TileKey{col, row}), nil
}

// rect skips the bounds check for callers that already hold a valid key.
func (g Grid) rect(k TileKey) Rect {
	return Rect{
		X:      float64(k.Col) * g.TilePx,
		Y:      float64(k.Row) * g.TilePx,
		Width:  g.TilePx,
		Height: g.TilePx,
	}
}

// Total returns the number of tiles in the grid.
func (g Grid) Total() int {
	return g.Cols * g.Rows
}

// Width returns the covered map width in pixels.
func (g Grid) Width() float64 { return float64(g.Cols) * g.TilePx }

// Height returns the covered map height in pixels.
func (g Grid) Height() float64 { return float64(g.Rows) * g.TilePx }

// TileAt returns the tile containing the map-space point (x, y).
func (g Grid) TileAt(x, y float64) (TileKey, bool) {
	col := int(math.Floor(x / g.TilePx))
	row := int(math.Floor(y / g.TilePx))
	if !g.Contains(col, row) {
		return TileKey{}, false
	}
	return TileKey{col, row}, true
}

// Each calls fn for every tile in row-major order.
func (g Grid) Each(fn func(k TileKey)) {
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			fn(TileKey{c, r})
		}
	}
}

// TileSet is an unordered set of tiles.
type TileSet = mapset.Set[TileKey]

// NewTileSet returns a set holding keys.
func NewTileSet(keys ...TileKey) TileSet {
	s := mapset.New[TileKey]()
	for _, k := range keys {
		s.Put(k)
	}
	return s
}

// SortedKeys returns the members of s in row-major order.
func SortedKeys(s TileSet) []TileKey {
	keys := make([]TileKey, 0, s.Size())
	s.Each(func(k TileKey) {
		keys = append(keys, k)
	})
	return SortTiles(keys)
}

// rowRuns merges the tiles selected by keep into one rectangle per
// horizontal run, row by row.
func (g Grid) rowRuns(keep func(k TileKey) bool) []Rect {
	var runs []Rect
	for r := 0; r < g.Rows; r++ {
		start := -1
		for c := 0; c <= g.Cols; c++ {
			in := c < g.Cols && keep(TileKey{c, r})
			switch {
			case in && start < 0:
				start = c
			case !in && start >= 0:
				runs = append(runs, Rect{
					X:      float64(start) * g.TilePx,
					Y:      float64(r) * g.TilePx,
					Width:  float64(c-start) * g.TilePx,
					Height: g.TilePx,
				})
				start = -1
			}
		}
	}
	return runs
}

// mapRect returns the whole covered map.
func (g Grid) mapRect() Rect {
	return Rect{Width: g.Width(), Height: g.Height()}
}

// bounds returns the smallest rectangle covering every in-grid tile of s.
func (g Grid) bounds(s TileSet) Rect {
	c0, r0, c1, r1 := g.Cols, g.Rows, -1, -1
	s.Each(func(k TileKey) {
		if !g.ContainsKey(k) {
			return
		}
		c0, r0 = min(c0, k.Col), min(r0, k.Row)
		c1, r1 = max(c1, k.Col), max(r1, k.Row)
	})
	if c1 < 0 {
		return Rect{}
	}
	return Rect{
		X:      float64(c0) * g.TilePx,
		Y:      float64(r0) * g.TilePx,
		Width:  float64(c1-c0+1) * g.TilePx,
		Height: float64(r1-r0+1) * g.TilePx,
	}
}

// dilate returns the in-grid tiles within n tiles (Chebyshev distance) of
// a member of s.
func (g Grid) dilate(s TileSet, n int) TileSet {
	out := NewTileSet()
	s.Each(func(k TileKey) {
		for r := k.Row - n; r <= k.Row+n; r++ {
			for c := k.Col - n; c <= k.Col+n; c++ {
				if g.Contains(c, r) {
					out.Put(TileKey{c, r})
				}
			}
		}
	})
	return out
}
