package chunkmap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "CHUNKMAP"

// Store drivers.
const (
	StoreFile   = "file"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config is the host configuration of a chunk map.
type Config struct {
	MapWidth  int `mapstructure:"map_width"`
	MapHeight int `mapstructure:"map_height"`
	TileSize  int `mapstructure:"tile_size"`

	ViewportWidth  int     `mapstructure:"viewport_width"`
	ViewportHeight int     `mapstructure:"viewport_height"`
	Depth          float64 `mapstructure:"depth"`
	OverlayScale   float64 `mapstructure:"overlay_scale"`
	MinimapWidth   int     `mapstructure:"minimap_width"`

	RevealDuration   time.Duration `mapstructure:"reveal_duration"`
	GlowFadeDuration time.Duration `mapstructure:"glow_fade_duration"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`

	MapImage  string `mapstructure:"map_image"`
	IconDir   string `mapstructure:"icon_dir"`
	ExportDir string `mapstructure:"export_dir"`

	Store StoreConfig `mapstructure:"store"`
	Log   LogConfig   `mapstructure:"log"`
	Debug bool        `mapstructure:"debug"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Dir    string `mapstructure:"dir"`
	Slot   string `mapstructure:"slot"`
	DSN    string `mapstructure:"dsn"`
}

// Grid returns the grid described by the config.
func (c Config) Grid() Grid {
	return NewGrid(c.MapWidth, c.MapHeight, c.TileSize)
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("map_width", DefaultMapWidth)
	v.SetDefault("map_height", DefaultMapHeight)
	v.SetDefault("tile_size", DefaultTilePx)
	v.SetDefault("viewport_width", 1280)
	v.SetDefault("viewport_height", 800)
	v.SetDefault("depth", DefaultDepth)
	v.SetDefault("overlay_scale", 0.5)
	v.SetDefault("minimap_width", DefaultMinimapWidth)
	v.SetDefault("reveal_duration", RevealDuration)
	v.SetDefault("glow_fade_duration", GlowFadeDuration)
	v.SetDefault("autosave_interval", DefaultAutosaveInterval)
	v.SetDefault("map_image", "")
	v.SetDefault("icon_dir", "")
	v.SetDefault("export_dir", ".")
	v.SetDefault("store.driver", StoreFile)
	v.SetDefault("store.dir", ".")
	v.SetDefault("store.slot", DefaultSlot)
	v.SetDefault("store.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("debug", false)
}

// LoadConfig reads the configuration from the optional file path (format
// by extension) and CHUNKMAP_* environment variables, over the defaults.
// Nested keys use underscores in the environment: CHUNKMAP_STORE_DRIVER.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setConfigDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config for values no session can use.
func (c Config) Validate() error {
	var errs []error
	if c.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("tile_size must be positive, got %d", c.TileSize))
	} else if c.MapWidth < c.TileSize || c.MapHeight < c.TileSize {
		errs = append(errs, fmt.Errorf("map %dx%d is smaller than one tile", c.MapWidth, c.MapHeight))
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		errs = append(errs, fmt.Errorf("viewport %dx%d must be positive", c.ViewportWidth, c.ViewportHeight))
	}
	switch c.Store.Driver {
	case StoreFile, StoreMemory:
	case StoreMySQL:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the mysql driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SessionOptions converts the config into session options. The store,
// logger and images are supplied by the host.
func (c Config) SessionOptions() Options {
	return Options{
		Grid:             c.Grid(),
		ViewportW:        float64(c.ViewportWidth),
		ViewportH:        float64(c.ViewportHeight),
		Depth:            c.Depth,
		RevealDuration:   c.RevealDuration,
		GlowFadeDuration: c.GlowFadeDuration,
		AutosaveInterval: c.AutosaveInterval,
		OverlayScale:     c.OverlayScale,
		MinimapWidth:     c.MinimapWidth,
		Debug:            c.Debug,
	}
}
