package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"richtext/pkg/richtext"
)

var ErrInvalid = errors.New("config: invalid value")

// Duration reads "750ms" style strings.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d Duration) D() time.Duration { return time.Duration(d) }

// Color reads "#rgb", "#rrggbb" and "#rrggbbaa".
type Color richtext.Color

func (c *Color) UnmarshalText(b []byte) error {
	v, err := richtext.ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = Color(v)
	return nil
}

func (c Color) MarshalText() ([]byte, error) { return []byte(richtext.Color(c).Hex()), nil }

func (c Color) C() richtext.Color { return richtext.Color(c) }

type Config struct {
	Editor Editor `toml:"editor"`
	Layout Layout `toml:"layout"`
	Cache  Cache  `toml:"cache"`
	Theme  Theme  `toml:"theme"`
	Log    Log    `toml:"log"`
}

type Editor struct {
	BlinkPeriod  Duration `toml:"blink_period"`
	HistoryLimit int      `toml:"history_limit"`
	ReadOnly     bool     `toml:"read_only"`
}

type Layout struct {
	Width          int     `toml:"width"`
	IndentPadding  int     `toml:"indent_padding"`
	CaretMinHeight int     `toml:"caret_min_height"`
	CaretHeight    int     `toml:"caret_height"`
	Scale          float64 `toml:"scale"`
}

type Cache struct {
	EvictInterval Duration `toml:"evict_interval"`
	GoFonts       bool     `toml:"go_fonts"`
}

type Theme struct {
	Background Color `toml:"background"`
	Page       Color `toml:"page"`
	PageBorder Color `toml:"page_border"`
	Text       Color `toml:"text"`
	Selection  Color `toml:"selection"`
	Caret      Color `toml:"caret"`
	Grid       Color `toml:"grid"`
	Marker     Color `toml:"marker"`
	StatusBar  Color `toml:"status_bar"`
	StatusText Color `toml:"status_text"`
}

type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

func Default() Config {
	return Config{
		Editor: Editor{BlinkPeriod: Duration(time.Second), HistoryLimit: 200},
		Layout: Layout{Width: 720, IndentPadding: 20, CaretMinHeight: 5, CaretHeight: 16, Scale: 1},
		Cache:  Cache{EvictInterval: Duration(30 * time.Second), GoFonts: true},
		Theme: Theme{
			Background: 0xE9EDF2FF,
			Page:       0xFFFFFFFF,
			PageBorder: 0xCBD3DEFF,
			Text:       0x202020FF,
			Selection:  0x3D7EFF66,
			Caret:      0x1B1F24FF,
			Grid:       0xB0B8C4FF,
			Marker:     0x44505EFF,
			StatusBar:  0xF6F8FBFF,
			StatusText: 0x374151FF,
		},
		Log: Log{Level: "info"},
	}
}

// Load overlays the file at path on the defaults. A missing file is not an
// error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Editor.BlinkPeriod <= 0:
		return fmt.Errorf("%w: editor.blink_period must be positive", ErrInvalid)
	case c.Editor.HistoryLimit < 0:
		return fmt.Errorf("%w: editor.history_limit must not be negative", ErrInvalid)
	case c.Layout.Width <= 0:
		return fmt.Errorf("%w: layout.width must be positive", ErrInvalid)
	case c.Layout.IndentPadding < 0:
		return fmt.Errorf("%w: layout.indent_padding must not be negative", ErrInvalid)
	case c.Layout.CaretMinHeight < 0 || c.Layout.CaretHeight <= 0:
		return fmt.Errorf("%w: caret heights", ErrInvalid)
	case c.Layout.Scale <= 0:
		return fmt.Errorf("%w: layout.scale must be positive", ErrInvalid)
	case c.Cache.EvictInterval < 0:
		return fmt.Errorf("%w: cache.evict_interval must not be negative", ErrInvalid)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Logger builds the process logger.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
