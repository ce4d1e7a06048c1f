package engine

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"

	"github.com/spaghettifunk/ignis/engine/renderer"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// One of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// Number of frames the CPU may record ahead of the GPU.
	FrameOverlap int `toml:"frame_overlap"`
	// Bound on fence waits and image acquisition.
	FenceTimeoutMS uint32 `toml:"fence_timeout_ms"`
	// How long the loop sleeps per iteration while minimized.
	SuspendSleepMS uint32 `toml:"suspend_sleep_ms"`
	// A name from the SVG 1.1 color keyword list.
	ClearColor       string  `toml:"clear_color"`
	ClearColorPeriod float64 `toml:"clear_color_period"`
	Validation       bool    `toml:"validation"`
}

func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:             "Vulkan Engine",
		StartPosX:        100,
		StartPosY:        100,
		StartWidth:       1700,
		StartHeight:      900,
		LogLevel:         "debug",
		FrameOverlap:     2,
		FenceTimeoutMS:   1000,
		SuspendSleepMS:   100,
		ClearColor:       "blue",
		ClearColorPeriod: 120,
		Validation:       true,
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Keys missing from the
// file keep their default value; unknown keys are rejected.
func LoadConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*ApplicationConfig, error) {
	config := DefaultConfig()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.StartWidth == 0 || c.StartHeight == 0 {
		return fmt.Errorf("invalid window size %dx%d", c.StartWidth, c.StartHeight)
	}
	if c.FrameOverlap < 1 {
		return fmt.Errorf("invalid frame_overlap %d: must be at least 1", c.FrameOverlap)
	}
	if c.FenceTimeoutMS == 0 {
		return fmt.Errorf("fence_timeout_ms must be positive")
	}
	if c.ClearColorPeriod <= 0 {
		return fmt.Errorf("invalid clear_color_period %v: must be positive", c.ClearColorPeriod)
	}
	if _, ok := colornames.Map[strings.ToLower(c.ClearColor)]; !ok {
		return fmt.Errorf("unknown clear_color %q", c.ClearColor)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// ClearColorValue resolves the configured color name. Unknown names fall back
// to blue.
func (c *ApplicationConfig) ClearColorValue() renderer.Color {
	rgba, ok := colornames.Map[strings.ToLower(c.ClearColor)]
	if !ok {
		rgba = colornames.Blue
	}
	return renderer.Color{
		R: float32(rgba.R) / 255,
		G: float32(rgba.G) / 255,
		B: float32(rgba.B) / 255,
		A: float32(rgba.A) / 255,
	}
}

func (c *ApplicationConfig) FenceTimeout() time.Duration {
	return time.Duration(c.FenceTimeoutMS) * time.Millisecond
}

func (c *ApplicationConfig) SuspendSleep() time.Duration {
	return time.Duration(c.SuspendSleepMS) * time.Millisecond
}

func (c *ApplicationConfig) RendererConfig() renderer.Config {
	return renderer.Config{
		Width:        c.StartWidth,
		Height:       c.StartHeight,
		FrameOverlap: c.FrameOverlap,
		FenceTimeout: c.FenceTimeout(),
		ClearColor:   c.ClearColorValue(),
		ClearPeriod:  c.ClearColorPeriod,
	}
}
