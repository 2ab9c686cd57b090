// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defaults.
const (
	DefaultAcquireTimeout  = time.Second
	DefaultInitialCapacity = 256
)

// DefaultClearColor is the color a frame is cleared to before drawing.
var DefaultClearColor = []float32{0.1, 0.2, 0.3, 1}

// Config is the file form of the renderer settings.
//
//	presentModes: [mailbox, fifo]
//	acquireTimeout: 500ms
//	initialCapacity: 1024
//	clearColor: [0, 0, 0, 1]
//	filter: linear
//	addressMode: repeat
type Config struct {
	// PresentModes is the preference order for the swapchain.
	PresentModes []string `yaml:"presentModes,omitempty"`

	// FramesInFlight overrides the count derived from the present mode
	// when non-zero.
	FramesInFlight int `yaml:"framesInFlight,omitempty"`

	AcquireTimeout  time.Duration `yaml:"acquireTimeout,omitempty"`
	InitialCapacity int           `yaml:"initialCapacity,omitempty"`
	ClearColor      []float32     `yaml:"clearColor,omitempty"`

	// Filter is "nearest" or "linear".
	Filter string `yaml:"filter,omitempty"`

	// AddressMode is "clamp" or "repeat".
	AddressMode string `yaml:"addressMode,omitempty"`

	// Mode is the default texture mode, "single" or "array".
	Mode string `yaml:"mode,omitempty"`
}

// DefaultConfig returns a config with every field set to its default.
func DefaultConfig() Config {
	var c Config
	c.normalize()
	return c
}

func (c *Config) normalize() {
	if len(c.PresentModes) == 0 {
		for _, m := range DefaultPresentModes {
			c.PresentModes = append(c.PresentModes, m.String())
		}
	}
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.InitialCapacity == 0 {
		c.InitialCapacity = DefaultInitialCapacity
	}
	if c.ClearColor == nil {
		c.ClearColor = append([]float32(nil), DefaultClearColor...)
	}
	if c.Filter == "" {
		c.Filter = "nearest"
	}
	if c.AddressMode == "" {
		c.AddressMode = "clamp"
	}
	if c.Mode == "" {
		c.Mode = "array"
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	for _, s := range c.PresentModes {
		if _, ok := ParsePresentMode(s); !ok {
			return fmt.Errorf("presentModes: unknown mode %q", s)
		}
	}
	if c.FramesInFlight < 0 || c.FramesInFlight > 3 {
		return fmt.Errorf("framesInFlight: %d out of range [0,3]", c.FramesInFlight)
	}
	if c.AcquireTimeout < 0 {
		return fmt.Errorf("acquireTimeout: negative duration %s", c.AcquireTimeout)
	}
	if c.InitialCapacity < 0 {
		return fmt.Errorf("initialCapacity: negative value %d", c.InitialCapacity)
	}
	if len(c.ClearColor) != 4 {
		return fmt.Errorf("clearColor: want 4 components, got %d", len(c.ClearColor))
	}
	switch c.Filter {
	case "nearest", "linear":
	default:
		return fmt.Errorf("filter: unknown value %q", c.Filter)
	}
	switch c.AddressMode {
	case "clamp", "repeat":
	default:
		return fmt.Errorf("addressMode: unknown value %q", c.AddressMode)
	}
	if _, ok := ParseTextureMode(c.Mode); !ok {
		return fmt.Errorf("mode: unknown value %q", c.Mode)
	}
	return nil
}

// PresentModeList returns the parsed preference order. Unknown names are
// skipped; call Validate to report them.
func (c Config) PresentModeList() []PresentMode {
	out := make([]PresentMode, 0, len(c.PresentModes))
	for _, s := range c.PresentModes {
		if m, ok := ParsePresentMode(s); ok {
			out = append(out, m)
		}
	}
	return out
}

// TextureMode returns the parsed default texture mode.
func (c Config) TextureMode() TextureMode {
	m, _ := ParseTextureMode(c.Mode)
	return m
}

// ParseConfig decodes YAML, fills defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the caller
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseConfig(data)
}
