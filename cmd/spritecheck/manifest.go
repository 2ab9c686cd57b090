// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/asset"
)

// Manifest describes one scene to check:
//
//	config: renderer.yaml
//	mode: array
//	texture: 0
//	textures:
//	  - path: hero.png
//	  - path: tiles.png
//	sprites:
//	  - texture: 1
//	    pixels: [0, 0, 64, 64]
//	    uv: [0, 0, 16, 16]
//	    color: [1, 0.5, 0.5]
type Manifest struct {
	// Config is a renderer config file, relative to the manifest.
	Config string `yaml:"config,omitempty"`

	// Mode overrides the config's texture mode.
	Mode string `yaml:"mode,omitempty"`

	// Texture is the texture bound for single mode batches.
	Texture uint32 `yaml:"texture,omitempty"`

	Textures []TextureEntry `yaml:"textures"`
	Sprites  []SpriteEntry  `yaml:"sprites"`

	dir string
}

// TextureEntry is one image file. Its index in Textures is its slot.
type TextureEntry struct {
	Path string `yaml:"path"`
}

// SpriteEntry is one sprite. Destination is either Pixels, a rectangle
// in framebuffer pixels, or Quad in NDC.
type SpriteEntry struct {
	Texture uint32    `yaml:"texture"`
	Pixels  []float32 `yaml:"pixels,omitempty"`
	Quad    []float32 `yaml:"quad,omitempty"`
	UV      []float32 `yaml:"uv,omitempty"`
	Color   []float32 `yaml:"color,omitempty"`
}

var errManifest = errors.New("spritecheck: invalid manifest")

// ParseManifest decodes a manifest. dir resolves relative paths.
func ParseManifest(data []byte, dir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", errManifest, err)
	}
	if len(m.Textures) == 0 {
		return nil, fmt.Errorf("%w: no textures", errManifest)
	}
	if len(m.Textures) > sprite.MaxTextureSlots {
		return nil, fmt.Errorf("%w: %d textures, at most %d", errManifest, len(m.Textures), sprite.MaxTextureSlots)
	}
	if m.Mode != "" {
		if _, ok := sprite.ParseTextureMode(m.Mode); !ok {
			return nil, fmt.Errorf("%w: mode %q", errManifest, m.Mode)
		}
	}
	for i, s := range m.Sprites {
		if err := s.check(); err != nil {
			return nil, fmt.Errorf("%w: sprite %d: %w", errManifest, i, err)
		}
	}
	m.dir = dir
	return &m, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied manifest
	if err != nil {
		return nil, err
	}
	return ParseManifest(data, filepath.Dir(path))
}

func (s SpriteEntry) check() error {
	switch {
	case len(s.Pixels) == 0 && len(s.Quad) == 0:
		return errors.New("needs pixels or quad")
	case len(s.Pixels) != 0 && len(s.Quad) != 0:
		return errors.New("pixels and quad are exclusive")
	case len(s.Pixels) != 0 && len(s.Pixels) != 4:
		return fmt.Errorf("pixels has %d values, want 4", len(s.Pixels))
	case len(s.Quad) != 0 && len(s.Quad) != 4:
		return fmt.Errorf("quad has %d values, want 4", len(s.Quad))
	case len(s.UV) != 0 && len(s.UV) != 4:
		return fmt.Errorf("uv has %d values, want 4", len(s.UV))
	case len(s.Color) != 0 && len(s.Color) != 3:
		return fmt.Errorf("color has %d values, want 3", len(s.Color))
	}
	return nil
}

// Paths returns the texture files resolved against the manifest directory.
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.Textures))
	for i, t := range m.Textures {
		out[i] = m.resolve(t.Path)
	}
	return out
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// LoadConfig loads the referenced renderer config, or the defaults, and
// applies the manifest's mode.
func (m *Manifest) LoadConfig() (sprite.Config, error) {
	cfg := sprite.DefaultConfig()
	if m.Config != "" {
		var err error
		if cfg, err = sprite.LoadConfig(m.resolve(m.Config)); err != nil {
			return sprite.Config{}, err
		}
	}
	if m.Mode != "" {
		cfg.Mode = m.Mode
	}
	return cfg, nil
}

// Size is a texture extent.
type Size struct{ W, H uint32 }

// Batch builds the sprite batch for a frameW x frameH framebuffer.
func (m *Manifest) Batch(mode sprite.TextureMode, frameW, frameH uint32) *sprite.Batch {
	b := sprite.NewBatch(mode)
	b.SetTexture(m.Texture)
	for _, e := range m.Sprites {
		var dst sprite.Quad
		if len(e.Pixels) == 4 {
			p := e.Pixels
			dst = sprite.QuadFromPixels(p[0], p[1], p[2], p[3], float32(frameW), float32(frameH))
		} else {
			dst = sprite.Quad{X: e.Quad[0], Y: e.Quad[1], W: e.Quad[2], H: e.Quad[3]}
		}
		s := sprite.NewSprite(dst, e.Texture)
		if len(e.UV) == 4 {
			s = s.WithUV(sprite.UVRect{U0: e.UV[0], V0: e.UV[1], U1: e.UV[2], V1: e.UV[3]})
		}
		if len(e.Color) == 3 {
			s = s.WithColor(sprite.V3(e.Color[0], e.Color[1], e.Color[2]))
		}
		b.Push(s)
	}
	return b
}

// CheckUV reports every sprite whose source rectangle leaves the texture
// it samples. In single mode every sprite samples the batch texture.
func CheckUV(b *sprite.Batch, sizes []Size) []error {
	var errs []error
	for i, s := range b.Sprites() {
		tex := s.TexIndex
		if b.Mode() == sprite.ModeSingle {
			tex = b.Texture()
		}
		if int(tex) >= len(sizes) {
			errs = append(errs, fmt.Errorf("sprite %d: %w: texture %d", i, sprite.ErrUnknownTexture, tex))
			continue
		}
		sz := sizes[tex]
		if !s.UVRect.Within(sz.W, sz.H) {
			errs = append(errs, fmt.Errorf("sprite %d: %s outside %dx%d texture %d", i, s.UVRect, sz.W, sz.H, tex))
		}
	}
	return errs
}

// UVMap rewrites the source rectangle of a sprite sampling texture tex.
type UVMap func(tex uint32, r sprite.UVRect) sprite.UVRect

// Remap copies b into a new batch of the given mode and texture, passing
// each source rectangle through fn. The texture a sprite samples in b is
// its TexIndex in array mode and the batch texture in single mode. Single
// mode output sprites have TexIndex 0.
func Remap(b *sprite.Batch, mode sprite.TextureMode, texture uint32, fn UVMap) *sprite.Batch {
	out := sprite.NewBatch(mode)
	out.SetTexture(texture)
	for _, s := range b.Sprites() {
		tex := s.TexIndex
		if b.Mode() == sprite.ModeSingle {
			tex = b.Texture()
		}
		s.UVRect = fn(tex, s.UVRect)
		if mode == sprite.ModeSingle {
			s.TexIndex = 0
		}
		out.Push(s)
	}
	return out
}

// PackedUV maps rectangles of the packed images onto the sheet. The full
// texture sentinel becomes the image's whole region.
func PackedUV(sheet *asset.Sheet) UVMap {
	return func(tex uint32, r sprite.UVRect) sprite.UVRect {
		if int(tex) >= len(sheet.Regions) {
			return r
		}
		if r.IsFull() {
			return sheet.Rect(int(tex))
		}
		reg := sheet.Regions[tex]
		x, y := float32(reg.X), float32(reg.Y)
		return sprite.UVRect{U0: r.U0 + x, V0: r.V0 + y, U1: r.U1 + x, V1: r.V1 + y}
	}
}

// ScaledUV maps rectangles of images of the given sizes onto layers of
// width x height, so a rectangle samples the same image content after the
// image was resized to the layer.
func ScaledUV(sizes []Size, width, height uint32) UVMap {
	return func(tex uint32, r sprite.UVRect) sprite.UVRect {
		if r.IsFull() || int(tex) >= len(sizes) {
			return r
		}
		sz := sizes[tex]
		if sz.W == 0 || sz.H == 0 {
			return r
		}
		fx := float32(width) / float32(sz.W)
		fy := float32(height) / float32(sz.H)
		return sprite.UVRect{U0: r.U0 * fx, V0: r.V0 * fy, U1: r.U1 * fx, V1: r.V1 * fy}
	}
}
