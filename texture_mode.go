// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

// TextureMode selects the pipeline variant a batch is drawn with.
type TextureMode int

const (
	// ModeSingle draws with the single-texture pipeline. One texture is
	// bound for the whole batch and the source rectangle travels in the
	// per-draw push block, so every change of UVRect starts a new draw.
	ModeSingle TextureMode = iota

	// ModeArray draws with the texture-array pipeline. Up to
	// MaxTextureSlots textures are bound once and each sprite selects one
	// with TexIndex.
	ModeArray
)

// String returns the texture mode name.
func (m TextureMode) String() string {
	switch m {
	case ModeSingle:
		return "Single"
	case ModeArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// ParseTextureMode parses the names used in configuration files.
func ParseTextureMode(s string) (TextureMode, bool) {
	switch s {
	case "single", "Single":
		return ModeSingle, true
	case "array", "Array":
		return ModeArray, true
	default:
		return ModeSingle, false
	}
}
