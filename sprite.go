// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

import "fmt"

// MaxTextureSlots is the fixed size of the bound texture array.
// Sprite.TexIndex must be below this bound.
const MaxTextureSlots = 64

// UVRect is a source rectangle in pixel space of the source texture:
// (U0, V0) is the corner sampled at vert_uv (0,0) and (U1, V1) the corner
// sampled at vert_uv (1,1). The zero value is the sentinel for
// "use the full texture extent".
type UVRect struct {
	U0, V0, U1, V1 float32
}

// FullTexture is the sentinel rectangle selecting the whole texture.
var FullTexture = UVRect{}

// IsFull reports whether r is the full-extent sentinel.
func (r UVRect) IsFull() bool {
	return r == UVRect{}
}

// Resolve replaces the sentinel with the concrete extent of a
// width x height texture. Non-sentinel rectangles are returned unchanged.
func (r UVRect) Resolve(width, height uint32) UVRect {
	if r.IsFull() {
		return UVRect{U0: 0, V0: 0, U1: float32(width), V1: float32(height)}
	}
	return r
}

// Within reports whether the rectangle lies inside [0,width] x [0,height].
// The sentinel is always within bounds.
func (r UVRect) Within(width, height uint32) bool {
	if r.IsFull() {
		return true
	}
	w, h := float32(width), float32(height)
	for _, c := range [...]struct{ v, max float32 }{{r.U0, w}, {r.U1, w}, {r.V0, h}, {r.V1, h}} {
		if c.v < 0 || c.v > c.max {
			return false
		}
	}
	return true
}

// Array returns the rectangle in shader order (x, y, z, w).
func (r UVRect) Array() [4]float32 {
	return [4]float32{r.U0, r.V0, r.U1, r.V1}
}

// String returns a string representation of the rectangle.
func (r UVRect) String() string {
	if r.IsFull() {
		return "UVRect(full)"
	}
	return fmt.Sprintf("UVRect(%g,%g %g,%g)", r.U0, r.V0, r.U1, r.V1)
}

// Sprite is one drawable textured quad.
type Sprite struct {
	// Position is the NDC corner drawn at vert_uv (0,0).
	Position Vec2

	// Size is the NDC extent. The corner at vert_uv (1,1) is Position+Size.
	Size Vec2

	// Color is the tint multiplied with the sampled texel.
	Color Vec3

	// UVRect is the pixel-space source rectangle (zero = full texture).
	UVRect UVRect

	// TexIndex is the slot into the bound texture array.
	// It must be 0 for batches drawn with the single-texture pipeline.
	TexIndex uint32
}

// NewSprite returns a white-tinted sprite covering dst and sampling the
// full extent of texture slot tex.
func NewSprite(dst Quad, tex uint32) Sprite {
	return Sprite{
		Position: Vec2{X: dst.X, Y: dst.Y},
		Size:     Vec2{X: dst.W, Y: dst.H},
		Color:    White,
		TexIndex: tex,
	}
}

// WithUV returns a copy of s sampling the given pixel rectangle.
func (s Sprite) WithUV(r UVRect) Sprite {
	s.UVRect = r
	return s
}

// WithColor returns a copy of s with the given tint.
func (s Sprite) WithColor(c Vec3) Sprite {
	s.Color = c
	return s
}

// Corner returns the NDC position of the quad at the given unit-quad
// coordinate, mirroring the vertex stage.
func (s Sprite) Corner(vertUV Vec2) Vec2 {
	return s.Position.Add(s.Size.Mul(vertUV))
}

// Quad is a destination rectangle in normalized device coordinates.
type Quad struct {
	X, Y, W, H float32
}

// QuadFromPixels converts a pixel rectangle inside a frameW x frameH
// framebuffer (origin top-left) into NDC.
func QuadFromPixels(x, y, w, h, frameW, frameH float32) Quad {
	return Quad{
		X: (x/frameW)*2 - 1,
		Y: (y/frameH)*2 - 1,
		W: (w / frameW) * 2,
		H: (h / frameH) * 2,
	}
}

// PixelFormat is the layout of decoded pixel data handed to the renderer.
type PixelFormat uint8

const (
	// FormatUndefined is the zero value and is rejected by loaders.
	FormatUndefined PixelFormat = iota
	// FormatRGBA8 is 8-bit RGBA, linear.
	FormatRGBA8
	// FormatRGBA8Srgb is 8-bit RGBA with sRGB-encoded color channels.
	FormatRGBA8Srgb
	// FormatBGRA8 is 8-bit BGRA, linear.
	FormatBGRA8
	// FormatBGRA8Srgb is 8-bit BGRA with sRGB-encoded color channels.
	FormatBGRA8Srgb
	// FormatR8 is a single 8-bit channel.
	FormatR8
)

// BytesPerPixel returns the pixel stride, or 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatRGBA8Srgb, FormatBGRA8, FormatBGRA8Srgb:
		return 4
	case FormatR8:
		return 1
	default:
		return 0
	}
}

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA8Srgb:
		return "RGBA8Srgb"
	case FormatBGRA8:
		return "BGRA8"
	case FormatBGRA8Srgb:
		return "BGRA8Srgb"
	case FormatR8:
		return "R8"
	default:
		return "Undefined"
	}
}
