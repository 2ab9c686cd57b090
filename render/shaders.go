// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
)

//go:embed shaders/sprite_single.wgsl
var spriteSingleShaderSource string

//go:embed shaders/sprite_array.wgsl
var spriteArrayShaderSource string

// ShaderSource returns the WGSL source of the pipeline variant.
func ShaderSource(mode sprite.TextureMode) string {
	if mode == sprite.ModeArray {
		return spriteArrayShaderSource
	}
	return spriteSingleShaderSource
}

// Vertex input locations shared by both shader variants.
const (
	LocPosition = 0
	LocColor    = 1
	LocVertUV   = 2
	LocUVRect   = 3 // array mode only
	LocTexIndex = 4 // array mode only
	LocSize     = 5
)

// Instance record layout. One record per sprite, 48 bytes:
//
//	 0 position vec2<f32>
//	 8 size     vec2<f32>
//	16 color    vec3<f32>
//	28 tex      u32
//	32 uv_rect  vec4<f32>
const (
	instanceStride = 48

	offPosition = 0
	offSize     = 8
	offColor    = 16
	offTexIndex = 28
	offUVRect   = 32
)

// unitQuadStride is the size of one vert_uv vertex.
const unitQuadStride = 8

// unitQuad holds the four corners of the unit quad in vert_uv space.
var unitQuad = [4]sprite.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// quadIndices draws the unit quad as two triangles.
var quadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// vertexLayouts returns the vertex buffer layouts of a pipeline variant:
// slot 0 is the unit quad, slot 1 the per-sprite instance records. The
// single-texture variant leaves uv_rect and tex_index out; its source
// rectangle comes from the push block.
func vertexLayouts(mode sprite.TextureMode) []gputypes.VertexBufferLayout {
	inst := []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: offPosition, ShaderLocation: LocPosition},
		{Format: gputypes.VertexFormatFloat32x3, Offset: offColor, ShaderLocation: LocColor},
		{Format: gputypes.VertexFormatFloat32x2, Offset: offSize, ShaderLocation: LocSize},
	}
	if mode == sprite.ModeArray {
		inst = append(inst,
			gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x4, Offset: offUVRect, ShaderLocation: LocUVRect},
			gputypes.VertexAttribute{Format: gputypes.VertexFormatUint32, Offset: offTexIndex, ShaderLocation: LocTexIndex},
		)
	}
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: unitQuadStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: LocVertUV},
			},
		},
		{
			ArrayStride: instanceStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes:  inst,
		},
	}
}

// encodeInstances writes one instance record per sprite into dst, growing
// it when needed, and returns the filled slice.
func encodeInstances(dst []byte, sprites []sprite.Sprite) []byte {
	n := len(sprites) * instanceStride
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i := range sprites {
		s := &sprites[i]
		rec := dst[i*instanceStride : (i+1)*instanceStride]
		putF32(rec[offPosition:], s.Position.X, s.Position.Y)
		putF32(rec[offSize:], s.Size.X, s.Size.Y)
		putF32(rec[offColor:], s.Color.X, s.Color.Y, s.Color.Z)
		binary.LittleEndian.PutUint32(rec[offTexIndex:], s.TexIndex)
		putF32(rec[offUVRect:], s.UVRect.U0, s.UVRect.V0, s.UVRect.U1, s.UVRect.V1)
	}
	return dst
}

func putF32(buf []byte, vs ...float32) {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

func unitQuadBytes() []byte {
	buf := make([]byte, len(unitQuad)*unitQuadStride)
	for i, v := range unitQuad {
		putF32(buf[i*unitQuadStride:], v.X, v.Y)
	}
	return buf
}

func quadIndexBytes() []byte {
	buf := make([]byte, len(quadIndices)*2)
	for i, idx := range quadIndices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}
