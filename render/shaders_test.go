// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
)

func TestShaderSourceContents(t *testing.T) {
	tests := []struct {
		mode    sprite.TextureMode
		want    []string
		notWant []string
	}{
		{
			mode: sprite.ModeSingle,
			want: []string{
				"texture_2d<f32>", "@group(1) @binding(0)", "var<uniform>",
				"@location(0) position", "@location(1) color", "@location(2) vert_uv", "@location(5) size",
				"textureDimensions", "fn vs_main", "fn fs_main",
			},
			notWant: []string{"texture_2d_array", "@location(3)", "@location(4)"},
		},
		{
			mode: sprite.ModeArray,
			want: []string{
				"texture_2d_array<f32>", "@location(3) uv_rect", "@location(4) tex_index",
				"@interpolate(flat)", "textureDimensions", "fn vs_main", "fn fs_main",
			},
			notWant: []string{"@group(1)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			src := ShaderSource(tt.mode)
			for _, s := range tt.want {
				if !strings.Contains(src, s) {
					t.Errorf("shader missing %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(src, s) {
					t.Errorf("shader unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestVertexLayouts(t *testing.T) {
	tests := []struct {
		mode sprite.TextureMode
		locs []uint32
	}{
		{sprite.ModeSingle, []uint32{LocPosition, LocColor, LocSize}},
		{sprite.ModeArray, []uint32{LocPosition, LocColor, LocSize, LocUVRect, LocTexIndex}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			layouts := vertexLayouts(tt.mode)
			if len(layouts) != 2 {
				t.Fatalf("got %d buffer layouts, want 2", len(layouts))
			}
			quad := layouts[0]
			if quad.ArrayStride != unitQuadStride || quad.StepMode != gputypes.VertexStepModeVertex {
				t.Errorf("quad layout = stride %d step %v", quad.ArrayStride, quad.StepMode)
			}
			if len(quad.Attributes) != 1 || quad.Attributes[0].ShaderLocation != LocVertUV {
				t.Errorf("quad attributes = %+v", quad.Attributes)
			}
			inst := layouts[1]
			if inst.ArrayStride != instanceStride || inst.StepMode != gputypes.VertexStepModeInstance {
				t.Errorf("instance layout = stride %d step %v", inst.ArrayStride, inst.StepMode)
			}
			if len(inst.Attributes) != len(tt.locs) {
				t.Fatalf("instance attributes = %d, want %d", len(inst.Attributes), len(tt.locs))
			}
			for i, a := range inst.Attributes {
				if a.ShaderLocation != tt.locs[i] {
					t.Errorf("attribute %d location = %d, want %d", i, a.ShaderLocation, tt.locs[i])
				}
				if a.Offset >= instanceStride {
					t.Errorf("attribute %d offset %d outside record", i, a.Offset)
				}
			}
		})
	}
}

func TestEncodeInstances(t *testing.T) {
	sprites := []sprite.Sprite{
		{
			Position: sprite.V2(-0.5, 0.25),
			Size:     sprite.V2(0.5, 0.5),
			Color:    sprite.V3(1, 0.5, 0.25),
			UVRect:   sprite.UVRect{U0: 1, V0: 2, U1: 3, V1: 4},
			TexIndex: 7,
		},
		sprite.NewSprite(sprite.Quad{X: 0, Y: 0, W: 1, H: 1}, 63),
	}
	buf := encodeInstances(nil, sprites)
	if len(buf) != len(sprites)*instanceStride {
		t.Fatalf("len = %d, want %d", len(buf), len(sprites)*instanceStride)
	}

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	checks := []struct {
		name string
		got  float32
		want float32
	}{
		{"pos.x", f32(offPosition), -0.5},
		{"pos.y", f32(offPosition + 4), 0.25},
		{"size.x", f32(offSize), 0.5},
		{"color.y", f32(offColor + 4), 0.5},
		{"color.z", f32(offColor + 8), 0.25},
		{"uv.u0", f32(offUVRect), 1},
		{"uv.v1", f32(offUVRect + 12), 4},
		{"second.color.x", f32(instanceStride + offColor), 1},
		{"second.uv.u1", f32(instanceStride + offUVRect + 8), 0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if got := binary.LittleEndian.Uint32(buf[offTexIndex:]); got != 7 {
		t.Errorf("tex = %d, want 7", got)
	}
	if got := binary.LittleEndian.Uint32(buf[instanceStride+offTexIndex:]); got != 63 {
		t.Errorf("second tex = %d, want 63", got)
	}

	reused := encodeInstances(buf, sprites[:1])
	if &reused[0] != &buf[0] {
		t.Error("encodeInstances did not reuse a large enough buffer")
	}
}

func TestQuadGeometry(t *testing.T) {
	idx := quadIndexBytes()
	want := []uint16{0, 1, 2, 2, 3, 0}
	for i, w := range want {
		if got := binary.LittleEndian.Uint16(idx[i*2:]); got != w {
			t.Errorf("index %d = %d, want %d", i, got, w)
		}
	}

	vb := unitQuadBytes()
	if len(vb) != 4*unitQuadStride {
		t.Fatalf("unit quad = %d bytes", len(vb))
	}
	corners := [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, c := range corners {
		x := math.Float32frombits(binary.LittleEndian.Uint32(vb[i*unitQuadStride:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(vb[i*unitQuadStride+4:]))
		if x != c[0] || y != c[1] {
			t.Errorf("corner %d = (%v, %v), want %v", i, x, y, c)
		}
	}
}
