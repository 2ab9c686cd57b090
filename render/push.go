// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/wgpu/hal"
)

// The single-texture pipeline receives its source rectangle per draw.
// WebGPU has no push constants, so the block lives in a ring of uniform
// slots, each with a prebuilt bind group at group 1. Writing slot i and
// binding its group replaces a push; the texture bind group is untouched.
const (
	pushBlockSize  = 16  // vec4<f32> uv_rect
	pushSlotStride = 256 // minUniformBufferOffsetAlignment
)

type pushRing struct {
	buf    hal.Buffer
	groups []hal.BindGroup
	data   [pushBlockSize]byte
}

// ensure grows the ring to at least n slots. Existing contents are lost,
// so it must only be called before any slot of the frame is written.
func (r *pushRing) ensure(device hal.Device, layout hal.BindGroupLayout, n int) error {
	if n <= len(r.groups) {
		return nil
	}
	size := max(n, 2*len(r.groups), 16)
	r.destroy(device)

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_push_ring",
		Size:  uint64(size) * pushSlotStride, //nolint:gosec // size is positive
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create push ring: %w", err)
	}
	r.buf = buf

	r.groups = make([]hal.BindGroup, 0, size)
	for i := range size {
		bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "sprite_push_slot",
			Layout: layout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: buf.NativeHandle(),
					Offset: uint64(i) * pushSlotStride, //nolint:gosec // i is non-negative
					Size:   pushBlockSize,
				}},
			},
		})
		if err != nil {
			r.destroy(device)
			return fmt.Errorf("create push slot %d: %w", i, err)
		}
		r.groups = append(r.groups, bg)
	}
	sprite.Logger().Debug("render: push ring grown", "slots", size)
	return nil
}

// write stores rect in slot i.
func (r *pushRing) write(queue hal.Queue, i int, rect sprite.UVRect) error {
	putF32(r.data[:], rect.U0, rect.V0, rect.U1, rect.V1)
	if err := queue.WriteBuffer(r.buf, uint64(i)*pushSlotStride, r.data[:]); err != nil { //nolint:gosec // i is non-negative
		return fmt.Errorf("write push slot %d: %w", i, err)
	}
	return nil
}

func (r *pushRing) group(i int) hal.BindGroup { return r.groups[i] }

func (r *pushRing) destroy(device hal.Device) {
	for _, bg := range r.groups {
		device.DestroyBindGroup(bg)
	}
	r.groups = nil
	if r.buf != nil {
		device.DestroyBuffer(r.buf)
		r.buf = nil
	}
}
