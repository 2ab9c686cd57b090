// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/wgpu/hal"
)

// DefaultSubmitTimeout bounds the wait for a frame slot's previous
// submission. A submission that has not completed by then is treated as a
// lost device.
const DefaultSubmitTimeout = 5 * time.Second

// pollInterval caps the sleep between completion polls.
const pollInterval = 2 * time.Millisecond

// ErrNoTextures is returned when a non-empty batch is rendered without a
// texture source bound for its mode.
var ErrNoTextures = errors.New("render: no texture source for batch mode")

// FrameStatus is the terminal state of one RenderFrame call.
type FrameStatus int

const (
	// FrameCompleted means the frame was submitted and presented.
	FrameCompleted FrameStatus = iota
	// FrameSkipped means no image could be acquired, even after
	// recreating the swapchain, and nothing was submitted.
	FrameSkipped
)

// String returns the status name.
func (s FrameStatus) String() string {
	switch s {
	case FrameCompleted:
		return "Completed"
	case FrameSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// FrameResult reports what one frame did.
type FrameResult struct {
	Status        FrameStatus
	Runs          []sprite.Run
	DrawCalls     int
	PipelineBinds int
	TextureBinds  int
	PushUpdates   int
	Sprites       int
}

// frameSlot holds the resources of one frame in flight. A slot is reused
// only after the queue reports submission as completed.
type frameSlot struct {
	submission uint64
	cmd        hal.CommandBuffer
	inst    hal.Buffer
	instCap int
	scratch []byte
	push    pushRing
}

// FrameRenderer records, submits and presents one batch per frame.
//
// Each RenderFrame call runs: validate the batch, wait for the frame
// slot, acquire a swapchain image (recreating the swapchain and retrying
// once when it is out of date), group the batch into runs, record one
// render pass, submit and present. A lost device is the only error that
// ends the render loop; an unobtainable image skips the frame.
//
// FrameRenderer is not safe for concurrent use.
type FrameRenderer struct {
	device hal.Device
	queue  hal.Queue
	sc     Swapchain
	pm     *PipelineManager
	opts   frameOptions

	quadVB hal.Buffer
	quadIB hal.Buffer

	slots []frameSlot
	next  int

	frames  uint64
	skipped uint64
	stale   bool
}

// NewFrameRenderer creates the per-frame resources for rendering into sc.
func NewFrameRenderer(device hal.Device, queue hal.Queue, sc Swapchain, pm *PipelineManager, opts ...Option) (*FrameRenderer, error) {
	o := defaultFrameOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.framesInFlight <= 0 {
		o.framesInFlight = 2
		if p, ok := sc.(presentModer); ok {
			o.framesInFlight = p.PresentMode().FramesInFlight()
		}
	}
	if o.initialCapacity <= 0 {
		o.initialCapacity = sprite.DefaultInitialCapacity
	}
	if o.submitTimeout <= 0 {
		o.submitTimeout = DefaultSubmitTimeout
	}

	r := &FrameRenderer{
		device: device,
		queue:  queue,
		sc:     sc,
		pm:     pm,
		opts:   o,
		slots:  make([]frameSlot, o.framesInFlight),
	}
	if err := r.init(); err != nil {
		r.Destroy()
		return nil, err
	}
	pm.SetSurfaceFormat(sc.Format())
	if ev, ok := sc.(FormatEvents); ok {
		pm.Watch(ev)
	}
	sprite.Logger().Debug("render: frame renderer created", "framesInFlight", o.framesInFlight, "capacity", o.initialCapacity)
	return r, nil
}

func (r *FrameRenderer) init() error {
	var err error
	r.quadVB, err = r.createBuffer("sprite_unit_quad", unitQuadBytes(), gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.quadIB, err = r.createBuffer("sprite_quad_indices", quadIndexBytes(), gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	for i := range r.slots {
		if err := r.growInstances(&r.slots[i], r.opts.initialCapacity); err != nil {
			return err
		}
	}
	return nil
}

// createBuffer creates a GPU buffer and uploads data.
func (r *FrameRenderer) createBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := r.queue.WriteBuffer(buf, 0, data); err != nil {
		r.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}

// growInstances makes the slot's instance buffer hold at least n sprites.
// Capacity at least doubles on each growth.
func (r *FrameRenderer) growInstances(slot *frameSlot, n int) error {
	if n <= slot.instCap {
		return nil
	}
	size := max(n, 2*slot.instCap, r.opts.initialCapacity)
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_instances",
		Size:  uint64(size) * instanceStride, //nolint:gosec // size is positive
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create sprite_instances: %w", err)
	}
	if slot.inst != nil {
		r.device.DestroyBuffer(slot.inst)
		sprite.Logger().Debug("render: instance buffer grown", "from", slot.instCap, "to", size)
	}
	slot.inst = buf
	slot.instCap = size
	return nil
}

// RenderFrame draws b into the next swapchain image.
func (r *FrameRenderer) RenderFrame(b *sprite.Batch) (FrameResult, error) {
	if err := b.Validate(); err != nil {
		return FrameResult{}, err
	}
	if b.Len() > 0 && !r.hasTextures(b) {
		return FrameResult{}, fmt.Errorf("%w: %s", ErrNoTextures, b.Mode())
	}

	slot := &r.slots[r.next]
	if err := r.waitSlot(slot); err != nil {
		return FrameResult{}, err
	}

	img, err := r.acquire()
	if err != nil {
		if errors.Is(err, sprite.ErrSwapchainOutOfDate) {
			r.skipped++
			sprite.Logger().Warn("render: frame skipped", "frame", r.frames, "err", err)
			return FrameResult{Status: FrameSkipped}, nil
		}
		return FrameResult{}, err
	}

	res := FrameResult{
		Status:  FrameCompleted,
		Runs:    sprite.Group(b.Sprites(), b.Mode()),
		Sprites: b.Len(),
	}
	cmd, err := r.record(slot, b, img, &res)
	if err != nil {
		r.sc.Discard(img)
		return FrameResult{}, err
	}

	idx, err := r.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		r.device.FreeCommandBuffer(cmd)
		r.sc.Discard(img)
		return FrameResult{}, fmt.Errorf("submit: %w: %w", sprite.ErrDeviceLost, err)
	}
	slot.submission = idx
	slot.cmd = cmd
	r.next = (r.next + 1) % len(r.slots)

	if err := r.sc.Present(img); err != nil {
		if errors.Is(err, sprite.ErrSwapchainOutOfDate) {
			r.stale = true
			r.skipped++
			sprite.Logger().Warn("render: present out of date", "frame", r.frames, "err", err)
			return FrameResult{Status: FrameSkipped}, nil
		}
		if errors.Is(err, sprite.ErrDeviceLost) {
			return FrameResult{}, err
		}
		return FrameResult{}, fmt.Errorf("present: %w: %w", sprite.ErrDeviceLost, err)
	}
	if img.Suboptimal {
		r.stale = true
	}

	r.frames++
	sprite.Logger().Debug("render: frame completed",
		"frame", r.frames, "sprites", res.Sprites, "runs", len(res.Runs), "draws", res.DrawCalls)
	return res, nil
}

// ClearFrame presents a frame that is only cleared to the clear color.
func (r *FrameRenderer) ClearFrame() (FrameResult, error) {
	return r.RenderFrame(sprite.NewBatch(sprite.ModeArray))
}

func (r *FrameRenderer) hasTextures(b *sprite.Batch) bool {
	if b.Mode() == sprite.ModeArray {
		return r.opts.array != nil
	}
	return r.opts.atlas != nil
}

// waitSlot blocks until the slot's previous submission finished, then
// frees its command buffer.
func (r *FrameRenderer) waitSlot(slot *frameSlot) error {
	if slot.cmd == nil {
		return nil
	}
	if err := r.waitSubmission(slot.submission); err != nil {
		return err
	}
	r.device.FreeCommandBuffer(slot.cmd)
	slot.cmd = nil
	return nil
}

// waitSubmission polls the queue until submission idx completed. The HAL
// queue has no blocking wait, so the poll backs off up to pollInterval.
func (r *FrameRenderer) waitSubmission(idx uint64) error {
	if r.queue.PollCompleted() >= idx {
		return nil
	}
	deadline := time.Now().Add(r.opts.submitTimeout)
	sleep := 50 * time.Microsecond
	for r.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("wait submission %d: %w: timed out after %s", idx, sprite.ErrDeviceLost, r.opts.submitTimeout)
		}
		time.Sleep(sleep)
		sleep = min(2*sleep, pollInterval)
	}
	return nil
}

func (r *FrameRenderer) waitAll() error {
	for i := range r.slots {
		if err := r.waitSlot(&r.slots[i]); err != nil {
			return err
		}
	}
	return nil
}

// acquire gets a swapchain image, recreating the swapchain and retrying
// once when it is out of date.
func (r *FrameRenderer) acquire() (*SwapchainImage, error) {
	if r.stale {
		if err := r.recreate(); err != nil {
			return nil, err
		}
	}
	img, err := r.sc.Acquire(r.opts.acquireTimeout)
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, sprite.ErrSwapchainOutOfDate) {
		return nil, err
	}
	sprite.Logger().Warn("render: swapchain out of date, recreating", "err", err)
	if err := r.recreate(); err != nil {
		return nil, err
	}
	return r.sc.Acquire(r.opts.acquireTimeout)
}

// recreate rebuilds the swapchain once the GPU is done with every frame,
// then drops pipelines built for a previous surface format. A failed
// recreation is reported as out of date unless the device is lost.
func (r *FrameRenderer) recreate() error {
	if err := r.waitAll(); err != nil {
		return err
	}
	if err := r.sc.Recreate(); err != nil {
		if errors.Is(err, sprite.ErrDeviceLost) || errors.Is(err, sprite.ErrSwapchainOutOfDate) {
			return err
		}
		return fmt.Errorf("recreate swapchain: %w: %w", sprite.ErrSwapchainOutOfDate, err)
	}
	r.stale = false
	r.pm.SetSurfaceFormat(r.sc.Format())
	return nil
}

// record uploads the frame's instance data and encodes its render pass.
func (r *FrameRenderer) record(slot *frameSlot, b *sprite.Batch, img *SwapchainImage, res *FrameResult) (hal.CommandBuffer, error) {
	var (
		pipeline *Pipeline
		texGroup hal.BindGroup
		err      error
	)
	if len(res.Runs) > 0 {
		pipeline, err = r.pm.Pipeline(b.Mode(), r.sc.Format())
		if err != nil {
			return nil, err
		}
		texGroup, err = r.textureGroup(b)
		if err != nil {
			return nil, err
		}
		if err := r.growInstances(slot, b.Len()); err != nil {
			return nil, err
		}
		slot.scratch = encodeInstances(slot.scratch, b.Sprites())
		if err := r.queue.WriteBuffer(slot.inst, 0, slot.scratch); err != nil {
			return nil, fmt.Errorf("upload sprite_instances: %w", err)
		}

		if b.Mode() == sprite.ModeSingle {
			if err := slot.push.ensure(r.device, r.pm.PushLayout(), len(res.Runs)); err != nil {
				return nil, err
			}
			for i, run := range res.Runs {
				if err := slot.push.write(r.queue, i, run.UVRect); err != nil {
					return nil, err
				}
			}
		}
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "sprite_frame_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_frame"); err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sprite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       img.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.opts.clearColor,
		}},
	})
	if pipeline != nil {
		r.recordRuns(rp, slot, pipeline, texGroup, res)
	}
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		encoder.Destroy()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return cmd, nil
}

// recordRuns issues one instanced draw per run. The pipeline and the
// texture group are bound once; the single-texture variant binds a push
// slot per run.
func (r *FrameRenderer) recordRuns(rp hal.RenderPassEncoder, slot *frameSlot, p *Pipeline, texGroup hal.BindGroup, res *FrameResult) {
	rp.SetVertexBuffer(0, r.quadVB, 0)
	rp.SetVertexBuffer(1, slot.inst, 0)
	rp.SetIndexBuffer(r.quadIB, gputypes.IndexFormatUint16, 0)

	var bound *Pipeline
	for i, run := range res.Runs {
		if bound != p {
			rp.SetPipeline(p.Handle())
			rp.SetBindGroup(0, texGroup, nil)
			bound = p
			res.PipelineBinds++
			res.TextureBinds++
		}
		if run.Mode == sprite.ModeSingle {
			rp.SetBindGroup(1, slot.push.group(i), nil)
			res.PushUpdates++
		}
		rp.DrawIndexed(uint32(len(quadIndices)), run.Count, 0, 0, run.First)
		res.DrawCalls++
	}
}

func (r *FrameRenderer) textureGroup(b *sprite.Batch) (hal.BindGroup, error) {
	if b.Mode() == sprite.ModeArray {
		return r.pm.BindTextureArray(r.opts.array)
	}
	return r.pm.BindAtlasTexture(r.opts.atlas, TextureHandle(b.Texture()))
}

// Frames returns the number of completed frames.
func (r *FrameRenderer) Frames() uint64 { return r.frames }

// SkippedFrames returns the number of skipped frames.
func (r *FrameRenderer) SkippedFrames() uint64 { return r.skipped }

// FramesInFlight returns the number of frame slots.
func (r *FrameRenderer) FramesInFlight() int { return len(r.slots) }

// Destroy waits for all submitted frames and releases the renderer's
// buffers. The swapchain, textures and PipelineManager are
// owned by the caller.
func (r *FrameRenderer) Destroy() {
	if err := r.waitAll(); err != nil {
		sprite.Logger().Warn("render: destroy while GPU busy", "err", err)
	}
	for i := len(r.slots) - 1; i >= 0; i-- {
		s := &r.slots[i]
		if s.cmd != nil {
			r.device.FreeCommandBuffer(s.cmd)
			s.cmd = nil
		}
		s.push.destroy(r.device)
		if s.inst != nil {
			r.device.DestroyBuffer(s.inst)
			s.inst = nil
			s.instCap = 0
		}
	}
	if r.quadIB != nil {
		r.device.DestroyBuffer(r.quadIB)
		r.quadIB = nil
	}
	if r.quadVB != nil {
		r.device.DestroyBuffer(r.quadVB)
		r.quadVB = nil
	}
}
