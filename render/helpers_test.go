// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens a no-op HAL device for tests.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// fakeSwapchain presents into a single noop texture and fails Acquire
// with the scripted errors, one per call, before succeeding.
type fakeSwapchain struct {
	device hal.Device
	tex    hal.Texture
	view   hal.TextureView
	format gputypes.TextureFormat
	mode   sprite.PresentMode

	acquireErrs []error
	presentErr  error
	recreateErr error
	nextFormat  gputypes.TextureFormat
	listeners   []func(gputypes.TextureFormat)

	acquires  int
	presents  int
	discards  int
	recreates int
}

func newFakeSwapchain(t *testing.T, device hal.Device) *fakeSwapchain {
	t.Helper()
	format := gputypes.TextureFormatBGRA8UnormSrgb
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "fake_swapchain",
		Size:          hal.Extent3D{Width: 64, Height: 64, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "fake_swapchain_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.Fatalf("CreateTextureView: %v", err)
	}
	t.Cleanup(func() {
		device.DestroyTextureView(view)
		device.DestroyTexture(tex)
	})
	return &fakeSwapchain{device: device, tex: tex, view: view, format: format, mode: sprite.PresentFifo}
}

func (f *fakeSwapchain) Format() gputypes.TextureFormat  { return f.format }
func (f *fakeSwapchain) Extent() (uint32, uint32)        { return 64, 64 }
func (f *fakeSwapchain) PresentMode() sprite.PresentMode { return f.mode }

func (f *fakeSwapchain) Acquire(time.Duration) (*SwapchainImage, error) {
	f.acquires++
	if len(f.acquireErrs) > 0 {
		err := f.acquireErrs[0]
		f.acquireErrs = f.acquireErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &SwapchainImage{View: f.view}, nil
}

func (f *fakeSwapchain) Present(*SwapchainImage) error {
	f.presents++
	return f.presentErr
}

func (f *fakeSwapchain) Discard(*SwapchainImage) { f.discards++ }

func (f *fakeSwapchain) Recreate() error {
	f.recreates++
	if f.recreateErr != nil {
		return f.recreateErr
	}
	if f.nextFormat != gputypes.TextureFormatUndefined {
		f.format = f.nextFormat
		for _, fn := range f.listeners {
			fn(f.format)
		}
	}
	return nil
}

func (f *fakeSwapchain) OnFormatChange(fn func(gputypes.TextureFormat)) {
	f.listeners = append(f.listeners, fn)
}

// solidPixels returns w*h RGBA8 pixels of one color.
func solidPixels(w, h uint32, r, g, b, a byte) []byte {
	p := make([]byte, 0, w*h*4)
	for range w * h {
		p = append(p, r, g, b, a)
	}
	return p
}

type rendererFixture struct {
	device hal.Device
	queue  hal.Queue
	sc     *fakeSwapchain
	pm     *PipelineManager
	atlas  *TextureAtlas
	array  *TextureArray
}

func newRendererFixture(t *testing.T) *rendererFixture {
	t.Helper()
	device, queue := createNoopDevice(t)
	pm, err := NewPipelineManager(device)
	if err != nil {
		t.Fatalf("NewPipelineManager: %v", err)
	}
	t.Cleanup(pm.Destroy)

	atlas := NewTextureAtlas(device, queue)
	t.Cleanup(atlas.Destroy)
	if _, err := atlas.Load(solidPixels(16, 16, 255, 0, 0, 255), 16, 16, sprite.FormatRGBA8); err != nil {
		t.Fatalf("atlas.Load: %v", err)
	}

	array, err := NewTextureArray(device, queue, 16, 16, sprite.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewTextureArray: %v", err)
	}
	t.Cleanup(array.Destroy)

	return &rendererFixture{
		device: device,
		queue:  queue,
		sc:     newFakeSwapchain(t, device),
		pm:     pm,
		atlas:  atlas,
		array:  array,
	}
}

func (f *rendererFixture) renderer(t *testing.T, opts ...Option) *FrameRenderer {
	t.Helper()
	opts = append([]Option{WithTextureArray(f.array), WithTextureAtlas(f.atlas)}, opts...)
	r, err := NewFrameRenderer(f.device, f.queue, f.sc, f.pm, opts...)
	if err != nil {
		t.Fatalf("NewFrameRenderer: %v", err)
	}
	t.Cleanup(r.Destroy)
	return r
}

func batchWithSlots(mode sprite.TextureMode, slots ...uint32) *sprite.Batch {
	b := sprite.NewBatch(mode)
	for i, s := range slots {
		b.Push(sprite.NewSprite(sprite.Quad{X: float32(i) * 0.1, Y: 0, W: 0.1, H: 0.1}, s))
	}
	return b
}

// countingDevice wraps a HAL device, counting bind groups and optionally
// failing command encoding.
type countingDevice struct {
	hal.Device

	groupsCreated   int
	groupsDestroyed int

	beginErr error
	endErr   error
	encoders []*scriptedEncoder
}

func (d *countingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.groupsCreated++
	return d.Device.CreateBindGroup(desc)
}

func (d *countingDevice) DestroyBindGroup(g hal.BindGroup) {
	d.groupsDestroyed++
	d.Device.DestroyBindGroup(g)
}

func (d *countingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	e := &scriptedEncoder{CommandEncoder: enc, beginErr: d.beginErr, endErr: d.endErr}
	d.encoders = append(d.encoders, e)
	return e, nil
}

type scriptedEncoder struct {
	hal.CommandEncoder

	beginErr error
	endErr   error

	discarded int
	destroyed int
}

func (e *scriptedEncoder) BeginEncoding(label string) error {
	if e.beginErr != nil {
		return e.beginErr
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *scriptedEncoder) EndEncoding() (hal.CommandBuffer, error) {
	if e.endErr != nil {
		return nil, e.endErr
	}
	return e.CommandEncoder.EndEncoding()
}

func (e *scriptedEncoder) DiscardEncoding() {
	e.discarded++
	e.CommandEncoder.DiscardEncoding()
}

func (e *scriptedEncoder) Destroy() {
	e.destroyed++
	e.CommandEncoder.Destroy()
}

// stallingQueue reports no completed submissions while stall is positive,
// one poll at a time.
type stallingQueue struct {
	hal.Queue

	stall int
	polls int
}

func (q *stallingQueue) PollCompleted() uint64 {
	q.polls++
	if q.stall > 0 {
		q.stall--
		return 0
	}
	return q.Queue.PollCompleted()
}
