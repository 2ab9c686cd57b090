// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
)

// PipelineOption configures a PipelineManager.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	filter      gputypes.FilterMode
	addressMode gputypes.AddressMode
}

func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		filter:      gputypes.FilterModeNearest,
		addressMode: gputypes.AddressModeClampToEdge,
	}
}

// WithLinearFiltering samples with bilinear filtering instead of nearest.
func WithLinearFiltering() PipelineOption {
	return func(o *pipelineOptions) {
		o.filter = gputypes.FilterModeLinear
	}
}

// WithRepeat wraps texture coordinates instead of clamping them. With
// repeat addressing a coordinate of exactly 1.0 samples texel 0.
func WithRepeat() PipelineOption {
	return func(o *pipelineOptions) {
		o.addressMode = gputypes.AddressModeRepeat
	}
}

// PipelineOptionsFromConfig translates the sampler settings of a config.
func PipelineOptionsFromConfig(c sprite.Config) []PipelineOption {
	var opts []PipelineOption
	if c.Filter == "linear" {
		opts = append(opts, WithLinearFiltering())
	}
	if c.AddressMode == "repeat" {
		opts = append(opts, WithRepeat())
	}
	return opts
}

// Option configures a FrameRenderer.
type Option func(*frameOptions)

type frameOptions struct {
	framesInFlight  int
	acquireTimeout  time.Duration
	submitTimeout   time.Duration
	clearColor      gputypes.Color
	initialCapacity int
	array           *TextureArray
	atlas           *TextureAtlas
}

func defaultFrameOptions() frameOptions {
	c := sprite.DefaultClearColor
	return frameOptions{
		acquireTimeout:  sprite.DefaultAcquireTimeout,
		submitTimeout:   DefaultSubmitTimeout,
		clearColor:      gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
		initialCapacity: sprite.DefaultInitialCapacity,
	}
}

// WithFramesInFlight sets how many frames may be recorded before the
// renderer waits for the GPU. Zero derives it from the swapchain's present
// mode: three for mailbox, two otherwise.
func WithFramesInFlight(n int) Option {
	return func(o *frameOptions) {
		o.framesInFlight = n
	}
}

// WithAcquireTimeout bounds the wait for a swapchain image. A timeout is
// treated like an out-of-date swapchain.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *frameOptions) {
		o.acquireTimeout = d
	}
}

// WithSubmitTimeout bounds the wait for the GPU to finish a frame slot's
// previous submission. Expiry is reported as sprite.ErrDeviceLost.
func WithSubmitTimeout(d time.Duration) Option {
	return func(o *frameOptions) {
		o.submitTimeout = d
	}
}

// WithClearColor sets the color each frame is cleared to.
func WithClearColor(r, g, b, a float64) Option {
	return func(o *frameOptions) {
		o.clearColor = gputypes.Color{R: r, G: g, B: b, A: a}
	}
}

// WithInitialCapacity sets the number of sprites the instance buffers hold
// before they grow.
func WithInitialCapacity(n int) Option {
	return func(o *frameOptions) {
		o.initialCapacity = n
	}
}

// WithTextureArray sets the texture array bound for ModeArray batches.
func WithTextureArray(arr *TextureArray) Option {
	return func(o *frameOptions) {
		o.array = arr
	}
}

// WithTextureAtlas sets the atlas whose textures ModeSingle batches bind.
func WithTextureAtlas(atlas *TextureAtlas) Option {
	return func(o *frameOptions) {
		o.atlas = atlas
	}
}

// OptionsFromConfig translates the frame settings of a config.
func OptionsFromConfig(c sprite.Config) []Option {
	opts := []Option{
		WithFramesInFlight(c.FramesInFlight),
		WithAcquireTimeout(c.AcquireTimeout),
		WithInitialCapacity(c.InitialCapacity),
	}
	if len(c.ClearColor) == 4 {
		cc := c.ClearColor
		opts = append(opts, WithClearColor(float64(cc[0]), float64(cc[1]), float64(cc[2]), float64(cc[3])))
	}
	return opts
}
