// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render draws sprite batches on a gogpu HAL device.
//
// The package owns the GPU side of the sprite renderer: texture residency,
// the two pipeline variants and the per-frame loop that records, submits
// and presents a batch.
//
// # Devices
//
// A Device is either opened by this package (OpenDevice for the native
// backend compiled into the binary, OpenNoop for headless runs) or adopted
// from a host with FromProvider. Adopted devices are never destroyed here.
//
// # Pipelines
//
// PipelineManager builds and caches one pipeline per (TextureMode, surface
// format):
//
//   - Single binds one texture per draw and passes the source rectangle
//     as a per-draw constant in bind group 1.
//   - Array binds a texture_2d_array of sprite.MaxTextureSlots layers once
//     and reads the rectangle and layer from each instance.
//
// Both variants expand a shared unit quad per instance, sample with the
// manager's sampler and output premultiplied color.
//
// # Frames
//
// FrameRenderer runs the frame loop against a Swapchain:
//
//	sc, _ := render.NewSurfaceSwapchain(dev, surface, cfg)
//	pm, _ := render.NewPipelineManager(dev.Device)
//	fr, _ := render.NewFrameRenderer(dev.Device, dev.Queue, sc, pm,
//	    render.WithTextureArray(arr))
//
//	for running {
//	    res, err := fr.RenderFrame(batch)
//	    if errors.Is(err, sprite.ErrDeviceLost) {
//	        break
//	    }
//	    _ = res
//	}
//
// An out-of-date swapchain is recreated and the acquire retried once; a
// second failure skips the frame. OffscreenSwapchain stands in for a
// window surface in headless runs.
//
// # Thread Safety
//
// TextureAtlas, TextureArray and PipelineManager are safe for concurrent
// use. FrameRenderer must be driven from one goroutine.
package render
