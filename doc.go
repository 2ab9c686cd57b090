// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sprite is the data model of a batched texture-atlas sprite renderer.
//
// # Overview
//
// A [Sprite] is one textured, tinted quad. Its destination is given in
// normalized device coordinates (Position and Size) and its source is a
// pixel-space rectangle ([UVRect]) of a texture selected by TexIndex.
// The zero UVRect samples the whole texture.
//
// Sprites are appended to a [Batch] in draw order. Before the GPU sees a
// batch, [Batch.Validate] rejects texture indices the pipeline cannot bind
// and [Group] splits the batch into [Run]s, each drawn with one instanced
// draw call.
//
// # Quick Start
//
//	b := sprite.NewBatch(sprite.ModeArray)
//	b.Push(sprite.NewSprite(sprite.Quad{X: -1, Y: -1, W: 1, H: 1}, 3))
//	b.Push(sprite.NewSprite(sprite.Quad{X: 0, Y: 0, W: 1, H: 1}, 5).
//	    WithUV(sprite.UVRect{U0: 0, V0: 0, U1: 16, V1: 16}))
//
//	res, err := frames.RenderFrame(b) // frames is a *render.FrameRenderer
//
// # Texture modes
//
// [ModeArray] binds up to [MaxTextureSlots] textures once per frame and
// runs split when TexIndex changes. [ModeSingle] binds one texture and
// passes the source rectangle per draw, so runs split when UVRect changes.
//
// # UV contract
//
// Normalization always divides by the true pixel size of the sampled
// texture. [NormalizeUV] and [TexelAt] reproduce the shader math on the
// CPU for tools and tests.
//
// # Sub-packages
//
//   - render: textures, pipelines, swapchain and the per-frame state machine
//   - asset: image decoding, parallel preload and rectangle packing
//
// # Logging
//
// The module is silent by default. See [SetLogger].
package sprite

// Version is the module version.
const Version = "0.1.0"
