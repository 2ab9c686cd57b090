// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

import (
	"errors"
	"fmt"
)

// Package errors.
var (
	// ErrAssetSize is returned when a pixel buffer length does not match
	// width*height*bytes-per-pixel.
	ErrAssetSize = errors.New("sprite: pixel buffer size mismatch")

	// ErrAssetFormat is returned for pixel formats the device cannot sample
	// or that differ from the destination texture.
	ErrAssetFormat = errors.New("sprite: unsupported pixel format")

	// ErrAssetDimensions is returned for zero extents or extents that differ
	// from the destination texture.
	ErrAssetDimensions = errors.New("sprite: invalid texture dimensions")

	// ErrShaderCompile is returned when a WGSL shader fails validation.
	ErrShaderCompile = errors.New("sprite: shader compilation failed")

	// ErrUnsupportedFormat is returned when a surface format has no pipeline.
	ErrUnsupportedFormat = errors.New("sprite: unsupported surface format")

	// ErrSwapchainOutOfDate is returned when the swapchain no longer
	// matches the surface, or when acquiring an image timed out. It is
	// recoverable: the renderer recreates the swapchain and retries.
	ErrSwapchainOutOfDate = errors.New("sprite: swapchain out of date")

	// ErrDeviceLost is returned when the GPU device is lost. It is fatal.
	ErrDeviceLost = errors.New("sprite: GPU device lost")

	// ErrTexIndexOutOfRange is returned when a sprite references a slot
	// at or beyond MaxTextureSlots.
	ErrTexIndexOutOfRange = errors.New("sprite: texture index out of range")

	// ErrTexIndexSingleMode is returned when a single-texture batch holds a
	// sprite with a non-zero texture index.
	ErrTexIndexSingleMode = errors.New("sprite: non-zero texture index in single-texture batch")

	// ErrUnknownTexture is returned for handles the atlas never issued.
	ErrUnknownTexture = errors.New("sprite: unknown texture handle")
)

// AssetError describes a rejected texture upload.
type AssetError struct {
	Op     string // "atlas load", "array load", "decode"
	Width  uint32
	Height uint32
	Format PixelFormat
	Got    int // observed byte count, when relevant
	Want   int // expected byte count, when relevant
	Err    error
}

func (e *AssetError) Error() string {
	if e.Want != 0 || e.Got != 0 {
		return fmt.Sprintf("%s %dx%d %s: %v (got %d bytes, want %d)",
			e.Op, e.Width, e.Height, e.Format, e.Err, e.Got, e.Want)
	}
	return fmt.Sprintf("%s %dx%d %s: %v", e.Op, e.Width, e.Height, e.Format, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// CheckPixels verifies that a pixel buffer matches its declared extent and
// format. It returns nil or an *AssetError.
func CheckPixels(op string, pixels []byte, width, height uint32, format PixelFormat) error {
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return &AssetError{Op: op, Width: width, Height: height, Format: format, Err: ErrAssetFormat}
	}
	if width == 0 || height == 0 {
		return &AssetError{Op: op, Width: width, Height: height, Format: format, Err: ErrAssetDimensions}
	}
	want := int(width) * int(height) * bpp
	if len(pixels) != want {
		return &AssetError{Op: op, Width: width, Height: height, Format: format,
			Got: len(pixels), Want: want, Err: ErrAssetSize}
	}
	return nil
}

// PipelineBuildError describes a failed pipeline build.
type PipelineBuildError struct {
	Mode   TextureMode
	Format string // surface format name
	Stage  string // "compile", "shader module", "layout", "pipeline"
	Err    error
}

func (e *PipelineBuildError) Error() string {
	return fmt.Sprintf("sprite: build %s pipeline for %s: %s: %v", e.Mode, e.Format, e.Stage, e.Err)
}

func (e *PipelineBuildError) Unwrap() error { return e.Err }

// ValidationError names the first sprite in a batch that cannot be drawn.
type ValidationError struct {
	Index    int
	TexIndex uint32
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sprite %d: tex index %d: %v", e.Index, e.TexIndex, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
