// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
)

// TextureFormat returns the device format used to store pixels of the
// given layout.
func TextureFormat(f sprite.PixelFormat) (gputypes.TextureFormat, bool) {
	switch f {
	case sprite.FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, true
	case sprite.FormatRGBA8Srgb:
		return gputypes.TextureFormatRGBA8UnormSrgb, true
	case sprite.FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm, true
	case sprite.FormatBGRA8Srgb:
		return gputypes.TextureFormatBGRA8UnormSrgb, true
	case sprite.FormatR8:
		return gputypes.TextureFormatR8Unorm, true
	default:
		return gputypes.TextureFormatUndefined, false
	}
}

// surfaceFormats lists the color target formats pipelines can be built for,
// sRGB variants first.
var surfaceFormats = []gputypes.TextureFormat{
	gputypes.TextureFormatBGRA8UnormSrgb,
	gputypes.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatRGBA8Unorm,
}

// SupportedSurfaceFormat reports whether pipelines can target f.
func SupportedSurfaceFormat(f gputypes.TextureFormat) bool {
	for _, s := range surfaceFormats {
		if s == f {
			return true
		}
	}
	return false
}

// ChooseSurfaceFormat picks the swapchain format from the formats a
// surface reports. sRGB formats are preferred. If none of the available
// formats is supported, it returns BGRA8UnormSrgb.
func ChooseSurfaceFormat(available []gputypes.TextureFormat) gputypes.TextureFormat {
	for _, want := range surfaceFormats {
		for _, a := range available {
			if a == want {
				return a
			}
		}
	}
	return gputypes.TextureFormatBGRA8UnormSrgb
}

// FormatName returns a readable name for the formats this package uses.
func FormatName(f gputypes.TextureFormat) string {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return "RGBA8Unorm"
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return "RGBA8UnormSrgb"
	case gputypes.TextureFormatBGRA8Unorm:
		return "BGRA8Unorm"
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return "BGRA8UnormSrgb"
	case gputypes.TextureFormatR8Unorm:
		return "R8Unorm"
	case gputypes.TextureFormatUndefined:
		return "Undefined"
	default:
		return fmt.Sprintf("TextureFormat(%d)", f)
	}
}
