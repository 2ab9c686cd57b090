// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package asset turns image files into pixel data the renderer uploads.
//
// Decode accepts PNG, JPEG, GIF, BMP, TIFF and WebP and always yields
// tightly packed 8-bit RGBA with straight alpha. LoadAll decodes many
// files in parallel. Packer places images on a shelf-packed sheet and
// returns the pixel-space sprite.UVRect of each, ready for
// Sprite.UVRect.
package asset
