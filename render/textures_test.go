// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/sprite"
)

func TestTextureAtlasLoad(t *testing.T) {
	device, queue := createNoopDevice(t)
	atlas := NewTextureAtlas(device, queue)
	t.Cleanup(atlas.Destroy)

	sizes := []struct{ w, h uint32 }{{16, 16}, {64, 32}, {3, 7}}
	for i, sz := range sizes {
		h, err := atlas.Load(solidPixels(sz.w, sz.h, 1, 2, 3, 4), sz.w, sz.h, sprite.FormatRGBA8)
		if err != nil {
			t.Fatalf("Load(%dx%d) = %v", sz.w, sz.h, err)
		}
		if int(h) != i {
			t.Errorf("handle = %d, want %d", h, i)
		}
	}
	for i, sz := range sizes {
		w, h, err := atlas.Size(TextureHandle(i)) //nolint:gosec // small
		if err != nil || w != sz.w || h != sz.h {
			t.Errorf("Size(%d) = %d, %d, %v, want %d, %d", i, w, h, err, sz.w, sz.h)
		}
	}
	if atlas.Len() != len(sizes) {
		t.Errorf("Len() = %d", atlas.Len())
	}
	if _, _, err := atlas.Size(99); !errors.Is(err, sprite.ErrUnknownTexture) {
		t.Errorf("Size(99) = %v", err)
	}
}

func TestTextureAtlasLoadRejects(t *testing.T) {
	device, queue := createNoopDevice(t)
	atlas := NewTextureAtlas(device, queue)
	t.Cleanup(atlas.Destroy)

	tests := []struct {
		name    string
		pixels  []byte
		w, h    uint32
		format  sprite.PixelFormat
		wantErr error
	}{
		{"short buffer", make([]byte, 15), 2, 2, sprite.FormatRGBA8, sprite.ErrAssetSize},
		{"zero extent", nil, 0, 0, sprite.FormatRGBA8, sprite.ErrAssetDimensions},
		{"undefined format", make([]byte, 16), 2, 2, sprite.FormatUndefined, sprite.ErrAssetFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := atlas.Load(tt.pixels, tt.w, tt.h, tt.format)
			var ae *sprite.AssetError
			if !errors.As(err, &ae) || !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() = %v, want AssetError wrapping %v", err, tt.wantErr)
			}
		})
	}
	if atlas.Len() != 0 {
		t.Errorf("rejected loads created %d textures", atlas.Len())
	}
}

func TestTextureArrayLoad(t *testing.T) {
	device, queue := createNoopDevice(t)
	arr, err := NewTextureArray(device, queue, 8, 8, sprite.FormatRGBA8Srgb)
	if err != nil {
		t.Fatalf("NewTextureArray() = %v", err)
	}
	t.Cleanup(arr.Destroy)

	px := solidPixels(8, 8, 9, 9, 9, 255)
	for _, slot := range []uint32{0, 5, 63} {
		if err := arr.Load(slot, px, 8, 8, sprite.FormatRGBA8Srgb); err != nil {
			t.Fatalf("Load(%d) = %v", slot, err)
		}
		if !arr.Loaded(slot) {
			t.Errorf("Loaded(%d) = false", slot)
		}
	}
	if arr.Loaded(1) {
		t.Error("Loaded(1) = true for an untouched slot")
	}
	if w, h := arr.Size(); w != 8 || h != 8 {
		t.Errorf("Size() = %d, %d", w, h)
	}
}

func TestTextureArrayLoadRejects(t *testing.T) {
	device, queue := createNoopDevice(t)
	arr, err := NewTextureArray(device, queue, 8, 8, sprite.FormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(arr.Destroy)

	px := solidPixels(8, 8, 0, 0, 0, 0)
	err = arr.Load(64, px, 8, 8, sprite.FormatRGBA8)
	var ve *sprite.ValidationError
	if !errors.As(err, &ve) || !errors.Is(err, sprite.ErrTexIndexOutOfRange) {
		t.Errorf("Load(64) = %v, want ValidationError", err)
	}

	if err := arr.Load(0, solidPixels(4, 4, 0, 0, 0, 0), 4, 4, sprite.FormatRGBA8); !errors.Is(err, sprite.ErrAssetDimensions) {
		t.Errorf("Load(4x4) = %v, want ErrAssetDimensions", err)
	}
	if err := arr.Load(0, px, 8, 8, sprite.FormatBGRA8); !errors.Is(err, sprite.ErrAssetFormat) {
		t.Errorf("Load(BGRA8) = %v, want ErrAssetFormat", err)
	}
	if err := arr.Load(0, px[:10], 8, 8, sprite.FormatRGBA8); !errors.Is(err, sprite.ErrAssetSize) {
		t.Errorf("Load(short) = %v, want ErrAssetSize", err)
	}
	if arr.Loaded(0) {
		t.Error("rejected loads must not mark the slot")
	}
}

func TestNewTextureArrayRejects(t *testing.T) {
	device, queue := createNoopDevice(t)
	if _, err := NewTextureArray(device, queue, 0, 8, sprite.FormatRGBA8); !errors.Is(err, sprite.ErrAssetDimensions) {
		t.Errorf("zero width = %v", err)
	}
	if _, err := NewTextureArray(device, queue, 8, 8, sprite.FormatUndefined); !errors.Is(err, sprite.ErrAssetFormat) {
		t.Errorf("undefined format = %v", err)
	}
}
