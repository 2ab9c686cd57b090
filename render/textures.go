// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/wgpu/hal"
)

// ErrTextureDestroyed is returned when a destroyed texture array is used.
var ErrTextureDestroyed = errors.New("render: texture array destroyed")

// TextureHandle identifies a texture loaded into a TextureAtlas. Handles
// are issued in load order starting at 0 and stay valid until Destroy.
type TextureHandle uint32

type atlasEntry struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
	format gputypes.TextureFormat
}

// TextureAtlas owns the standalone textures drawn with the single-texture
// pipeline. Each texture keeps its own extent, which the shader queries.
//
// TextureAtlas is safe for concurrent use.
type TextureAtlas struct {
	mu      sync.Mutex
	device  hal.Device
	queue   hal.Queue
	entries []atlasEntry
	hooks   destroyHooks
}

// destroyHooks runs callbacks before a texture source is released, so that
// bind groups referencing its views can be dropped first.
type destroyHooks struct {
	mu  sync.Mutex
	fns []func()
}

func (h *destroyHooks) add(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

// run calls and clears the registered callbacks.
func (h *destroyHooks) run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// NewTextureAtlas creates an empty atlas on the device.
func NewTextureAtlas(device hal.Device, queue hal.Queue) *TextureAtlas {
	return &TextureAtlas{device: device, queue: queue}
}

// Load creates a device texture of the given extent, uploads pixels and
// returns its handle. pixels must be tightly packed rows.
func (a *TextureAtlas) Load(pixels []byte, width, height uint32, format sprite.PixelFormat) (TextureHandle, error) {
	if err := sprite.CheckPixels("atlas load", pixels, width, height, format); err != nil {
		return 0, err
	}
	texFormat, ok := TextureFormat(format)
	if !ok {
		return 0, &sprite.AssetError{Op: "atlas load", Width: width, Height: height, Format: format, Err: sprite.ErrAssetFormat}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	idx := len(a.entries)
	label := fmt.Sprintf("sprite_atlas_%d", idx)
	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        texFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        texFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		a.device.DestroyTexture(tex)
		return 0, fmt.Errorf("create texture view %s: %w", label, err)
	}

	bpp := uint32(format.BytesPerPixel()) //nolint:gosec // at most 4
	err = a.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: width * bpp, RowsPerImage: height},
		&hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		a.device.DestroyTextureView(view)
		a.device.DestroyTexture(tex)
		return 0, fmt.Errorf("upload texture %s: %w", label, err)
	}

	a.entries = append(a.entries, atlasEntry{tex: tex, view: view, width: width, height: height, format: texFormat})
	sprite.Logger().Debug("render: atlas texture loaded", "handle", idx, "width", width, "height", height, "format", format)
	return TextureHandle(idx), nil //nolint:gosec // atlas size fits uint32
}

func (a *TextureAtlas) entry(h TextureHandle) (atlasEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(h) >= len(a.entries) {
		return atlasEntry{}, fmt.Errorf("%w: %d", sprite.ErrUnknownTexture, h)
	}
	return a.entries[h], nil
}

// Size returns the device-resident extent of a texture.
func (a *TextureAtlas) Size(h TextureHandle) (width, height uint32, err error) {
	e, err := a.entry(h)
	if err != nil {
		return 0, 0, err
	}
	return e.width, e.height, nil
}

// View returns the sampled view of a texture.
func (a *TextureAtlas) View(h TextureHandle) (hal.TextureView, error) {
	e, err := a.entry(h)
	if err != nil {
		return nil, err
	}
	return e.view, nil
}

// Len returns the number of loaded textures.
func (a *TextureAtlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Destroy releases every texture in reverse load order. Handles are
// invalid afterwards and may be issued again by later loads; bind groups
// built for them are dropped before the views are released.
func (a *TextureAtlas) Destroy() {
	a.hooks.run()
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := a.entries[i]
		if e.view != nil {
			a.device.DestroyTextureView(e.view)
		}
		if e.tex != nil {
			a.device.DestroyTexture(e.tex)
		}
	}
	a.entries = nil
}

// TextureArray is one 2D-array texture with sprite.MaxTextureSlots layers,
// drawn with the texture-array pipeline. Every layer shares the array's
// extent and format, so the size the shader queries is the true size of
// whichever slot is sampled.
//
// TextureArray is safe for concurrent use.
type TextureArray struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
	format sprite.PixelFormat
	loaded uint64 // bit i set when slot i holds pixels
	hooks  destroyHooks
}

// NewTextureArray creates the array texture. All slots start unloaded.
func NewTextureArray(device hal.Device, queue hal.Queue, width, height uint32, format sprite.PixelFormat) (*TextureArray, error) {
	texFormat, ok := TextureFormat(format)
	if !ok {
		return nil, &sprite.AssetError{Op: "array create", Width: width, Height: height, Format: format, Err: sprite.ErrAssetFormat}
	}
	if width == 0 || height == 0 {
		return nil, &sprite.AssetError{Op: "array create", Width: width, Height: height, Format: format, Err: sprite.ErrAssetDimensions}
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sprite_texture_array",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: sprite.MaxTextureSlots},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        texFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture array: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "sprite_texture_array_view",
		Format:          texFormat,
		Dimension:       gputypes.TextureViewDimension2DArray,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: sprite.MaxTextureSlots,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture array view: %w", err)
	}
	return &TextureArray{
		device: device, queue: queue,
		tex: tex, view: view,
		width: width, height: height, format: format,
	}, nil
}

// Load uploads pixels into a slot. The pixels must match the array's
// extent and format.
func (a *TextureArray) Load(slot uint32, pixels []byte, width, height uint32, format sprite.PixelFormat) error {
	if slot >= sprite.MaxTextureSlots {
		return &sprite.ValidationError{Index: -1, TexIndex: slot, Err: sprite.ErrTexIndexOutOfRange}
	}
	if err := sprite.CheckPixels("array load", pixels, width, height, format); err != nil {
		return err
	}
	if format != a.format {
		return &sprite.AssetError{Op: "array load", Width: width, Height: height, Format: format, Err: sprite.ErrAssetFormat}
	}
	if width != a.width || height != a.height {
		return &sprite.AssetError{Op: "array load", Width: width, Height: height, Format: format, Err: sprite.ErrAssetDimensions}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tex == nil {
		return ErrTextureDestroyed
	}
	bpp := uint32(format.BytesPerPixel()) //nolint:gosec // at most 4
	err := a.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: a.tex, MipLevel: 0, Origin: hal.Origin3D{X: 0, Y: 0, Z: slot}, Aspect: gputypes.TextureAspectAll},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: width * bpp, RowsPerImage: height},
		&hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("upload array slot %d: %w", slot, err)
	}
	a.loaded |= 1 << slot
	return nil
}

// Size returns the extent shared by every slot.
func (a *TextureArray) Size() (width, height uint32) { return a.width, a.height }

// Format returns the pixel format shared by every slot.
func (a *TextureArray) Format() sprite.PixelFormat { return a.format }

// Loaded reports whether a slot holds pixels.
func (a *TextureArray) Loaded(slot uint32) bool {
	if slot >= sprite.MaxTextureSlots {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded&(1<<slot) != 0
}

// View returns the 2D-array view bound by the array pipeline, or nil after
// Destroy.
func (a *TextureArray) View() hal.TextureView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Destroy releases the view and the texture, after dropping the bind
// groups built for them.
func (a *TextureArray) Destroy() {
	a.hooks.run()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view != nil {
		a.device.DestroyTextureView(a.view)
		a.view = nil
	}
	if a.tex != nil {
		a.device.DestroyTexture(a.tex)
		a.tex = nil
	}
	a.loaded = 0
}
