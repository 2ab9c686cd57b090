// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/wgpu/hal"
)

// OffscreenSwapchain is a Swapchain over device textures with no surface.
// Images are handed out round-robin and Present only counts. It serves
// headless runs, where no window exists.
type OffscreenSwapchain struct {
	device hal.Device
	format gputypes.TextureFormat
	mode   sprite.PresentMode

	mu        sync.Mutex
	width     uint32
	height    uint32
	images    []offscreenImage
	next      int
	presented int
}

type offscreenImage struct {
	tex  hal.Texture
	view hal.TextureView
}

// NewOffscreenSwapchain creates images color targets of width x height.
// The image count follows the present mode's frames in flight.
func NewOffscreenSwapchain(device hal.Device, width, height uint32, format gputypes.TextureFormat, mode sprite.PresentMode) (*OffscreenSwapchain, error) {
	if width == 0 || height == 0 {
		return nil, ErrZeroExtent
	}
	if !SupportedSurfaceFormat(format) {
		return nil, fmt.Errorf("%w: %s", sprite.ErrUnsupportedFormat, FormatName(format))
	}
	sc := &OffscreenSwapchain{device: device, format: format, mode: mode, width: width, height: height}
	if err := sc.createImages(); err != nil {
		sc.Destroy()
		return nil, err
	}
	return sc, nil
}

func (s *OffscreenSwapchain) createImages() error {
	for i := range s.mode.FramesInFlight() {
		label := fmt.Sprintf("sprite_offscreen_%d", i)
		tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
			Label:         label,
			Size:          hal.Extent3D{Width: s.width, Height: s.height, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        s.format,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", label, err)
		}
		view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         label + "_view",
			Format:        s.format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			s.device.DestroyTexture(tex)
			return fmt.Errorf("create %s view: %w", label, err)
		}
		s.images = append(s.images, offscreenImage{tex: tex, view: view})
	}
	return nil
}

func (s *OffscreenSwapchain) destroyImages() {
	for i := len(s.images) - 1; i >= 0; i-- {
		s.device.DestroyTextureView(s.images[i].view)
		s.device.DestroyTexture(s.images[i].tex)
	}
	s.images = nil
	s.next = 0
}

// Format returns the color target format.
func (s *OffscreenSwapchain) Format() gputypes.TextureFormat { return s.format }

// PresentMode returns the mode the image count was derived from.
func (s *OffscreenSwapchain) PresentMode() sprite.PresentMode { return s.mode }

// Extent returns the image size.
func (s *OffscreenSwapchain) Extent() (width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Acquire returns the next image. It never blocks.
func (s *OffscreenSwapchain) Acquire(time.Duration) (*SwapchainImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) == 0 {
		return nil, sprite.ErrSwapchainOutOfDate
	}
	img := s.images[s.next]
	s.next = (s.next + 1) % len(s.images)
	return &SwapchainImage{View: img.view}, nil
}

// Present counts the image as shown.
func (s *OffscreenSwapchain) Present(*SwapchainImage) error {
	s.mu.Lock()
	s.presented++
	s.mu.Unlock()
	return nil
}

// Discard releases an acquired image unpresented.
func (s *OffscreenSwapchain) Discard(*SwapchainImage) {}

// Recreate rebuilds the images at the current extent.
func (s *OffscreenSwapchain) Recreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 || s.height == 0 {
		return ErrZeroExtent
	}
	s.destroyImages()
	return s.createImages()
}

// Resize changes the extent used by the next Recreate.
func (s *OffscreenSwapchain) Resize(width, height uint32) {
	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()
}

// Presented returns how many images were presented.
func (s *OffscreenSwapchain) Presented() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

// Destroy releases every image.
func (s *OffscreenSwapchain) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyImages()
}
