// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/wgpu/hal"
)

// SwapchainImage is one acquired presentable image.
type SwapchainImage struct {
	// View is the color attachment the frame renders into.
	View hal.TextureView

	// Suboptimal is set when the image can be presented but the swapchain
	// no longer matches the surface exactly.
	Suboptimal bool

	surfaceTex hal.SurfaceTexture
}

// Swapchain is the presentation engine the FrameRenderer draws into.
//
// Acquire returns sprite.ErrSwapchainOutOfDate (possibly wrapped) when the
// swapchain must be recreated, including when no image became available
// in time. The timeout is a bound implementations honor where their
// platform lets them; see SurfaceSwapchain.Acquire. Recreate rebuilds it for the current surface extent;
// it is the resize hook of the render loop. Present and Discard each
// consume an acquired image.
type Swapchain interface {
	Format() gputypes.TextureFormat
	Extent() (width, height uint32)
	Acquire(timeout time.Duration) (*SwapchainImage, error)
	Present(img *SwapchainImage) error
	Discard(img *SwapchainImage)
	Recreate() error
}

// presentModer is implemented by swapchains that know their present mode.
type presentModer interface {
	PresentMode() sprite.PresentMode
}

// SurfaceConfig describes the surface a SurfaceSwapchain presents to.
type SurfaceConfig struct {
	// Formats are the formats the surface supports. The first sRGB format
	// among them is used.
	Formats []gputypes.TextureFormat

	// PresentModes are the modes the surface supports.
	PresentModes []sprite.PresentMode

	// Preferred is the present mode preference order. Empty means
	// sprite.DefaultPresentModes.
	Preferred []sprite.PresentMode

	// Extent reports the current drawable size of the window. It is called
	// on creation and on every Recreate.
	Extent func() (width, height uint32)
}

// ErrZeroExtent is returned by Recreate while the window has no drawable
// area, for example when it is minimized.
var ErrZeroExtent = errors.New("render: surface has zero extent")

// SurfaceSwapchain is a Swapchain over a HAL surface.
type SurfaceSwapchain struct {
	device  hal.Device
	queue   hal.Queue
	surface hal.Surface
	cfg     SurfaceConfig

	mu        sync.Mutex
	format    gputypes.TextureFormat
	mode      sprite.PresentMode
	width     uint32
	height    uint32
	listeners []func(gputypes.TextureFormat)
}

// NewSurfaceSwapchain configures the surface and returns its swapchain.
func NewSurfaceSwapchain(dev *Device, surface hal.Surface, cfg SurfaceConfig) (*SurfaceSwapchain, error) {
	if cfg.Extent == nil {
		return nil, errors.New("render: SurfaceConfig.Extent is required")
	}
	preferred := cfg.Preferred
	if len(preferred) == 0 {
		preferred = sprite.DefaultPresentModes
	}
	s := &SurfaceSwapchain{
		device:  dev.Device,
		queue:   dev.Queue,
		surface: surface,
		cfg:     cfg,
		format:  ChooseSurfaceFormat(cfg.Formats),
		mode:    sprite.ChoosePresentMode(preferred, cfg.PresentModes),
	}
	if err := s.configure(); err != nil {
		return nil, err
	}
	sprite.Logger().Info("render: swapchain configured",
		"format", FormatName(s.format), "presentMode", s.mode, "width", s.width, "height", s.height)
	return s, nil
}

func (s *SurfaceSwapchain) configure() error {
	w, h := s.cfg.Extent()
	if w == 0 || h == 0 {
		return ErrZeroExtent
	}
	err := s.surface.Configure(s.device, &hal.SurfaceConfiguration{
		Width:       w,
		Height:      h,
		Format:      s.format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: halPresentMode(s.mode),
		AlphaMode:   hal.CompositeAlphaModeOpaque,
	})
	if err != nil {
		return mapSurfaceError("configure surface", err)
	}
	s.width, s.height = w, h
	return nil
}

func halPresentMode(m sprite.PresentMode) hal.PresentMode {
	switch m {
	case sprite.PresentMailbox:
		return hal.PresentModeMailbox
	case sprite.PresentFifoRelaxed:
		return hal.PresentModeFifoRelaxed
	case sprite.PresentImmediate:
		return hal.PresentModeImmediate
	default:
		return hal.PresentModeFifo
	}
}

// mapSurfaceError folds HAL surface errors into the renderer's taxonomy.
func mapSurfaceError(op string, err error) error {
	switch {
	case errors.Is(err, hal.ErrDeviceLost):
		return fmt.Errorf("%s: %w: %w", op, sprite.ErrDeviceLost, err)
	case errors.Is(err, hal.ErrSurfaceOutdated), errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrTimeout):
		return fmt.Errorf("%s: %w: %w", op, sprite.ErrSwapchainOutOfDate, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Format returns the surface format.
func (s *SurfaceSwapchain) Format() gputypes.TextureFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// Extent returns the configured size.
func (s *SurfaceSwapchain) Extent() (width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// PresentMode returns the chosen present mode.
func (s *SurfaceSwapchain) PresentMode() sprite.PresentMode { return s.mode }

// Acquire returns the next image.
//
// hal.Surface.AcquireTexture takes no timeout, so the wait is bounded by
// the backend, not by timeout: the Vulkan backend gives up after one
// second, the same as sprite.DefaultAcquireTimeout. A backend timeout maps
// to sprite.ErrSwapchainOutOfDate. An acquire that outlasts timeout still
// returns its image and is logged.
func (s *SurfaceSwapchain) Acquire(timeout time.Duration) (*SwapchainImage, error) {
	start := time.Now()
	acquired, err := s.surface.AcquireTexture(nil)
	if err != nil {
		return nil, mapSurfaceError("acquire", err)
	}
	if took := time.Since(start); timeout > 0 && took > timeout {
		sprite.Logger().Warn("render: acquire exceeded timeout", "took", took, "timeout", timeout)
	}
	view, err := s.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:         "sprite_surface_view",
		Format:        s.Format(),
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		s.surface.DiscardTexture(acquired.Texture)
		return nil, fmt.Errorf("create surface view: %w", err)
	}
	return &SwapchainImage{View: view, Suboptimal: acquired.Suboptimal, surfaceTex: acquired.Texture}, nil
}

// Present queues the image for display and releases its view.
func (s *SurfaceSwapchain) Present(img *SwapchainImage) error {
	defer s.device.DestroyTextureView(img.View)
	if err := s.queue.Present(s.surface, img.surfaceTex, nil); err != nil {
		return mapSurfaceError("present", err)
	}
	return nil
}

// Discard releases an acquired image without presenting it.
func (s *SurfaceSwapchain) Discard(img *SwapchainImage) {
	s.device.DestroyTextureView(img.View)
	s.surface.DiscardTexture(img.surfaceTex)
}

// Recreate reconfigures the surface for its current extent and notifies
// format listeners.
func (s *SurfaceSwapchain) Recreate() error {
	s.mu.Lock()
	s.surface.Unconfigure(s.device)
	err := s.configure()
	format, w, h := s.format, s.width, s.height
	listeners := append([]func(gputypes.TextureFormat){}, s.listeners...)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	sprite.Logger().Warn("render: swapchain recreated", "width", w, "height", h)
	for _, fn := range listeners {
		fn(format)
	}
	return nil
}

// OnFormatChange registers fn to be called with the surface format after
// every Recreate.
func (s *SurfaceSwapchain) OnFormatChange(fn func(gputypes.TextureFormat)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Destroy unconfigures the surface. The surface itself belongs to the
// window system integration and is not destroyed.
func (s *SurfaceSwapchain) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.Unconfigure(s.device)
}
