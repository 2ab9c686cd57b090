// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func TestMapSurfaceError(t *testing.T) {
	other := errors.New("boom")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"device lost", hal.ErrDeviceLost, sprite.ErrDeviceLost},
		{"outdated", hal.ErrSurfaceOutdated, sprite.ErrSwapchainOutOfDate},
		{"lost surface", hal.ErrSurfaceLost, sprite.ErrSwapchainOutOfDate},
		{"timeout", hal.ErrTimeout, sprite.ErrSwapchainOutOfDate},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapSurfaceError("acquire", tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("mapSurfaceError() = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, tt.in) {
				t.Errorf("mapSurfaceError() lost the HAL error %v", tt.in)
			}
		})
	}
	if errors.Is(mapSurfaceError("x", other), sprite.ErrSwapchainOutOfDate) {
		t.Error("unrelated errors must not be treated as out of date")
	}
}

func TestHalPresentMode(t *testing.T) {
	tests := []struct {
		in   sprite.PresentMode
		want hal.PresentMode
	}{
		{sprite.PresentMailbox, hal.PresentModeMailbox},
		{sprite.PresentFifo, hal.PresentModeFifo},
		{sprite.PresentFifoRelaxed, hal.PresentModeFifoRelaxed},
		{sprite.PresentImmediate, hal.PresentModeImmediate},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := halPresentMode(tt.in); got != tt.want {
				t.Errorf("halPresentMode(%v) = %v", tt.in, got)
			}
		})
	}
}

func TestNewSurfaceSwapchainNeedsExtent(t *testing.T) {
	if _, err := NewSurfaceSwapchain(&Device{}, nil, SurfaceConfig{}); err == nil {
		t.Fatal("NewSurfaceSwapchain without Extent succeeded")
	}
}

// slowSurface delays every acquire.
type slowSurface struct {
	hal.Surface
	delay time.Duration
}

func (s *slowSurface) AcquireTexture(f hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	time.Sleep(s.delay)
	return s.Surface.AcquireTexture(f)
}

func TestSurfaceAcquireTimeoutLogged(t *testing.T) {
	device, queue := createNoopDevice(t)
	var logs bytes.Buffer
	orig := sprite.Logger()
	t.Cleanup(func() { sprite.SetLogger(orig) })
	sprite.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	sc, err := NewSurfaceSwapchain(&Device{Device: device, Queue: queue}, &slowSurface{Surface: &noop.Surface{}, delay: 20 * time.Millisecond}, SurfaceConfig{
		Formats: []gputypes.TextureFormat{gputypes.TextureFormatBGRA8UnormSrgb},
		Extent:  func() (uint32, uint32) { return 64, 64 },
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		timeout time.Duration
		warn    bool
	}{
		{"within", time.Second, false},
		{"exceeded", time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			img, err := sc.Acquire(tt.timeout)
			if err != nil {
				t.Fatalf("Acquire() = %v", err)
			}
			sc.Discard(img)
			if got := strings.Contains(logs.String(), "acquire exceeded timeout"); got != tt.warn {
				t.Errorf("warning logged = %v, want %v\n%s", got, tt.warn, logs.String())
			}
		})
	}
}
