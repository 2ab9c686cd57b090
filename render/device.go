// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// DeviceHandle is the host-provided GPU device accepted by FromProvider.
// It is an alias for gpucontext.DeviceProvider so hosts built on gogpu
// can hand over their device without conversion.
type DeviceHandle = gpucontext.DeviceProvider

// Errors returned when opening or adopting a device.
var (
	// ErrNoAdapter is returned when the backend reports no adapters.
	ErrNoAdapter = errors.New("render: no GPU adapter available")

	// ErrBackendUnavailable is returned when the compiled backend is not
	// registered with the HAL.
	ErrBackendUnavailable = errors.New("render: backend not available")

	// ErrNoHALAccess is returned when a host provider does not expose its
	// HAL device and queue.
	ErrNoHALAccess = errors.New("render: provider does not expose HAL types")
)

// Device is an open HAL device with its queue.
//
// A Device opened by OpenDevice or OpenNoop owns the instance and the
// device and releases both in Destroy. A Device adopted with FromProvider
// belongs to the host and Destroy leaves it alone.
type Device struct {
	Device  hal.Device
	Queue   hal.Queue
	Backend string // "vulkan", "dx12", "metal" or "noop"
	Adapter string

	instance hal.Instance
	external bool
}

// OpenDevice opens the backend compiled into this binary and picks the
// first discrete or integrated adapter, falling back to the first one.
func OpenDevice() (*Device, error) {
	backend, ok := hal.GetBackend(compiledBackend)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, CompiledBackend())
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	d, err := openFirstAdapter(instance, CompiledBackend())
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	sprite.Logger().Info("render: device opened", "backend", CompiledBackend(), "adapter", d.Adapter)
	return d, nil
}

// OpenNoop opens the no-op HAL device. Every object creation succeeds and
// nothing is drawn; spritecheck dry runs and tests use it.
func OpenNoop() (*Device, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create noop instance: %w", err)
	}
	d, err := openFirstAdapter(instance, "noop")
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return d, nil
}

func openFirstAdapter(instance hal.Instance, backend string) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Backend:  backend,
		Adapter:  selected.Info.Name,
		instance: instance,
	}, nil
}

// FromProvider adopts a device owned by the host application. The
// provider must expose HalDevice and HalQueue returning HAL objects.
func FromProvider(p DeviceHandle) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALAccess)
	}
	return &Device{Device: device, Queue: queue, Backend: CompiledBackend(), external: true}, nil
}

// External reports whether the device belongs to the host.
func (d *Device) External() bool { return d.external }

// Destroy releases an owned device and its instance.
func (d *Device) Destroy() {
	if d == nil || d.external {
		return
	}
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.Queue = nil
}
