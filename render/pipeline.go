// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/internal/shader"
	"github.com/gogpu/wgpu/hal"
)

// Pipeline is a built render pipeline for one (mode, surface format) pair.
// It is immutable; the PipelineManager owns and destroys it.
type Pipeline struct {
	Mode   sprite.TextureMode
	Format gputypes.TextureFormat

	shader   *shader.Compiled
	module   hal.ShaderModule
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
}

// Handle returns the HAL render pipeline.
func (p *Pipeline) Handle() hal.RenderPipeline { return p.pipeline }

// Layout returns the pipeline layout.
func (p *Pipeline) Layout() hal.PipelineLayout { return p.layout }

// Bytecode returns the SPIR-V words the shader pair compiled to.
func (p *Pipeline) Bytecode() []uint32 { return p.shader.SPIRV }

func (p *Pipeline) destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

type pipelineKey struct {
	mode   sprite.TextureMode
	format gputypes.TextureFormat
}

type atlasKey struct {
	atlas  *TextureAtlas
	handle TextureHandle
}

// FormatEvents is implemented by swapchains that announce surface format
// changes, typically after Recreate.
type FormatEvents interface {
	OnFormatChange(fn func(gputypes.TextureFormat))
}

// PipelineManager builds and caches the sprite pipelines and owns the
// objects they share: the sampler, the bind-group layouts and the texture
// bind groups.
//
// PipelineManager is safe for concurrent use.
type PipelineManager struct {
	mu     sync.Mutex
	device hal.Device
	opts   pipelineOptions

	sampler      hal.Sampler
	singleLayout hal.BindGroupLayout
	arrayLayout  hal.BindGroupLayout
	pushLayout   hal.BindGroupLayout

	format    gputypes.TextureFormat
	pipelines map[pipelineKey]*Pipeline
	builds    int

	atlasGroups map[atlasKey]hal.BindGroup
	arrayGroups map[*TextureArray]hal.BindGroup
	watched     map[any]struct{} // texture sources with a destroy hook
}

// NewPipelineManager creates the shared sampler and bind-group layouts.
// Pipelines are built on demand.
func NewPipelineManager(device hal.Device, opts ...PipelineOption) (*PipelineManager, error) {
	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	m := &PipelineManager{
		device:      device,
		opts:        o,
		pipelines:   make(map[pipelineKey]*Pipeline),
		atlasGroups: make(map[atlasKey]hal.BindGroup),
		arrayGroups: make(map[*TextureArray]hal.BindGroup),
		watched:     make(map[any]struct{}),
	}
	if err := m.createShared(); err != nil {
		m.destroyShared()
		return nil, err
	}
	return m, nil
}

func (m *PipelineManager) createShared() error {
	sampler, err := m.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sprite_sampler",
		AddressModeU: m.opts.addressMode,
		AddressModeV: m.opts.addressMode,
		AddressModeW: m.opts.addressMode,
		MagFilter:    m.opts.filter,
		MinFilter:    m.opts.filter,
		MipmapFilter: m.opts.filter,
	})
	if err != nil {
		return fmt.Errorf("create sprite sampler: %w", err)
	}
	m.sampler = sampler

	m.singleLayout, err = m.createTextureLayout("sprite_single_texture_layout", gputypes.TextureViewDimension2D)
	if err != nil {
		return err
	}
	m.arrayLayout, err = m.createTextureLayout("sprite_array_texture_layout", gputypes.TextureViewDimension2DArray)
	if err != nil {
		return err
	}

	m.pushLayout, err = m.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_push_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create sprite push layout: %w", err)
	}
	return nil
}

// createTextureLayout creates group 0: the sampled texture at binding 0
// and the shared sampler at binding 1. The vertex stage reads the
// texture's dimensions, so the texture is visible to both stages.
func (m *PipelineManager) createTextureLayout(label string, dim gputypes.TextureViewDimension) (hal.BindGroupLayout, error) {
	l, err := m.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: dim,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return l, nil
}

// BuildSingleTexturePipeline builds, or returns the cached, single-texture
// pipeline for the surface format.
func (m *PipelineManager) BuildSingleTexturePipeline(format gputypes.TextureFormat) (*Pipeline, error) {
	return m.Pipeline(sprite.ModeSingle, format)
}

// BuildArrayTexturePipeline builds, or returns the cached, texture-array
// pipeline for the surface format.
func (m *PipelineManager) BuildArrayTexturePipeline(format gputypes.TextureFormat) (*Pipeline, error) {
	return m.Pipeline(sprite.ModeArray, format)
}

// Pipeline returns the pipeline for (mode, format), building it on first
// use. Errors are *sprite.PipelineBuildError.
func (m *PipelineManager) Pipeline(mode sprite.TextureMode, format gputypes.TextureFormat) (*Pipeline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pipelineKey{mode: mode, format: format}
	if p, ok := m.pipelines[key]; ok {
		return p, nil
	}
	p, err := m.build(mode, format)
	if err != nil {
		return nil, err
	}
	m.pipelines[key] = p
	m.builds++
	sprite.Logger().Info("render: pipeline built", "mode", mode, "format", FormatName(format))
	return p, nil
}

func (m *PipelineManager) build(mode sprite.TextureMode, format gputypes.TextureFormat) (*Pipeline, error) {
	fail := func(stage string, err error) error {
		return &sprite.PipelineBuildError{Mode: mode, Format: FormatName(format), Stage: stage, Err: err}
	}
	if !SupportedSurfaceFormat(format) {
		return nil, fail("format", sprite.ErrUnsupportedFormat)
	}

	label := "sprite_" + modeLabel(mode)
	compiled, err := shader.Compile(label, ShaderSource(mode))
	if err != nil {
		return nil, fail("compile", errors.Join(sprite.ErrShaderCompile, err))
	}

	p := &Pipeline{Mode: mode, Format: format, shader: compiled}
	p.module, err = compiled.CreateModule(m.device)
	if err != nil {
		return nil, fail("shader module", err)
	}

	groups := []hal.BindGroupLayout{m.arrayLayout}
	if mode == sprite.ModeSingle {
		groups = []hal.BindGroupLayout{m.singleLayout, m.pushLayout}
	}
	p.layout, err = m.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_layout",
		BindGroupLayouts: groups,
	})
	if err != nil {
		p.destroy(m.device)
		return nil, fail("layout", err)
	}

	blend := gputypes.BlendStatePremultiplied()
	p.pipeline, err = m.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayouts(mode),
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.destroy(m.device)
		return nil, fail("pipeline", err)
	}
	return p, nil
}

func modeLabel(mode sprite.TextureMode) string {
	if mode == sprite.ModeArray {
		return "array"
	}
	return "single"
}

// SetSurfaceFormat records the current surface format and destroys cached
// pipelines built for any other format. The caller must ensure no frame
// using them is still in flight.
func (m *PipelineManager) SetSurfaceFormat(format gputypes.TextureFormat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.format == format {
		return
	}
	m.format = format
	for k, p := range m.pipelines {
		if k.format != format {
			p.destroy(m.device)
			delete(m.pipelines, k)
		}
	}
	sprite.Logger().Debug("render: surface format changed", "format", FormatName(format), "cached", len(m.pipelines))
}

// SurfaceFormat returns the format last passed to SetSurfaceFormat.
func (m *PipelineManager) SurfaceFormat() gputypes.TextureFormat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

// Watch subscribes the manager to a swapchain's format changes.
func (m *PipelineManager) Watch(ev FormatEvents) {
	ev.OnFormatChange(m.SetSurfaceFormat)
}

// Builds returns how many pipelines have been created, counting rebuilds.
func (m *PipelineManager) Builds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}

// Sampler returns the sampler shared by every texture binding.
func (m *PipelineManager) Sampler() hal.Sampler { return m.sampler }

// TextureLayout returns the group 0 layout of a pipeline variant.
func (m *PipelineManager) TextureLayout(mode sprite.TextureMode) hal.BindGroupLayout {
	if mode == sprite.ModeArray {
		return m.arrayLayout
	}
	return m.singleLayout
}

// PushLayout returns the group 1 layout carrying the per-draw source
// rectangle of the single-texture pipeline.
func (m *PipelineManager) PushLayout() hal.BindGroupLayout { return m.pushLayout }

// BindAtlasTexture returns the group 0 bind group for one atlas texture,
// creating it on first use.
func (m *PipelineManager) BindAtlasTexture(atlas *TextureAtlas, h TextureHandle) (hal.BindGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := atlasKey{atlas: atlas, handle: h}
	if bg, ok := m.atlasGroups[key]; ok {
		return bg, nil
	}
	view, err := atlas.View(h)
	if err != nil {
		return nil, err
	}
	bg, err := m.textureBindGroup(fmt.Sprintf("sprite_atlas_%d_group", h), m.singleLayout, view)
	if err != nil {
		return nil, err
	}
	m.atlasGroups[key] = bg
	if _, ok := m.watched[atlas]; !ok {
		m.watched[atlas] = struct{}{}
		atlas.hooks.add(func() { m.InvalidateAtlas(atlas) })
	}
	return bg, nil
}

// BindTextureArray returns the group 0 bind group for a texture array,
// creating it on first use.
func (m *PipelineManager) BindTextureArray(arr *TextureArray) (hal.BindGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bg, ok := m.arrayGroups[arr]; ok {
		return bg, nil
	}
	view := arr.View()
	if view == nil {
		return nil, ErrTextureDestroyed
	}
	bg, err := m.textureBindGroup("sprite_array_group", m.arrayLayout, view)
	if err != nil {
		return nil, err
	}
	m.arrayGroups[arr] = bg
	if _, ok := m.watched[arr]; !ok {
		m.watched[arr] = struct{}{}
		arr.hooks.add(func() { m.InvalidateArray(arr) })
	}
	return bg, nil
}

// InvalidateAtlas destroys the cached bind groups of every texture in
// atlas. TextureAtlas.Destroy calls it for managers that bound the atlas.
func (m *PipelineManager) InvalidateAtlas(atlas *TextureAtlas) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, bg := range m.atlasGroups {
		if k.atlas == atlas {
			m.device.DestroyBindGroup(bg)
			delete(m.atlasGroups, k)
		}
	}
	delete(m.watched, atlas)
}

// InvalidateArray destroys the cached bind group of arr.
// TextureArray.Destroy calls it for managers that bound the array.
func (m *PipelineManager) InvalidateArray(arr *TextureArray) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bg, ok := m.arrayGroups[arr]; ok {
		m.device.DestroyBindGroup(bg)
		delete(m.arrayGroups, arr)
	}
	delete(m.watched, arr)
}

// cachedGroups returns the number of cached texture bind groups.
func (m *PipelineManager) cachedGroups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.atlasGroups) + len(m.arrayGroups)
}

func (m *PipelineManager) textureBindGroup(label string, layout hal.BindGroupLayout, view hal.TextureView) (hal.BindGroup, error) {
	bg, err := m.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: m.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return bg, nil
}

// Destroy releases pipelines, bind groups, layouts and the sampler in
// reverse creation order.
func (m *PipelineManager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, p := range m.pipelines {
		p.destroy(m.device)
		delete(m.pipelines, k)
	}
	for k, bg := range m.atlasGroups {
		m.device.DestroyBindGroup(bg)
		delete(m.atlasGroups, k)
	}
	for k, bg := range m.arrayGroups {
		m.device.DestroyBindGroup(bg)
		delete(m.arrayGroups, k)
	}
	m.destroyShared()
}

func (m *PipelineManager) destroyShared() {
	if m.pushLayout != nil {
		m.device.DestroyBindGroupLayout(m.pushLayout)
		m.pushLayout = nil
	}
	if m.arrayLayout != nil {
		m.device.DestroyBindGroupLayout(m.arrayLayout)
		m.arrayLayout = nil
	}
	if m.singleLayout != nil {
		m.device.DestroyBindGroupLayout(m.singleLayout)
		m.singleLayout = nil
	}
	if m.sampler != nil {
		m.device.DestroySampler(m.sampler)
		m.sampler = nil
	}
}
