// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader compiles the renderer's WGSL sources and creates HAL
// shader modules from them.
package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// ErrEmptyBytecode is returned when compilation produced no SPIR-V words.
var ErrEmptyBytecode = errors.New("shader: empty bytecode")

// Compiled is a validated shader: its WGSL source and the SPIR-V words
// naga produced for it.
type Compiled struct {
	Label  string
	Source string
	SPIRV  []uint32
}

// Compile validates WGSL source and translates it to SPIR-V.
func Compile(label, src string) (*Compiled, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", label, err)
	}
	words := Words(spirvBytes)
	if len(words) == 0 {
		return nil, fmt.Errorf("compile %s: %w", label, ErrEmptyBytecode)
	}
	return &Compiled{Label: label, Source: src, SPIRV: words}, nil
}

// Words converts SPIR-V bytes to little-endian 32-bit words. Trailing bytes
// that do not fill a word are dropped.
func Words(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

// Equal reports whether two compilations produced identical bytecode.
func (c *Compiled) Equal(o *Compiled) bool {
	if c == nil || o == nil {
		return c == o
	}
	if len(c.SPIRV) != len(o.SPIRV) {
		return false
	}
	for i := range c.SPIRV {
		if c.SPIRV[i] != o.SPIRV[i] {
			return false
		}
	}
	return true
}

// CreateModule creates a HAL shader module for the compiled source.
// Backends receive the WGSL text and translate it themselves.
func (c *Compiled) CreateModule(device hal.Device) (hal.ShaderModule, error) {
	m, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  c.Label,
		Source: hal.ShaderSource{WGSL: c.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %s: %w", c.Label, err)
	}
	return m, nil
}
