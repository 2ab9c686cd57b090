// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build dx12

package render

import (
	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/dx12" // registers the DirectX 12 backend
)

const compiledBackend = gputypes.BackendDX12

// CompiledBackend returns the name of the native backend built into this
// binary.
func CompiledBackend() string { return "dx12" }
