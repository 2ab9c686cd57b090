// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !dx12 && !metal

package render

import (
	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan backend
)

const compiledBackend = gputypes.BackendVulkan

// CompiledBackend returns the name of the native backend built into this
// binary.
func CompiledBackend() string { return "vulkan" }
