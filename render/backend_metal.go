// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build metal && !dx12

package render

import (
	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/metal" // registers the Metal backend
)

const compiledBackend = gputypes.BackendMetal

// CompiledBackend returns the name of the native backend built into this
// binary.
func CompiledBackend() string { return "metal" }
