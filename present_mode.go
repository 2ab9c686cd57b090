// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

// PresentMode is a swapchain presentation (vsync) mode.
type PresentMode int

const (
	// PresentMailbox replaces the queued image; no tearing, low latency.
	PresentMailbox PresentMode = iota
	// PresentFifo waits for vertical blank. Always supported.
	PresentFifo
	// PresentFifoRelaxed waits for vertical blank unless the frame is late.
	PresentFifoRelaxed
	// PresentImmediate presents without waiting; may tear.
	PresentImmediate
)

// DefaultPresentModes is the preference order used when none is configured.
var DefaultPresentModes = []PresentMode{PresentMailbox, PresentFifo, PresentFifoRelaxed, PresentImmediate}

// String returns the configuration name of the mode.
func (m PresentMode) String() string {
	switch m {
	case PresentMailbox:
		return "mailbox"
	case PresentFifo:
		return "fifo"
	case PresentFifoRelaxed:
		return "fifoRelaxed"
	case PresentImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// ParsePresentMode parses a configuration name.
func ParsePresentMode(s string) (PresentMode, bool) {
	for _, m := range DefaultPresentModes {
		if m.String() == s {
			return m, true
		}
	}
	return PresentFifo, false
}

// FramesInFlight returns the number of swapchain images and in-flight
// frames used with the mode: three for mailbox, two otherwise.
func (m PresentMode) FramesInFlight() int {
	if m == PresentMailbox {
		return 3
	}
	return 2
}

// ChoosePresentMode returns the first preferred mode present in supported.
// It falls back to PresentFifo, which every surface supports.
func ChoosePresentMode(preferred, supported []PresentMode) PresentMode {
	for _, p := range preferred {
		for _, s := range supported {
			if p == s {
				return p
			}
		}
	}
	return PresentFifo
}
