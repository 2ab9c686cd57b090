// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

// Batch is the ordered list of sprites submitted for one frame.
//
// Sprites are drawn in submission order (painter's algorithm): later
// sprites are composited over earlier ones. Nothing is sorted, culled or
// deduplicated. A Batch is not safe for concurrent use.
type Batch struct {
	mode    TextureMode
	texture uint32
	sprites []Sprite
}

// NewBatch creates an empty batch drawn with the given pipeline variant.
func NewBatch(mode TextureMode) *Batch {
	return &Batch{mode: mode}
}

// Mode returns the pipeline variant of the batch.
func (b *Batch) Mode() TextureMode { return b.mode }

// SetTexture selects the atlas texture handle bound for a single-texture
// batch. It is ignored in array mode.
func (b *Batch) SetTexture(h uint32) { b.texture = h }

// Texture returns the atlas texture handle set by SetTexture.
func (b *Batch) Texture() uint32 { return b.texture }

// Push appends a sprite.
func (b *Batch) Push(s Sprite) {
	b.sprites = append(b.sprites, s)
}

// PushAll appends sprites in order.
func (b *Batch) PushAll(s ...Sprite) {
	b.sprites = append(b.sprites, s...)
}

// Clear empties the batch for the next frame, keeping its capacity.
func (b *Batch) Clear() {
	b.sprites = b.sprites[:0]
}

// Len returns the number of sprites.
func (b *Batch) Len() int { return len(b.sprites) }

// Sprites returns the sprites in submission order. The slice aliases the
// batch and is valid until the next Push or Clear.
func (b *Batch) Sprites() []Sprite { return b.sprites }

// Validate checks every sprite against the pipeline variant. It returns a
// *ValidationError naming the first offending sprite.
func (b *Batch) Validate() error {
	for i := range b.sprites {
		ti := b.sprites[i].TexIndex
		switch {
		case ti >= MaxTextureSlots:
			return &ValidationError{Index: i, TexIndex: ti, Err: ErrTexIndexOutOfRange}
		case b.mode == ModeSingle && ti != 0:
			return &ValidationError{Index: i, TexIndex: ti, Err: ErrTexIndexSingleMode}
		}
	}
	return nil
}

// Run is a maximal sequence of adjacent sprites that share one draw call.
// First and Count index the instance range, so a run is drawn with
// DrawIndexed(6, Count, 0, 0, First).
type Run struct {
	Mode     TextureMode
	TexIndex uint32
	UVRect   UVRect
	First    uint32
	Count    uint32
}

// Group partitions sprites into runs by adjacency, preserving order.
//
// In array mode adjacent sprites with the same TexIndex share a run; the
// source rectangle travels per instance. In single mode the source
// rectangle is a per-draw constant, so adjacent sprites share a run only
// when their UVRect is equal.
//
// Concatenating the runs' ranges reproduces the input exactly.
func Group(sprites []Sprite, mode TextureMode) []Run {
	if len(sprites) == 0 {
		return nil
	}

	runs := make([]Run, 0, 8)
	cur := newRun(sprites[0], mode, 0)
	for i := 1; i < len(sprites); i++ {
		if sameRun(cur, sprites[i], mode) {
			cur.Count++
			continue
		}
		runs = append(runs, cur)
		cur = newRun(sprites[i], mode, uint32(i)) //nolint:gosec // batch length fits the instance index range
	}
	return append(runs, cur)
}

func newRun(s Sprite, mode TextureMode, first uint32) Run {
	r := Run{Mode: mode, First: first, Count: 1}
	if mode == ModeArray {
		r.TexIndex = s.TexIndex
	} else {
		r.UVRect = s.UVRect
	}
	return r
}

func sameRun(r Run, s Sprite, mode TextureMode) bool {
	if mode == ModeArray {
		return r.TexIndex == s.TexIndex
	}
	return r.UVRect == s.UVRect
}
