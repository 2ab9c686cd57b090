// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

import (
	"errors"
	"testing"
)

func spritesWithSlots(slots ...uint32) []Sprite {
	out := make([]Sprite, len(slots))
	for i, s := range slots {
		out[i] = NewSprite(Quad{X: float32(i) * 0.1, Y: 0, W: 0.1, H: 0.1}, s)
	}
	return out
}

func TestGroupArrayMode(t *testing.T) {
	tests := []struct {
		name  string
		slots []uint32
		want  []Run
	}{
		{"empty", nil, nil},
		{"same slot", []uint32{3, 3}, []Run{{Mode: ModeArray, TexIndex: 3, First: 0, Count: 2}}},
		{"interleaved", []uint32{3, 5, 3}, []Run{
			{Mode: ModeArray, TexIndex: 3, First: 0, Count: 1},
			{Mode: ModeArray, TexIndex: 5, First: 1, Count: 1},
			{Mode: ModeArray, TexIndex: 3, First: 2, Count: 1},
		}},
		{"runs", []uint32{0, 0, 0, 7, 7, 1}, []Run{
			{Mode: ModeArray, TexIndex: 0, First: 0, Count: 3},
			{Mode: ModeArray, TexIndex: 7, First: 3, Count: 2},
			{Mode: ModeArray, TexIndex: 1, First: 5, Count: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Group(spritesWithSlots(tt.slots...), ModeArray)
			if len(got) != len(tt.want) {
				t.Fatalf("Group() = %d runs %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("run %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Array-mode runs ignore UVRect: it is per-instance data.
func TestGroupArrayModeIgnoresUV(t *testing.T) {
	s := spritesWithSlots(2, 2)
	s[1] = s[1].WithUV(UVRect{U0: 1, V0: 1, U1: 2, V1: 2})
	if runs := Group(s, ModeArray); len(runs) != 1 {
		t.Errorf("got %d runs, want 1", len(runs))
	}
}

func TestGroupSingleModeSplitsOnUV(t *testing.T) {
	a := UVRect{U0: 0, V0: 0, U1: 8, V1: 8}
	b := UVRect{U0: 8, V0: 0, U1: 16, V1: 8}
	s := spritesWithSlots(0, 0, 0, 0)
	s[0], s[1], s[2], s[3] = s[0].WithUV(a), s[1].WithUV(a), s[2].WithUV(b), s[3].WithUV(a)

	runs := Group(s, ModeSingle)
	want := []Run{
		{Mode: ModeSingle, UVRect: a, First: 0, Count: 2},
		{Mode: ModeSingle, UVRect: b, First: 2, Count: 1},
		{Mode: ModeSingle, UVRect: a, First: 3, Count: 1},
	}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d", len(runs), len(want))
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}
}

func TestGroupPreservesOrder(t *testing.T) {
	slots := []uint32{1, 1, 4, 9, 9, 9, 1, 0, 0, 63}
	s := spritesWithSlots(slots...)
	var flat []Sprite
	for _, r := range Group(s, ModeArray) {
		flat = append(flat, s[r.First:r.First+r.Count]...)
	}
	if len(flat) != len(s) {
		t.Fatalf("flattened %d sprites, want %d", len(flat), len(s))
	}
	for i := range s {
		if flat[i] != s[i] {
			t.Errorf("sprite %d reordered", i)
		}
	}
}

func TestBatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    TextureMode
		slots   []uint32
		wantErr error
		wantIdx int
	}{
		{"array ok", ModeArray, []uint32{0, 63, 12}, nil, 0},
		{"array out of range", ModeArray, []uint32{0, 1, 64}, ErrTexIndexOutOfRange, 2},
		{"array far out of range", ModeArray, []uint32{1000}, ErrTexIndexOutOfRange, 0},
		{"single ok", ModeSingle, []uint32{0, 0}, nil, 0},
		{"single non-zero", ModeSingle, []uint32{0, 3}, ErrTexIndexSingleMode, 1},
		{"single out of range", ModeSingle, []uint32{64}, ErrTexIndexOutOfRange, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBatch(tt.mode)
			b.PushAll(spritesWithSlots(tt.slots...)...)
			err := b.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error %T is not *ValidationError", err)
			}
			if ve.Index != tt.wantIdx {
				t.Errorf("ValidationError.Index = %d, want %d", ve.Index, tt.wantIdx)
			}
		})
	}
}

func TestBatchClearKeepsCapacity(t *testing.T) {
	b := NewBatch(ModeArray)
	for range 100 {
		b.Push(NewSprite(Quad{W: 1, H: 1}, 0))
	}
	c := cap(b.Sprites())
	b.Clear()
	if b.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", b.Len())
	}
	if cap(b.Sprites()) != c {
		t.Errorf("cap after Clear = %d, want %d", cap(b.Sprites()), c)
	}
	if b.Mode() != ModeArray {
		t.Errorf("Mode() = %v", b.Mode())
	}
}

func TestBatchTexture(t *testing.T) {
	b := NewBatch(ModeSingle)
	b.SetTexture(4)
	if b.Texture() != 4 {
		t.Errorf("Texture() = %d, want 4", b.Texture())
	}
}

func BenchmarkGroup(b *testing.B) {
	slots := make([]uint32, 4096)
	for i := range slots {
		slots[i] = uint32(i/16) % MaxTextureSlots //nolint:gosec // bounded
	}
	s := spritesWithSlots(slots...)
	b.ReportAllocs()
	for b.Loop() {
		_ = Group(s, ModeArray)
	}
}
