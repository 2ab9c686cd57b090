// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

import "math"

// NormalizeUV computes the texture coordinate the vertex stage emits for a
// unit-quad corner vertUV, given the source rectangle in pixel space and
// the true dimensions of the sampled texture.
//
// It mirrors the shaders exactly: the sentinel rectangle expands to
// (0, 0, width, height), both axes are divided by the texture extent and
// the result is interpolated at vertUV.
func NormalizeUV(rect UVRect, width, height uint32, vertUV Vec2) Vec2 {
	r := rect.Resolve(width, height)
	w, h := float32(width), float32(height)
	xs := V2(r.U0/w, r.U1/w)
	ys := V2(r.V0/h, r.V1/h)
	return Vec2{
		X: xs.X + (xs.Y-xs.X)*vertUV.X,
		Y: ys.X + (ys.Y-ys.X)*vertUV.Y,
	}
}

// TexelAt returns the texel a nearest-filter, clamp-to-edge sampler reads
// at uv from a width x height texture.
func TexelAt(uv Vec2, width, height uint32) (x, y int) {
	return clampTexel(uv.X, width), clampTexel(uv.Y, height)
}

func clampTexel(c float32, n uint32) int {
	if n == 0 {
		return 0
	}
	i := int(math.Floor(float64(c) * float64(n)))
	switch {
	case i < 0:
		return 0
	case i >= int(n):
		return int(n) - 1
	}
	return i
}
