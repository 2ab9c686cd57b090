// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package asset

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/sprite"
)

// ErrSheetFull is returned when an image does not fit on the sheet.
var ErrSheetFull = errors.New("asset: sprite sheet is full")

// Region is a placed rectangle on a sheet, in pixels.
type Region struct {
	X, Y, Width, Height int
}

// UVRect returns the region as a pixel-space source rectangle.
func (r Region) UVRect() sprite.UVRect {
	return sprite.UVRect{
		U0: float32(r.X),
		V0: float32(r.Y),
		U1: float32(r.X + r.Width),
		V1: float32(r.Y + r.Height),
	}
}

// String returns a string representation of the region.
func (r Region) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// shelf is one horizontal strip of the sheet.
type shelf struct {
	y      int
	height int // tallest item so far, padding included
	nextX  int
}

// Packer places rectangles on a fixed-size sheet by shelf packing: an
// item goes on the first shelf with room, otherwise on a new shelf below
// the last one. A shelf only grows taller while it is empty.
//
// Packer is not safe for concurrent use.
type Packer struct {
	width, height int
	padding       int
	shelves       []shelf
	usedArea      int
	count         int
}

// NewPacker creates a packer for a width x height sheet with padding
// pixels between items.
func NewPacker(width, height, padding int) *Packer {
	return &Packer{width: width, height: height, padding: max(padding, 0)}
}

// Allocate reserves a width x height region.
func (p *Packer) Allocate(width, height int) (Region, error) {
	if width <= 0 || height <= 0 {
		return Region{}, fmt.Errorf("%w: %dx%d", sprite.ErrAssetDimensions, width, height)
	}
	pw, ph := width+p.padding, height+p.padding
	if pw > p.width || ph > p.height {
		return Region{}, fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrSheetFull, width, height, p.width, p.height)
	}

	for i := range p.shelves {
		s := &p.shelves[i]
		if s.nextX+pw > p.width || (ph > s.height && s.nextX > 0) {
			continue
		}
		r := Region{X: s.nextX, Y: s.y, Width: width, Height: height}
		s.nextX += pw
		s.height = max(s.height, ph)
		p.used(r)
		return r, nil
	}

	y := 0
	if n := len(p.shelves); n > 0 {
		y = p.shelves[n-1].y + p.shelves[n-1].height
	}
	if y+ph > p.height {
		return Region{}, fmt.Errorf("%w: no shelf for %dx%d", ErrSheetFull, width, height)
	}
	p.shelves = append(p.shelves, shelf{y: y, height: ph, nextX: pw})
	r := Region{X: 0, Y: y, Width: width, Height: height}
	p.used(r)
	return r, nil
}

func (p *Packer) used(r Region) {
	p.count++
	p.usedArea += r.Width * r.Height
}

// Reset clears all allocations.
func (p *Packer) Reset() {
	p.shelves = p.shelves[:0]
	p.usedArea = 0
	p.count = 0
}

// Utilization returns the fraction of the sheet covered by items.
func (p *Packer) Utilization() float64 {
	total := p.width * p.height
	if total == 0 {
		return 0
	}
	return float64(p.usedArea) / float64(total)
}

// Count returns the number of allocated regions.
func (p *Packer) Count() int { return p.count }

// Sheet is a packed sprite sheet.
type Sheet struct {
	Pixels  *Pixels
	Regions []Region

	utilization float64
}

// Utilization returns the fraction of the sheet covered by images.
func (s *Sheet) Utilization() float64 { return s.utilization }

// Rect returns the source rectangle of the i-th packed image.
func (s *Sheet) Rect(i int) sprite.UVRect {
	return s.Regions[i].UVRect()
}

// Pack copies images onto one width x height sheet. Regions keep the
// order of images.
func Pack(images []*Pixels, width, height, padding int) (*Sheet, error) {
	p := NewPacker(width, height, padding)
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	regions := make([]Region, len(images))
	for i, src := range images {
		if err := src.Check(); err != nil {
			return nil, fmt.Errorf("pack image %d: %w", i, err)
		}
		if src.Format.BytesPerPixel() != 4 {
			return nil, fmt.Errorf("pack image %d: %w: %s", i, sprite.ErrAssetFormat, src.Format)
		}
		r, err := p.Allocate(int(src.Width), int(src.Height))
		if err != nil {
			return nil, fmt.Errorf("pack image %d: %w", i, err)
		}
		draw.Draw(dst, image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height), src.Image(), image.Point{}, draw.Src)
		regions[i] = r
	}
	sprite.Logger().Debug("asset: sheet packed", "images", len(images), "utilization", p.Utilization())
	return &Sheet{
		Pixels: &Pixels{
			Data:   dst.Pix,
			Width:  uint32(width),  //nolint:gosec // checked by NewNRGBA
			Height: uint32(height), //nolint:gosec // checked by NewNRGBA
			Format: sprite.FormatRGBA8Srgb,
			Source: "sprite sheet",
		},
		Regions:     regions,
		utilization: p.Utilization(),
	}, nil
}
