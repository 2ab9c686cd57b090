// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package asset

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/sprite"
)

// Pixels is a decoded image in tightly packed rows.
type Pixels struct {
	Data   []byte
	Width  uint32
	Height uint32
	Format sprite.PixelFormat

	// Source is the file the pixels came from, if any.
	Source string
}

// Decode reads an image and converts it to sRGB-encoded RGBA8 with
// straight alpha.
func Decode(r io.Reader) (*Pixels, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("asset: decode: %w", err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, &sprite.AssetError{Op: "decode " + name, Format: sprite.FormatRGBA8Srgb, Err: sprite.ErrAssetDimensions}
	}
	return fromImage(img), nil
}

// DecodeFile decodes the image at path.
func DecodeFile(path string) (*Pixels, error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied asset path
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Source = path
	return p, nil
}

func fromImage(img image.Image) *Pixels {
	b := img.Bounds()
	dst, ok := img.(*image.NRGBA)
	if !ok || dst.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		dst = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return &Pixels{
		Data:   dst.Pix,
		Width:  uint32(b.Dx()), //nolint:gosec // image bounds are non-negative
		Height: uint32(b.Dy()), //nolint:gosec // image bounds are non-negative
		Format: sprite.FormatRGBA8Srgb,
	}
}

// Image returns the pixels as an *image.NRGBA sharing Data.
func (p *Pixels) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.Data,
		Stride: int(p.Width) * 4,
		Rect:   image.Rect(0, 0, int(p.Width), int(p.Height)),
	}
}

// Resize returns a copy scaled to width x height. Texture array slots
// share one extent, so mismatched assets are scaled to fit.
func (p *Pixels) Resize(width, height uint32, smooth bool) *Pixels {
	if width == p.Width && height == p.Height {
		return p
	}
	dst := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	var s draw.Scaler = draw.NearestNeighbor
	if smooth {
		s = draw.CatmullRom
	}
	s.Scale(dst, dst.Bounds(), p.Image(), p.Image().Bounds(), draw.Src, nil)
	return &Pixels{Data: dst.Pix, Width: width, Height: height, Format: p.Format, Source: p.Source}
}

// Check validates the pixel buffer against its extent and format.
func (p *Pixels) Check() error {
	return sprite.CheckPixels("asset", p.Data, p.Width, p.Height, p.Format)
}
