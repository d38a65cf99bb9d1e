// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"
)

// Target is where the software renderer writes.
//
// Pixels are four bytes per pixel in the order Format names, with
// straight (non-premultiplied) alpha, which is what source-alpha blending
// into a framebuffer produces.
type Target interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel format of the target.
	Format() gputypes.TextureFormat

	// Pixels returns direct access to pixel data.
	Pixels() []byte

	// Stride returns the number of bytes per row.
	Stride() int
}

// PixmapTarget is a CPU-backed render target using *image.NRGBA.
//
// Example:
//
//	target := render.NewPixmapTarget(800, 600)
//	target.Clear(color.White)
//	sw := render.NewSoftware(target)
//	img := target.Image()
type PixmapTarget struct {
	img *image.NRGBA
}

// NewPixmapTarget creates a new CPU-backed render target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{
		img: image.NewNRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewPixmapTargetFromImage wraps an existing *image.NRGBA as a render target.
// The image is used directly without copying.
func NewPixmapTargetFromImage(img *image.NRGBA) *PixmapTarget {
	return &PixmapTarget{img: img}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int {
	return t.img.Bounds().Dy()
}

// Format returns the pixel format (RGBA8).
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Pixels returns direct access to the pixel data.
func (t *PixmapTarget) Pixels() []byte {
	return t.img.Pix
}

// Stride returns the number of bytes per row.
func (t *PixmapTarget) Stride() int {
	return t.img.Stride
}

// Image returns the underlying *image.NRGBA.
// The returned image shares memory with the target.
func (t *PixmapTarget) Image() *image.NRGBA {
	return t.img
}

// Clear fills the entire target with the given color.
func (t *PixmapTarget) Clear(c color.Color) {
	draw.Draw(t.img, t.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// NRGBAAt returns the color at the given coordinates.
func (t *PixmapTarget) NRGBAAt(x, y int) color.NRGBA {
	return t.img.NRGBAAt(t.img.Rect.Min.X+x, t.img.Rect.Min.Y+y)
}
