// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render turns fontatlas layouts into pixels.
//
// It provides:
//
//   - Describe, which reports the GPU resources and fixed-function state a
//     host application needs to draw a layout: an R8 atlas texture, a linear
//     clamp-to-edge sampler, a 16-byte position/texcoord vertex layout,
//     32-bit indices and source-alpha blending. Encoders produce the matching
//     buffer contents.
//   - Software, a CPU implementation of fontatlas.Renderer that executes the
//     same pipeline into a PixmapTarget. It is the reference the GPU path is
//     checked against and a convenient way to produce images without a GPU.
//   - UploadAtlas and Presenter, which hand the atlas and software-rendered
//     frames to a host through the gpucontext texture interfaces.
//
// # Usage
//
//	atlas, _ := fontatlas.BuildAtlas(goregular.TTF, 32)
//	target := render.NewPixmapTarget(640, 80)
//	target.Clear(color.White)
//
//	ctx := fontatlas.NewContext(fontatlas.WithRenderer(render.NewSoftware(target)))
//	h, _ := ctx.AddAtlas(atlas)
//	l, _ := ctx.Layout(h, "Hello")
//	_ = ctx.Draw(l, fontatlas.DrawParams{
//		Transform: fontatlas.PixelTransform(8, 24, float32(atlas.EmPixels()), 640, 80),
//		Color:     fontatlas.Black,
//	})
package render
