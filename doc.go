// Package fontatlas builds glyph texture atlases from font data and lays text
// out against them as textured quad meshes.
//
// # Overview
//
// An atlas is built once per font and pixel size. Every glyph the font maps
// is rasterized, packed into a single power-of-two grayscale texture, and
// described by a CharacterInfo whose metrics are in em units, so one atlas
// serves any render scale through a uniform transform.
//
// A Layout is built once per string. It holds one quad per visible glyph,
// a triangle index list, and the pen position after every byte of the
// string for caret placement and hit testing.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/fontatlas"
//		"golang.org/x/image/font/gofont/goregular"
//	)
//
//	atlas, err := fontatlas.BuildAtlas(goregular.TTF, 32)
//	if err != nil {
//		return err
//	}
//	l := fontatlas.NewLayout(atlas, "Hello, world")
//	upload(atlas.R8(), atlas.Width(), atlas.Height())
//	draw(l.Vertices(), l.Indices())
//
// # Ownership
//
// Context owns atlases and hands out AtlasHandle values. Layouts created
// through Context.Layout carry the handle, and Context.Draw resolves it
// before forwarding to the configured Renderer. LoadAtlases builds several
// atlases in parallel, and WithLayoutCache reuses layouts for repeated text.
//
// # Architecture
//
// The library is organized into:
//   - raster: scoped glyph rasterization sessions over an injected allocator
//   - shelf: shelf packing of glyph bitmaps into a texture
//   - fontatlas: atlas normalization, layout, handles and the draw contract
//   - render: a GPU pipeline description and a software Renderer
//
// # Logging
//
// The package is silent by default. Use SetLogger to route build and raster
// diagnostics to a slog.Logger.
package fontatlas
