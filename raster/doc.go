// Package raster turns font data into grayscale glyph bitmaps.
//
// A Session is a scoped rasterization resource: it is opened for one atlas
// construction, used from a single goroutine, and closed when construction
// finishes on any path. Nothing is kept in package-level state, so two
// sessions may run concurrently on different goroutines.
//
//	s, err := raster.Open(data, 24)
//	if err != nil {
//	    return err // *FontLoadError
//	}
//	defer s.Close()
//
//	for g := range s.Glyphs() {
//	    use(g)
//	    s.Release(g)
//	}
//
// Codepoints come from the font's cmap table (parsed with
// github.com/go-text/typesetting); bitmaps are rendered with
// golang.org/x/image/font/opentype. A codepoint whose glyph cannot be
// rendered is skipped and reported by Skipped, never returned as an error.
//
// Bitmap memory is obtained from an Allocator injected with WithAllocator.
package raster
