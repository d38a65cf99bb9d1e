// Package shelf packs glyph bitmaps into a single growing texture using
// shelf (row) packing.
//
// Bitmaps are placed left-to-right on the current shelf. When a bitmap does
// not fit in the remaining width, the cursor wraps to a new shelf below the
// tallest item of the current one. The backing buffer grows one shelf at a
// time and is padded to a power-of-two height when packing finishes.
//
// Every bitmap is preceded by a horizontal margin and followed by a vertical
// margin so that linear texture filtering never bleeds one glyph into its
// neighbours.
//
//	p, err := shelf.New(shelf.TextureWidth(len(glyphs), 24))
//	if err != nil {
//	    return err
//	}
//	for _, g := range glyphs {
//	    rect, err := p.Add(shelf.Bitmap{Width: g.W, Height: g.H, Pix: g.Pix})
//	    ...
//	}
//	res, err := p.Finish()
//
// The strategy is O(n) in the number of bitmaps. It is not optimal, but a font
// rarely carries more than a few thousand glyphs.
package shelf
