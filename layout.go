package fontatlas

import (
	"math"
	"unicode/utf8"
)

// Vertex is one corner of a glyph quad.
type Vertex struct {
	// Position is in em units, x along the baseline and y up.
	Position [2]float32

	// TexCoord is in texture units with v growing downwards.
	TexCoord [2]float32
}

// Layout is the renderable form of one line of text: an indexed quad mesh
// plus the pen position after every byte of the string.
//
// A Layout owns its buffers and is not tied to the atlas it was built from,
// other than through the handle recorded by Context.Layout.
type Layout struct {
	atlas    AtlasHandle
	vertices []Vertex
	indices  []uint32
	advances []float32
}

// NewLayout lays text out on a single line starting at the origin.
//
// Codepoints the atlas lacks produce no quad and do not move the pen.
// Invalid UTF-8 is decoded one byte at a time as utf8.RuneError.
func NewLayout(a *FontAtlas, text string) *Layout {
	return newLayout(a, text, 0)
}

func newLayout(a *FontAtlas, text string, h AtlasHandle) *Layout {
	l := &Layout{
		atlas:    h,
		advances: make([]float32, 1, len(text)+1),
	}

	var cursor float32
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size

		info, ok := a.Lookup(r)
		if ok {
			cursor += info.LeftPadding
			l.appendQuad(cursor, info)
			cursor += info.GlyphSize[0] + info.RightPadding
		}
		for range size {
			l.advances = append(l.advances, cursor)
		}
	}
	return l
}

// appendQuad emits the four corners of info's glyph with its left edge at x,
// ordered top-left, top-right, bottom-left, bottom-right.
func (l *Layout) appendQuad(x float32, info CharacterInfo) {
	left, right := x, x+info.GlyphSize[0]
	top, bottom := info.BaselineOffset, info.BaselineOffset-info.GlyphSize[1]

	u0, v0 := info.TexOrigin[0], info.TexOrigin[1]
	u1, v1 := u0+info.TexSize[0], v0+info.TexSize[1]

	base := uint32(len(l.vertices))
	l.vertices = append(l.vertices,
		Vertex{Position: [2]float32{left, top}, TexCoord: [2]float32{u0, v0}},
		Vertex{Position: [2]float32{right, top}, TexCoord: [2]float32{u1, v0}},
		Vertex{Position: [2]float32{left, bottom}, TexCoord: [2]float32{u0, v1}},
		Vertex{Position: [2]float32{right, bottom}, TexCoord: [2]float32{u1, v1}},
	)
	l.indices = append(l.indices, base, base+1, base+2, base+2, base+1, base+3)
}

// Atlas returns the handle of the atlas the layout was built against through
// a Context. Layouts from NewLayout carry the zero handle.
func (l *Layout) Atlas() AtlasHandle {
	return l.atlas
}

// Vertices returns the quad corners, four per glyph.
func (l *Layout) Vertices() []Vertex {
	return l.vertices
}

// Indices returns the triangle list, six indices per glyph.
func (l *Layout) Indices() []uint32 {
	return l.indices
}

// Advances returns the pen position before the first byte followed by the
// pen position after each byte of the text, in em units.
func (l *Layout) Advances() []float32 {
	return l.advances
}

// QuadCount returns the number of glyph quads.
func (l *Layout) QuadCount() int {
	return len(l.vertices) / 4
}

// IsEmpty reports whether the layout has nothing to draw.
func (l *Layout) IsEmpty() bool {
	return len(l.vertices) == 0
}

// TotalWidth returns the pen position after the last byte.
func (l *Layout) TotalWidth() float32 {
	return l.advances[len(l.advances)-1]
}

// CaretX returns the pen position at byteOffset. Offsets outside the text
// are clamped to its ends.
func (l *Layout) CaretX(byteOffset int) float32 {
	byteOffset = max(0, min(byteOffset, len(l.advances)-1))
	return l.advances[byteOffset]
}

// NearestOffset returns the byte offset whose pen position is closest to x.
// Ties resolve to the lower offset.
func (l *Layout) NearestOffset(x float32) int {
	best := 0
	bestDist := float32(math.Inf(1))
	for i, adv := range l.advances {
		d := adv - x
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
