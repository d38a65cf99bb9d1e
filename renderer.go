package fontatlas

// DrawParams is what a caller supplies on every draw.
type DrawParams struct {
	// Transform maps layout positions (em units) to clip space.
	Transform Mat4

	// Color tints the glyphs. Its alpha scales the sampled coverage.
	Color Color
}

// Renderer draws a layout's mesh textured with its atlas.
//
// Implementations blend source-over with source alpha and one minus source
// alpha for both color and alpha, and sample the atlas with linear filtering.
// See the render package for a software implementation and a GPU pipeline
// description.
type Renderer interface {
	Draw(a *FontAtlas, l *Layout, p DrawParams) error
}
