package fontatlas

import (
	"golang.org/x/image/font"

	"github.com/gogpu/fontatlas/raster"
	"github.com/gogpu/fontatlas/shelf"
)

// Option configures atlas construction.
type Option func(*buildConfig)

// buildConfig holds configuration for BuildAtlas.
type buildConfig struct {
	margin  int
	alloc   raster.Allocator
	hinting font.Hinting
}

// defaultBuildConfig returns the default build configuration.
func defaultBuildConfig() buildConfig {
	return buildConfig{
		margin:  shelf.DefaultMargin,
		alloc:   raster.HeapAllocator{},
		hinting: font.HintingFull,
	}
}

func applyBuildOptions(opts []Option) buildConfig {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMargin sets the blank border, in pixels, kept left of and below every
// glyph in the atlas. The default is 2.
func WithMargin(n int) Option {
	return func(c *buildConfig) {
		c.margin = n
	}
}

// WithAllocator sets the allocator glyph bitmaps are rasterized into.
// Bitmaps are released back to it as soon as they are copied into the atlas.
func WithAllocator(a raster.Allocator) Option {
	return func(c *buildConfig) {
		c.alloc = a
	}
}

// WithHinting sets the outline hinting mode. The default is font.HintingFull.
func WithHinting(h font.Hinting) Option {
	return func(c *buildConfig) {
		c.hinting = h
	}
}

// ContextOption configures a Context during creation.
//
// Example:
//
//	target := render.NewPixmapTarget(640, 480)
//	ctx := fontatlas.NewContext(fontatlas.WithRenderer(render.NewSoftware(target)))
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	renderer    Renderer
	layoutCache int
}

// defaultContextOptions returns the default context options.
func defaultContextOptions() contextOptions {
	return contextOptions{}
}

// WithRenderer sets the renderer Context.Draw forwards to.
func WithRenderer(r Renderer) ContextOption {
	return func(o *contextOptions) {
		o.renderer = r
	}
}

// WithLayoutCache keeps the n most recently used layouts built by
// Context.Layout and returns them again for repeated text. Cached layouts are
// shared, so callers must not modify the slices they expose. n <= 0 disables
// the cache, which is the default.
func WithLayoutCache(n int) ContextOption {
	return func(o *contextOptions) {
		o.layoutCache = n
	}
}
