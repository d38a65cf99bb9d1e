package fontatlas

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/sync/errgroup"
)

// AtlasHandle names an atlas owned by a Context. The zero value names
// nothing.
type AtlasHandle uint32

// Valid reports whether h could name an atlas.
func (h AtlasHandle) Valid() bool {
	return h != 0
}

// atlasKey identifies the inputs that determine an atlas's contents.
type atlasKey struct {
	digest    [sha256.Size]byte
	pixelSize int
	margin    int
	hinting   font.Hinting
}

type layoutKey struct {
	atlas AtlasHandle
	text  string
}

// Context owns atlases and hands out handles to them. Layouts built through
// a Context record the handle instead of pointing at the atlas, so a layout
// can outlive or be moved independently of the atlas it was built with.
//
// Context is safe for concurrent use.
// Context implements io.Closer.
type Context struct {
	mu       sync.RWMutex
	atlases  []*FontAtlas
	byKey    map[atlasKey]AtlasHandle
	renderer Renderer
	layouts  *lru.Cache[layoutKey, *Layout] // nil when caching is off
	closed   bool
}

// Ensure Context implements io.Closer
var _ io.Closer = (*Context)(nil)

// NewContext creates an empty context.
//
//	ctx := fontatlas.NewContext(fontatlas.WithRenderer(r))
//	h, err := ctx.LoadAtlas(goregular.TTF, 32)
//	l, err := ctx.Layout(h, "hello")
//	err = ctx.Draw(l, fontatlas.DrawParams{Transform: m, Color: fontatlas.Black})
func NewContext(opts ...ContextOption) *Context {
	options := defaultContextOptions()
	for _, opt := range opts {
		opt(&options)
	}
	c := &Context{
		byKey:    make(map[atlasKey]AtlasHandle),
		renderer: options.renderer,
	}
	if options.layoutCache > 0 {
		// lru.New only fails for non-positive sizes.
		c.layouts, _ = lru.New[layoutKey, *Layout](options.layoutCache)
	}
	return c
}

// LoadAtlas builds an atlas for data at pixelSize and returns its handle.
// Loading the same bytes with the same size and options again returns the
// existing handle without rebuilding.
//
// The build runs without holding the context lock, so concurrent loads of
// different fonts proceed in parallel.
func (c *Context) LoadAtlas(data []byte, pixelSize int, opts ...Option) (AtlasHandle, error) {
	cfg := applyBuildOptions(opts)
	key := atlasKey{
		digest:    sha256.Sum256(data),
		pixelSize: pixelSize,
		margin:    cfg.margin,
		hinting:   cfg.hinting,
	}

	c.mu.RLock()
	h, ok := c.byKey[key]
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return 0, ErrContextClosed
	}
	if ok {
		return h, nil
	}

	a, err := BuildAtlas(data, pixelSize, opts...)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrContextClosed
	}
	if h, ok := c.byKey[key]; ok {
		return h, nil
	}
	h = c.add(a)
	c.byKey[key] = h
	return h, nil
}

// AtlasRequest is one atlas to build with LoadAtlases.
type AtlasRequest struct {
	Data      []byte
	PixelSize int
	Options   []Option
}

// LoadAtlases builds the requested atlases concurrently, at most GOMAXPROCS
// at a time, and returns their handles in request order. The first failure
// cancels requests that have not started.
func (c *Context) LoadAtlases(ctx context.Context, reqs ...AtlasRequest) ([]AtlasHandle, error) {
	handles := make([]AtlasHandle, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := c.LoadAtlas(req.Data, req.PixelSize, req.Options...)
			if err != nil {
				return fmt.Errorf("fontatlas: atlas request %d: %w", i, err)
			}
			handles[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return handles, nil
}

// AddAtlas takes ownership of an atlas built elsewhere and returns its handle.
func (c *Context) AddAtlas(a *FontAtlas) (AtlasHandle, error) {
	if a == nil {
		return 0, ErrNilAtlas
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrContextClosed
	}
	return c.add(a), nil
}

// add appends a and returns its handle. c.mu must be held for writing.
func (c *Context) add(a *FontAtlas) AtlasHandle {
	c.atlases = append(c.atlases, a)
	return AtlasHandle(len(c.atlases))
}

// Atlas resolves a handle.
func (c *Context) Atlas(h AtlasHandle) (*FontAtlas, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup(h)
}

// lookup resolves h. c.mu must be held.
func (c *Context) lookup(h AtlasHandle) (*FontAtlas, error) {
	if c.closed {
		return nil, ErrContextClosed
	}
	if h == 0 || int(h) > len(c.atlases) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	return c.atlases[h-1], nil
}

// Len returns the number of atlases the context owns.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.atlases)
}

// Layout lays text out against the atlas named by h. The returned layout
// records h for Draw. With WithLayoutCache, repeated requests for the same
// handle and text return the same *Layout.
func (c *Context) Layout(h AtlasHandle, text string) (*Layout, error) {
	a, err := c.Atlas(h)
	if err != nil {
		return nil, err
	}
	if c.layouts == nil {
		return newLayout(a, text, h), nil
	}
	key := layoutKey{atlas: h, text: text}
	if l, ok := c.layouts.Get(key); ok {
		return l, nil
	}
	l := newLayout(a, text, h)
	c.layouts.Add(key, l)
	return l, nil
}

// Draw renders l with the configured renderer. Empty layouts draw nothing.
func (c *Context) Draw(l *Layout, p DrawParams) error {
	if l == nil {
		return ErrNilLayout
	}

	c.mu.RLock()
	r := c.renderer
	a, err := c.lookup(l.atlas)
	c.mu.RUnlock()

	if r == nil {
		return ErrNoRenderer
	}
	if err != nil {
		return err
	}
	if l.IsEmpty() {
		return nil
	}
	if err := r.Draw(a, l, p); err != nil {
		return fmt.Errorf("fontatlas: draw: %w", err)
	}
	return nil
}

// Close drops every atlas. Handles issued by the context become invalid.
// Close is idempotent.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	n := len(c.atlases)
	c.atlases = nil
	c.byKey = nil
	if c.layouts != nil {
		c.layouts.Purge()
	}
	Logger().Debug("fontatlas: context closed", slog.Int("atlases", n))
	return nil
}
