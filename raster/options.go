package raster

import (
	"log/slog"

	"golang.org/x/image/font"
)

// Option configures a Session.
type Option func(*sessionConfig)

// sessionConfig holds configuration for Session.
type sessionConfig struct {
	alloc   Allocator
	hinting font.Hinting
	logger  *slog.Logger
}

// defaultSessionConfig returns the default session configuration.
func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		alloc:   HeapAllocator{},
		hinting: font.HintingFull,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithAllocator sets the allocator glyph bitmaps are rendered into.
// A nil allocator selects HeapAllocator.
func WithAllocator(a Allocator) Option {
	return func(c *sessionConfig) {
		if a == nil {
			a = HeapAllocator{}
		}
		c.alloc = a
	}
}

// WithHinting sets the outline hinting mode. The default is font.HintingFull,
// which snaps advances and bitmap edges to whole pixels.
func WithHinting(h font.Hinting) Option {
	return func(c *sessionConfig) {
		c.hinting = h
	}
}

// WithLogger sets the logger used for skipped glyphs and session lifecycle.
// A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *sessionConfig) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		c.logger = l
	}
}
