package raster

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// openTestSession opens goregular at the given size and closes it on cleanup.
func openTestSession(t *testing.T, size int, opts ...Option) *Session {
	t.Helper()

	s, err := Open(goregular.TTF, size, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		size   int
		target error
	}{
		{"empty data", nil, 16, ErrEmptyFontData},
		{"garbage", []byte("definitely not a font file"), 16, ErrFontLoad},
		{"truncated", goregular.TTF[:128], 16, ErrFontLoad},
		{"zero size", goregular.TTF, 0, ErrInvalidPixelSize},
		{"negative size", goregular.TTF, -3, ErrInvalidPixelSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.data, tt.size)
			if err == nil {
				_ = s.Close()
				t.Fatal("Open() error = nil, want error")
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("Open() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestOpen_FontLoadErrorType(t *testing.T) {
	_, err := Open([]byte{1, 2, 3, 4}, 12)
	var fle *FontLoadError
	if !errors.As(err, &fle) {
		t.Fatalf("Open() error %T, want *FontLoadError", err)
	}
	if fle.Unwrap() == nil {
		t.Error("FontLoadError.Unwrap() = nil")
	}
}

func TestSession_Runes(t *testing.T) {
	s := openTestSession(t, 16)

	runes := s.Runes()
	if len(runes) < 200 {
		t.Fatalf("len(Runes()) = %d, want a full Latin repertoire", len(runes))
	}
	if !slices.IsSorted(runes) {
		t.Error("Runes() not sorted")
	}
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			t.Fatalf("duplicate rune %U", runes[i])
		}
	}
	for _, r := range []rune{'A', 'M', 'z', '0', ' '} {
		if _, found := slices.BinarySearch(runes, r); !found {
			t.Errorf("Runes() missing %q", r)
		}
	}
}

func TestSession_RasterizeCapitalM(t *testing.T) {
	s := openTestSession(t, 32)

	g, ok := s.Rasterize('M')
	if !ok {
		t.Fatal("Rasterize('M') failed")
	}
	defer s.Release(g)

	if g.Rune != 'M' {
		t.Errorf("Rune = %q, want 'M'", g.Rune)
	}
	if g.Width <= 0 || g.Rows <= 0 {
		t.Fatalf("bitmap size = %dx%d, want non-empty", g.Width, g.Rows)
	}
	if g.Rows > 32 {
		t.Errorf("Rows = %d, exceeds pixel size 32", g.Rows)
	}
	if g.Top <= 0 {
		t.Errorf("Top = %d, want above baseline", g.Top)
	}
	if g.Advance <= 0 {
		t.Errorf("Advance = %v, want positive", g.Advance)
	}
	if len(g.Pix) != g.Width*g.Rows {
		t.Fatalf("len(Pix) = %d, want %d", len(g.Pix), g.Width*g.Rows)
	}
	if bytes.Count(g.Pix, []byte{0}) == len(g.Pix) {
		t.Error("bitmap is entirely blank")
	}
}

func TestSession_RasterizeSpace(t *testing.T) {
	s := openTestSession(t, 16)

	g, ok := s.Rasterize(' ')
	if !ok {
		t.Fatal("Rasterize(' ') failed")
	}
	if g.Advance <= 0 {
		t.Errorf("space Advance = %v, want positive", g.Advance)
	}
	if len(g.Pix) != g.Width*g.Rows {
		t.Errorf("len(Pix) = %d, want %d", len(g.Pix), g.Width*g.Rows)
	}
	if bytes.ContainsFunc(g.Pix, func(r rune) bool { return r != 0 }) {
		t.Error("space bitmap has ink")
	}
}

func TestSession_GlyphsCoversRunes(t *testing.T) {
	s := openTestSession(t, 12)

	count := 0
	for g := range s.Glyphs() {
		count++
		s.Release(g)
	}
	if want := len(s.Runes()) - len(s.Skipped()); count != want {
		t.Errorf("Glyphs() yielded %d, want %d", count, want)
	}
}

func TestSession_GlyphsStopsEarly(t *testing.T) {
	s := openTestSession(t, 12)

	count := 0
	for range s.Glyphs() {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestSession_Deterministic(t *testing.T) {
	a := openTestSession(t, 20)
	b := openTestSession(t, 20)

	for _, r := range []rune{'a', 'g', 'Q', '@'} {
		ga, okA := a.Rasterize(r)
		gb, okB := b.Rasterize(r)
		if okA != okB {
			t.Fatalf("%q: ok mismatch", r)
		}
		if ga.Width != gb.Width || ga.Rows != gb.Rows || ga.Left != gb.Left || ga.Top != gb.Top || ga.Advance != gb.Advance {
			t.Errorf("%q: metrics differ: %+v vs %+v", r, ga, gb)
		}
		if !bytes.Equal(ga.Pix, gb.Pix) {
			t.Errorf("%q: pixels differ", r)
		}
	}
}

func TestSession_MonospaceAdvances(t *testing.T) {
	s, err := Open(gomono.TTF, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	gi, _ := s.Rasterize('i')
	gw, _ := s.Rasterize('W')
	if gi.Advance != gw.Advance {
		t.Errorf("mono advances differ: i=%v W=%v", gi.Advance, gw.Advance)
	}
}

func TestSession_PoolAllocatorBalanced(t *testing.T) {
	pool := NewPoolAllocator(0)
	s := openTestSession(t, 16, WithAllocator(pool))

	for g := range s.Glyphs() {
		s.Release(g)
	}

	st := pool.Stats()
	if st.Allocs == 0 {
		t.Fatal("pool allocator was not used")
	}
	if st.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", st.Outstanding())
	}
	if st.Reused == 0 {
		t.Error("no buffers were reused")
	}
}

func TestSession_CloseIdempotent(t *testing.T) {
	s, err := Open(goregular.TTF, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if s.Err() != nil {
		t.Errorf("Err() before use = %v", s.Err())
	}
	if _, ok := s.Rasterize('A'); ok {
		t.Error("Rasterize after Close succeeded")
	}
	if !errors.Is(s.Err(), ErrSessionClosed) {
		t.Errorf("Err() = %v, want ErrSessionClosed", s.Err())
	}
	if len(s.Skipped()) != 0 {
		t.Errorf("closed session recorded skips: %v", s.Skipped())
	}
}

func TestSession_GlyphsAfterClose(t *testing.T) {
	s, err := Open(goregular.TTF, 16)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	n := 0
	for range s.Glyphs() {
		n++
	}
	if n != 0 {
		t.Errorf("Glyphs() after Close yielded %d glyphs", n)
	}
	if !errors.Is(s.Err(), ErrSessionClosed) {
		t.Errorf("Err() = %v, want ErrSessionClosed", s.Err())
	}
}

func TestSession_NumGlyphs(t *testing.T) {
	s := openTestSession(t, 16)
	if s.NumGlyphs() < len(s.Runes()) {
		t.Errorf("NumGlyphs() = %d, fewer than %d mapped runes", s.NumGlyphs(), len(s.Runes()))
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v", s.Err())
	}
}

func TestSession_HintingChangesNothingStructural(t *testing.T) {
	s := openTestSession(t, 16, WithHinting(font.HintingNone))

	g, ok := s.Rasterize('A')
	if !ok {
		t.Fatal("Rasterize('A') failed without hinting")
	}
	if g.Width <= 0 || g.Rows <= 0 {
		t.Errorf("unhinted 'A' = %dx%d", g.Width, g.Rows)
	}
}

func TestPoolAllocator(t *testing.T) {
	p := NewPoolAllocator(1)

	a := p.Alloc(100)
	if len(a) != 100 || cap(a) != 128 {
		t.Fatalf("Alloc(100) len=%d cap=%d, want 100/128", len(a), cap(a))
	}
	a[0] = 7
	p.Free(a)

	b := p.Alloc(90)
	if len(b) != 90 {
		t.Fatalf("Alloc(90) len = %d", len(b))
	}
	if b[0] != 0 {
		t.Error("reused buffer not cleared")
	}
	if st := p.Stats(); st.Reused != 1 {
		t.Errorf("Reused = %d, want 1", st.Reused)
	}

	// Foreign buffers are accepted but not pooled.
	p.Free(make([]byte, 100))
	p.Free(nil)
	if st := p.Stats(); st.Frees != 2 {
		t.Errorf("Frees = %d, want 2", st.Frees)
	}
}

func TestSizeClass(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 64}, {1, 64}, {64, 64}, {65, 128}, {128, 128}, {1000, 1024},
	}
	for _, tt := range tests {
		if got := sizeClass(tt.in); got != tt.want {
			t.Errorf("sizeClass(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
