// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/fontatlas"
)

// solidAtlas returns a w x h atlas of full coverage holding one glyph 'x'
// that spans the whole texture and one em.
func solidAtlas(t *testing.T, w, h int) *fontatlas.FontAtlas {
	t.Helper()
	pix := make([]float32, w*h)
	for i := range pix {
		pix[i] = 1
	}
	return atlasFromPixels(t, w, h, pix)
}

func atlasFromPixels(t *testing.T, w, h int, pix []float32) *fontatlas.FontAtlas {
	t.Helper()
	a, err := fontatlas.NewFontAtlas(w, h, pix, 8, map[rune]fontatlas.CharacterInfo{
		'x': {
			TexSize:        [2]float32{1, 1},
			GlyphSize:      [2]float32{1, 1},
			BaselineOffset: 1,
		},
	})
	if err != nil {
		t.Fatalf("NewFontAtlas() error = %v", err)
	}
	return a
}

func drawX(t *testing.T, sw *Software, a *fontatlas.FontAtlas, m fontatlas.Mat4, c fontatlas.Color) {
	t.Helper()
	if err := sw.Draw(a, fontatlas.NewLayout(a, "x"), fontatlas.DrawParams{Transform: m, Color: c}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
}

func TestSoftware_FullQuadCoversOnce(t *testing.T) {
	target := NewPixmapTarget(8, 8)
	sw := NewSoftware(target)

	// Half alpha over transparent black: a pixel blended twice would reach
	// 191 instead of 128.
	drawX(t, sw, solidAtlas(t, 2, 2), fontatlas.Ortho(0, 1, 0, 1), fontatlas.Color{R: 1, A: 0.5})

	want := color.NRGBA{R: 128, A: 64}
	for y := range 8 {
		for x := range 8 {
			if got := target.NRGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d, %d) = %+v, want %+v", x, y, got, want)
			}
		}
	}
}

func TestSoftware_ViewportYUp(t *testing.T) {
	target := NewPixmapTarget(8, 8)
	sw := NewSoftware(target)

	// The quad fills the lower half of clip space, which is the bottom half
	// of the image.
	drawX(t, sw, solidAtlas(t, 2, 2), fontatlas.Ortho(0, 1, 0, 2), fontatlas.Color{G: 1, A: 1})

	for y := range 8 {
		got := target.NRGBAAt(3, y)
		painted := got.G == 255
		if want := y >= 4; painted != want {
			t.Errorf("row %d painted = %v, want %v", y, painted, want)
		}
	}
}

func TestSoftware_TextureOrientation(t *testing.T) {
	target := NewPixmapTarget(8, 8)
	target.Clear(color.Black)
	sw := NewSoftware(target, WithBlendState(gputypes.BlendStateAlpha()))

	// Top texel row lit, bottom row empty.
	a := atlasFromPixels(t, 2, 2, []float32{1, 1, 0, 0})
	drawX(t, sw, a, fontatlas.Ortho(0, 1, 0, 1), fontatlas.White)

	if got := target.NRGBAAt(4, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("top row = %+v, want white", got)
	}
	if got := target.NRGBAAt(4, 7); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("bottom row = %+v, want untouched black", got)
	}
	mid := target.NRGBAAt(4, 4)
	if mid.R == 0 || mid.R == 255 {
		t.Errorf("middle row = %+v, want a filtered value", mid)
	}
	if mid.A != 255 {
		t.Errorf("alpha blend state left background translucent: %+v", mid)
	}
}

func TestSoftware_Discard(t *testing.T) {
	target := NewPixmapTarget(4, 4)
	sw := NewSoftware(target)

	drawX(t, sw, solidAtlas(t, 2, 2), fontatlas.Ortho(0, 1, 0, 1), fontatlas.Color{R: 1, A: 0.005})

	for _, b := range target.Pixels() {
		if b != 0 {
			t.Fatal("fragments below the discard threshold were blended")
		}
	}
}

func TestSoftware_Offscreen(t *testing.T) {
	target := NewPixmapTarget(4, 4)
	sw := NewSoftware(target)

	drawX(t, sw, solidAtlas(t, 2, 2), fontatlas.Translate(5, 5, 0), fontatlas.White)
	for _, b := range target.Pixels() {
		if b != 0 {
			t.Fatal("offscreen quad touched the target")
		}
	}
}

func TestSoftware_Errors(t *testing.T) {
	sw := NewSoftware(NewPixmapTarget(4, 4))
	a := solidAtlas(t, 2, 2)
	l := fontatlas.NewLayout(a, "x")

	if err := sw.Draw(nil, l, fontatlas.DrawParams{}); !errors.Is(err, ErrNilAtlas) {
		t.Errorf("nil atlas: %v", err)
	}
	if err := sw.Draw(a, nil, fontatlas.DrawParams{}); !errors.Is(err, ErrNilLayout) {
		t.Errorf("nil layout: %v", err)
	}

	bgra := NewSoftware(bgraTarget{NewPixmapTarget(4, 4)})
	if err := bgra.Draw(a, l, fontatlas.DrawParams{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("bgra target: %v", err)
	}
}

type bgraTarget struct{ *PixmapTarget }

func (bgraTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

func TestSoftware_Text(t *testing.T) {
	const w, h = 160, 48
	target := NewPixmapTarget(w, h)
	target.Clear(color.White)

	ctx := fontatlas.NewContext(fontatlas.WithRenderer(
		NewSoftware(target, WithBlendState(gputypes.BlendStateAlpha()))))
	hnd, err := ctx.LoadAtlas(goregular.TTF, 24)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := ctx.Atlas(hnd)
	l, err := ctx.Layout(hnd, "Hello")
	if err != nil {
		t.Fatal(err)
	}

	em := float32(a.EmPixels())
	m := fontatlas.PixelTransform(4, 12, em, w, h)
	if err := ctx.Draw(l, fontatlas.DrawParams{Transform: m, Color: fontatlas.Black}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	// Ink lands between the pen start and the end of the run, above the
	// baseline at y = 12 (row h-12 from the top).
	right := 4 + int(l.TotalWidth()*em) + 1
	var ink int
	for y := range h {
		for x := range w {
			px := target.NRGBAAt(x, y)
			if px.R == 255 {
				continue
			}
			ink++
			if x < 2 || x > right {
				t.Fatalf("ink at (%d, %d) outside run [4, %d]", x, y, right)
			}
			if y > h-12+2 {
				t.Fatalf("ink at (%d, %d) below the baseline", x, y)
			}
		}
	}
	if ink == 0 {
		t.Error("nothing was drawn")
	}
}

func TestBlendChannel(t *testing.T) {
	add := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	tests := []struct {
		name string
		bc   gputypes.BlendComponent
		want float32
	}{
		{"source over", add, 0.25*1 + 0.75*0.5},
		{"subtract", gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationSubtract}, 0.5},
		{"reverse subtract", gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorZero, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationReverseSubtract}, 0.5},
		{"min", gputypes.BlendComponent{Operation: gputypes.BlendOperationMin}, 0.5},
		{"max", gputypes.BlendComponent{Operation: gputypes.BlendOperationMax}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blendChannel(tt.bc, 1, 0.5, 0.25, 1); got != tt.want {
				t.Errorf("blendChannel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleBilinear(t *testing.T) {
	a := atlasFromPixels(t, 2, 2, []float32{0, 1, 0, 1})
	tests := []struct {
		u, v float32
		want float32
	}{
		{0.25, 0.5, 0},  // left texel center
		{0.75, 0.5, 1},  // right texel center
		{0.5, 0.5, 0.5}, // between
		{0, 0, 0},       // clamped
		{1, 1, 1},       // clamped
	}
	for _, tt := range tests {
		if got := sampleBilinear(a, tt.u, tt.v); got != tt.want {
			t.Errorf("sampleBilinear(%v, %v) = %v, want %v", tt.u, tt.v, got, tt.want)
		}
	}
}
