// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/fontatlas"
)

// AtlasRGBA expands the atlas to RGBA8 texels: white, with coverage in
// alpha. Hosts whose texture creator only accepts RGBA can sample the
// alpha channel where the R8 pipeline samples red.
func AtlasRGBA(a *fontatlas.FontAtlas) []byte {
	r8 := a.R8()
	out := make([]byte, len(r8)*4)
	for i, v := range r8 {
		o := out[i*4 : i*4+4 : i*4+4]
		o[0], o[1], o[2], o[3] = 0xFF, 0xFF, 0xFF, v
	}
	return out
}

// UploadAtlas creates a host texture holding AtlasRGBA(a).
func UploadAtlas(c gpucontext.TextureCreator, a *fontatlas.FontAtlas) (gpucontext.Texture, error) {
	if a == nil {
		return nil, ErrNilAtlas
	}
	tex, err := c.NewTextureFromRGBA(a.Width(), a.Height(), AtlasRGBA(a))
	if err != nil {
		return nil, fmt.Errorf("render: upload atlas: %w", err)
	}
	return tex, nil
}

// Presenter shows a PixmapTarget through a host's texture drawer.
// The host owns the GPU context; the presenter only creates and updates
// one texture through the drawer's creator.
//
// Presenter is not safe for concurrent use.
type Presenter struct {
	drawer gpucontext.TextureDrawer
	tex    gpucontext.Texture
}

// NewPresenter returns a presenter drawing through d.
func NewPresenter(d gpucontext.TextureDrawer) *Presenter {
	return &Presenter{drawer: d}
}

// Present uploads t's pixels and draws them with the top-left corner at
// (x, y) in host pixels. The texture is reused while t keeps its size and
// the texture supports in-place updates.
func (p *Presenter) Present(t *PixmapTarget, x, y float32) error {
	w, h := t.Width(), t.Height()
	data := packRows(t.Pixels(), t.Stride(), w*4, h)

	if p.tex != nil && p.tex.Width() == w && p.tex.Height() == h {
		if u, ok := p.tex.(gpucontext.TextureUpdater); ok {
			if err := u.UpdateData(data); err != nil {
				return fmt.Errorf("render: update texture: %w", err)
			}
			return p.draw(x, y)
		}
	}

	tex, err := p.drawer.TextureCreator().NewTextureFromRGBA(w, h, data)
	if err != nil {
		return fmt.Errorf("render: create texture: %w", err)
	}
	p.tex = tex
	return p.draw(x, y)
}

func (p *Presenter) draw(x, y float32) error {
	if err := p.drawer.DrawTexture(p.tex, x, y); err != nil {
		return fmt.Errorf("render: draw texture: %w", err)
	}
	return nil
}

// packRows returns pix with any row padding removed.
func packRows(pix []byte, stride, rowBytes, rows int) []byte {
	if stride == rowBytes {
		return pix[:rowBytes*rows]
	}
	out := make([]byte, rowBytes*rows)
	for y := range rows {
		copy(out[y*rowBytes:(y+1)*rowBytes], pix[y*stride:])
	}
	return out
}
