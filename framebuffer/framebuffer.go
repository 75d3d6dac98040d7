// Package framebuffer is a grid of character cells, each a glyph with a
// foreground and background palette index.
package framebuffer

import "fmt"

// HalfBlock is the upper half block.  Its foreground colour fills the top of
// the cell and the background colour the bottom.
const HalfBlock = '▀'

type Chexel struct {
	Glyph rune
	FG    uint8
	BG    uint8
}

// Surface is anything a frame can be presented to.
type Surface interface {
	SetCell(x, y int, glyph rune, fg, bg uint8)
}

type Framebuffer struct {
	Cols, Rows int
	Cells      []Chexel
}

var _ Surface = (*Framebuffer)(nil)

// New panics if either dimension is not positive.  Cells start as blanks.
func New(cols, rows int) *Framebuffer {
	if cols <= 0 || rows <= 0 {
		panic(fmt.Sprintf("framebuffer: bad size %dx%d", cols, rows))
	}
	fb := &Framebuffer{
		Cols:  cols,
		Rows:  rows,
		Cells: make([]Chexel, cols*rows),
	}
	fb.Clear()
	return fb
}

func (fb *Framebuffer) Clear() {
	for i := range fb.Cells {
		fb.Cells[i] = Chexel{Glyph: ' '}
	}
}

func (fb *Framebuffer) At(x, y int) Chexel {
	return fb.Cells[y*fb.Cols+x]
}

func (fb *Framebuffer) Set(x, y int, c Chexel) {
	fb.Cells[y*fb.Cols+x] = c
}

func (fb *Framebuffer) SetCell(x, y int, glyph rune, fg, bg uint8) {
	fb.Set(x, y, Chexel{Glyph: glyph, FG: fg, BG: bg})
}

// Blit copies every cell of fb to s.
func (fb *Framebuffer) Blit(s Surface) {
	for y := 0; y < fb.Rows; y++ {
		row := fb.Cells[y*fb.Cols : (y+1)*fb.Cols]
		for x, c := range row {
			s.SetCell(x, y, c.Glyph, c.FG, c.BG)
		}
	}
}

// CopyFrom requires equal sizes.
func (fb *Framebuffer) CopyFrom(src *Framebuffer) {
	copy(fb.Cells, src.Cells)
}
