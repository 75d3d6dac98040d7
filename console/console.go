// Package console draws frames to an ANSI terminal.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"conray/framebuffer"
	"conray/palette"

	"golang.org/x/term"
)

const (
	csi         = "\x1b["
	hideCursor  = csi + "?25l"
	showCursor  = csi + "?25h"
	clearScreen = csi + "2J"
	home        = csi + "H"
	resetSGR    = csi + "0m"
)

// Size reports the terminal size of f, or an error if f is not a terminal.
func Size(f *os.File) (cols, rows int, err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, 0, fmt.Errorf("%s is not a terminal", f.Name())
	}
	cols, rows, err = term.GetSize(fd)
	if err != nil {
		return 0, 0, fmt.Errorf("while reading terminal size: %w", err)
	}
	return cols, rows, nil
}

// Console collects cells through SetCell and writes the changed ones on
// Flush.  It is not safe for concurrent use.
type Console struct {
	w *bufio.Writer

	cur, shown *framebuffer.Framebuffer
	fresh      bool
}

var _ framebuffer.Surface = (*Console)(nil)

func New(w io.Writer, cols, rows int) *Console {
	return &Console{
		w:     bufio.NewWriterSize(w, 64*1024),
		cur:   framebuffer.New(cols, rows),
		shown: framebuffer.New(cols, rows),
		fresh: true,
	}
}

// SetCell ignores cells outside the console.
func (c *Console) SetCell(x, y int, glyph rune, fg, bg uint8) {
	if x < 0 || y < 0 || x >= c.cur.Cols || y >= c.cur.Rows {
		return
	}
	c.cur.SetCell(x, y, glyph, fg, bg)
}

// Begin hides the cursor and clears the screen.
func (c *Console) Begin() error {
	c.w.WriteString(hideCursor + resetSGR + clearScreen)
	c.fresh = true
	return c.w.Flush()
}

// End restores the terminal.
func (c *Console) End() error {
	c.w.WriteString(resetSGR + showCursor + csi + strconv.Itoa(c.cur.Rows+1) + ";1H\n")
	return c.w.Flush()
}

// Flush writes every cell that changed since the last Flush.  The first
// Flush after Begin writes them all.
func (c *Console) Flush() error {
	fg, bg := -1, -1
	cursorX, cursorY := -1, -1

	for y := 0; y < c.cur.Rows; y++ {
		for x := 0; x < c.cur.Cols; x++ {
			cell := c.cur.At(x, y)
			if !c.fresh && cell == c.shown.At(x, y) {
				continue
			}

			if x != cursorX || y != cursorY {
				fmt.Fprintf(c.w, "%s%d;%dH", csi, y+1, x+1)
			}
			if int(cell.FG) != fg || int(cell.BG) != bg {
				fg, bg = int(cell.FG), int(cell.BG)
				c.w.WriteString(sgr(cell.FG, cell.BG))
			}
			c.w.WriteRune(cell.Glyph)
			cursorX, cursorY = x+1, y
		}
	}
	c.w.WriteString(resetSGR)

	c.shown.CopyFrom(c.cur)
	c.fresh = false
	return c.w.Flush()
}

func sgr(fg, bg uint8) string {
	return csi + strconv.Itoa(palette.ANSIForeground[fg&0x0F]) + ";" + strconv.Itoa(palette.ANSIForeground[bg&0x0F]+10) + "m"
}
