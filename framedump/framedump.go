// Package framedump saves presented frames: a compact binary form that can be
// read back, and a PNG rendering of the half-block cells.
//
// The binary layout is an 8-byte little-endian header length, a protobuf
// Struct header, then a zlib stream holding each cell as a uint32 glyph, a
// uint8 foreground index and a uint8 background index, row-major.
package framedump

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"conray/framebuffer"
	"conray/palette"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const dataLayoutVersion = 1

// maxHeaderLength guards Read against garbage lengths.
const maxHeaderLength = 1 << 20

type wireCell struct {
	Glyph uint32
	FG    uint8
	BG    uint8
}

// Header describes one dump.
type Header struct {
	Cols, Rows int
	Frame      uint64
}

func (h Header) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"cols":                h.Cols,
		"rows":                h.Rows,
		"frame":               float64(h.Frame),
		"data_layout_version": dataLayoutVersion,
	})
}

func headerFromStruct(s *structpb.Struct) (Header, error) {
	f := s.GetFields()
	num := func(k string) (float64, error) {
		v, ok := f[k]
		if !ok {
			return 0, fmt.Errorf("header missing %q", k)
		}
		if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
			return 0, fmt.Errorf("header field %q is not a number", k)
		}
		return v.GetNumberValue(), nil
	}

	version, err := num("data_layout_version")
	if err != nil {
		return Header{}, err
	}
	if version != dataLayoutVersion {
		return Header{}, fmt.Errorf("bad data layout version: %v", version)
	}

	cols, err := num("cols")
	if err != nil {
		return Header{}, err
	}
	rows, err := num("rows")
	if err != nil {
		return Header{}, err
	}
	frame, err := num("frame")
	if err != nil {
		return Header{}, err
	}
	if cols < 1 || rows < 1 || cols*rows > math.MaxInt32 {
		return Header{}, fmt.Errorf("bad frame size %vx%v", cols, rows)
	}
	return Header{Cols: int(cols), Rows: int(rows), Frame: uint64(frame)}, nil
}

// Write dumps fb as frame number frame.
func Write(w io.Writer, fb *framebuffer.Framebuffer, frame uint64) error {
	hdr, err := Header{Cols: fb.Cols, Rows: fb.Rows, Frame: frame}.toStruct()
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}
	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}
	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	cells := make([]wireCell, len(fb.Cells))
	for i, c := range fb.Cells {
		cells[i] = wireCell{Glyph: uint32(c.Glyph), FG: c.FG, BG: c.BG}
	}

	zipWriter := zlib.NewWriter(w)
	if err := binary.Write(zipWriter, binary.LittleEndian, cells); err != nil {
		return fmt.Errorf("while writing cells: %w", err)
	}
	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}
	return nil
}

// Marshal is Write into a byte slice.
func Marshal(fb *framebuffer.Framebuffer, frame uint64) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := Write(buf, fb, frame); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read is the inverse of Write.
func Read(in io.Reader) (*framebuffer.Framebuffer, Header, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, Header{}, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLength > maxHeaderLength {
		return nil, Header{}, fmt.Errorf("header length %d too large", headerLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("while reading header bytes: %w", err)
	}

	st := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, st); err != nil {
		return nil, Header{}, fmt.Errorf("while unmarshaling header: %w", err)
	}
	hdr, err := headerFromStruct(st)
	if err != nil {
		return nil, Header{}, fmt.Errorf("while reading header: %w", err)
	}

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, Header{}, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	cells := make([]wireCell, hdr.Cols*hdr.Rows)
	if err := binary.Read(zipReader, binary.LittleEndian, cells); err != nil {
		return nil, Header{}, fmt.Errorf("while reading cells: %w", err)
	}

	fb := framebuffer.New(hdr.Cols, hdr.Rows)
	for i, c := range cells {
		fb.Cells[i] = framebuffer.Chexel{Glyph: rune(c.Glyph), FG: c.FG, BG: c.BG}
	}
	return fb, hdr, nil
}

func ReadFromFile(name string) (*framebuffer.Framebuffer, Header, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Header{}, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

func toRGBA(i uint8) color.RGBA {
	c := palette.Console16RGB[i&0x0F]
	return color.RGBA{
		R: uint8(math.Round(c[0] * 255)),
		G: uint8(math.Round(c[1] * 255)),
		B: uint8(math.Round(c[2] * 255)),
		A: 255,
	}
}

// Image draws each cell as a cellW x cellH block, foreground over the top
// half and background over the bottom, the way the half-block glyph shows on
// a terminal.  Other glyphs are drawn the same way.
func Image(fb *framebuffer.Framebuffer, cellW, cellH int) *image.RGBA {
	if cellW < 1 {
		cellW = 1
	}
	if cellH < 2 {
		cellH = 2
	}

	im := image.NewRGBA(image.Rect(0, 0, fb.Cols*cellW, fb.Rows*cellH))
	for y := 0; y < fb.Rows; y++ {
		for x := 0; x < fb.Cols; x++ {
			c := fb.At(x, y)
			fg, bg := toRGBA(c.FG), toRGBA(c.BG)
			for py := 0; py < cellH; py++ {
				col := fg
				if py >= cellH/2 {
					col = bg
				}
				for px := 0; px < cellW; px++ {
					im.SetRGBA(x*cellW+px, y*cellH+py, col)
				}
			}
		}
	}
	return im
}

func WritePNG(w io.Writer, fb *framebuffer.Framebuffer, cellW, cellH int) error {
	if err := png.Encode(w, Image(fb, cellW, cellH)); err != nil {
		return fmt.Errorf("while encoding png: %w", err)
	}
	return nil
}
