package rugs

// color.go: pixel buffers and the color primitives they're built from

import (
	"math"
)

// Color is a single non-premultiplied RGBA sample.
// Equality is exact, so it can be used as a map key.
type Color struct {
	R, G, B, A uint8
}

// Buffer holds a decoded image as Width*Height colors in row-major order
type Buffer struct {
	Width  uint32
	Height uint32
	Pix    []Color
}

// Distance returns the euclidean distance between a and b,
// treating all four channels as one 4d vector
func Distance(a, b Color) float64 {
	return math.Sqrt(float64(distsq(a, b)))
}

// squared distance, same ordering as Distance without the float math
func distsq(a, b Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	da := int(a.A) - int(b.A)
	return dr*dr + dg*dg + db*db + da*da
}

func NewBuffer(w, h uint32, pix []Color) (*Buffer, error) {
	if uint64(len(pix)) != uint64(w)*uint64(h) {
		return nil, ErrDimensions
	}
	return &Buffer{Width: w, Height: h, Pix: pix}, nil
}

// FromBytes builds a buffer out of flat R,G,B,A bytes,
// e.g. what an image decoder or the rugs payload hands us
func FromBytes(w, h uint32, b []byte) (*Buffer, error) {
	n, ok := payloadLen(w, h)
	if !ok || len(b)%4 != 0 || len(b) != n {
		return nil, ErrCorruptPayload
	}

	pix := make([]Color, len(b)/4)
	for i := range pix {
		p := b[i*4 : i*4+4 : i*4+4]
		pix[i] = Color{R: p[0], G: p[1], B: p[2], A: p[3]}
	}

	return &Buffer{Width: w, Height: h, Pix: pix}, nil
}

// Bytes flattens the buffer into 4*Width*Height bytes, R,G,B,A per pixel
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, len(b.Pix)*4)
	for _, c := range b.Pix {
		out = append(out, c.R, c.G, c.B, c.A)
	}
	return out
}

// Colors returns the number of distinct colors in the buffer
func (b *Buffer) Colors() int {
	seen := make(map[Color]struct{})
	for _, c := range b.Pix {
		seen[c] = struct{}{}
	}
	return len(seen)
}

func (b *Buffer) Equal(o *Buffer) bool {
	if b.Width != o.Width || b.Height != o.Height || len(b.Pix) != len(o.Pix) {
		return false
	}
	for i := range b.Pix {
		if b.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

func (b *Buffer) clone() *Buffer {
	pix := make([]Color, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}
