package rugs

// encode.go: write rugs containers

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/klauspost/compress/zlib"
)

// rugs: 12 byte header followed by the pixel payload
// 0x0 - 0x4: magic "RUGS"
// 0x4 - 0x8: width, u32 big endian
// 0x8 - 0xc: height, u32 big endian
// 0xc onwards: zlib stream of R,G,B,A bytes, row-major. there is no length
// prefix, the payload runs until the end of the data
func ToRugs(b *Buffer) ([]byte, error) {
	if uint64(len(b.Pix)) != uint64(b.Width)*uint64(b.Height) {
		return nil, ErrDimensions
	}

	out := bytes.NewBuffer(make([]byte, 0, headerLen+len(b.Pix)))
	out.WriteString(magic)

	var dim [8]byte
	binary.BigEndian.PutUint32(dim[0:4], b.Width)
	binary.BigEndian.PutUint32(dim[4:8], b.Height)
	out.Write(dim[:])

	zw, err := zlib.NewWriterLevel(out, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(b.Bytes()); err != nil {
		zw.Close()
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}

	return out.Bytes(), nil
}

// generic function to encode rugs
func EncodeRugs(w io.Writer, b *Buffer) error {
	data, err := ToRugs(b)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// Encode writes m as rugs after reducing its palette according to l
func Encode(w io.Writer, m image.Image, l Level) error {
	b := FromImage(m)
	b.Compress(l)

	return EncodeRugs(w, b)
}
