package rugs

// decode.go: read rugs containers

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/klauspost/compress/zlib"
)

func init() {
	image.RegisterFormat("rugs", magic, Decode, DecodeConfig)
}

// Header is the fixed part of a rugs file
type Header struct {
	Width  uint32
	Height uint32
}

func parseHeader(h []byte) (Header, error) {
	// magic is checked first so anything that isn't rugs
	// is reported as such, no matter how short it is
	if len(h) < len(magic) || string(h[0:4]) != magic {
		return Header{}, ErrNotRugs
	}
	if len(h) < headerLen {
		return Header{}, ErrShortHeader
	}

	return Header{
		Width:  binary.BigEndian.Uint32(h[4:8]),
		Height: binary.BigEndian.Uint32(h[8:12]),
	}, nil
}

// ReadHeader reads only the 12 byte header from r
func ReadHeader(r io.Reader) (Header, error) {
	h := make([]byte, headerLen)
	n, err := io.ReadFull(r, h)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Header{}, err
	}

	return parseHeader(h[:n])
}

// see comments for ToRugs
func FromRugs(data []byte) (*Buffer, error) {
	hd, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	return inflate(hd, bytes.NewReader(data[headerLen:]))
}

func DecodeRugs(r io.Reader) (*Buffer, error) {
	hd, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	return inflate(hd, r)
}

// decompress the payload and check that it holds exactly width*height pixels
func inflate(hd Header, r io.Reader) (*Buffer, error) {
	n, ok := payloadLen(hd.Width, hd.Height)
	if !ok {
		return nil, fmt.Errorf("%w: %dx%d is too large", ErrCorruptPayload, hd.Width, hd.Height)
	}

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	defer zr.Close()

	// read one byte past the expected length so oversized payloads get caught
	// without inflating all of them
	pix, err := io.ReadAll(io.LimitReader(zr, int64(n)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if len(pix) != n {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d for %dx%d", ErrCorruptPayload, len(pix), n, hd.Width, hd.Height)
	}

	return FromBytes(hd.Width, hd.Height, pix)
}

// Decode reads a rugs image as an image.Image, for use with image.Decode
func Decode(r io.Reader) (image.Image, error) {
	b, err := DecodeRugs(r)
	if err != nil {
		return nil, err
	}

	return b.NRGBA(), nil
}

func DecodeConfig(r io.Reader) (image.Config, error) {
	hd, err := ReadHeader(r)
	if err != nil {
		return image.Config{}, err
	}

	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(hd.Width),
		Height:     int(hd.Height),
	}, nil
}
