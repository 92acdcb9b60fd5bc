package rugs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"
)

var (
	red   = Color{R: 0xff, A: 0xff}
	green = Color{G: 0xff, A: 0xff}
	blue  = Color{B: 0xff, A: 0xff}
)

// gradient-ish test image with a lot of distinct colors
func makeTestBuffer(w, h int) *Buffer {
	pix := make([]Color, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix = append(pix, Color{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: uint8(255 - (x+y)%4),
			})
		}
	}
	b, _ := NewBuffer(uint32(w), uint32(h), pix)
	return b
}

func TestRoundTripRed2x1(t *testing.T) {
	b, err := NewBuffer(2, 1, []Color{red, red})
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}

	data, err := ToRugs(b)
	if err != nil {
		t.Fatalf("ToRugs: %v", err)
	}

	if string(data[0:4]) != "RUGS" {
		t.Fatalf("magic: got %q", data[0:4])
	}
	if w := binary.BigEndian.Uint32(data[4:8]); w != 2 {
		t.Fatalf("width: got %d, expected 2", w)
	}
	if h := binary.BigEndian.Uint32(data[8:12]); h != 1 {
		t.Fatalf("height: got %d, expected 1", h)
	}

	dec, err := FromRugs(data)
	if err != nil {
		t.Fatalf("FromRugs: %v", err)
	}
	if !dec.Equal(b) {
		t.Fatalf("decoded %v, expected %v", dec, b)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		w, h int
	}{
		{name: "empty", w: 0, h: 0},
		{name: "zero_height", w: 16, h: 0},
		{name: "single", w: 1, h: 1},
		{name: "wide", w: 97, h: 3},
		{name: "square", w: 64, h: 64},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := makeTestBuffer(tc.w, tc.h)

			var buf bytes.Buffer
			if err := EncodeRugs(&buf, b); err != nil {
				t.Fatalf("EncodeRugs: %v", err)
			}

			dec, err := DecodeRugs(&buf)
			if err != nil {
				t.Fatalf("DecodeRugs: %v", err)
			}
			if !dec.Equal(b) {
				t.Fatalf("round trip mismatch")
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	good, err := ToRugs(makeTestBuffer(8, 8))
	if err != nil {
		t.Fatalf("ToRugs: %v", err)
	}

	// header claims more pixels than the payload carries
	big := bytes.Clone(good)
	binary.BigEndian.PutUint32(big[4:8], 9)

	// header claims fewer
	small := bytes.Clone(good)
	binary.BigEndian.PutUint32(small[8:12], 7)

	badmagic := bytes.Clone(good)
	copy(badmagic, "RUGZ")

	tests := map[string]struct {
		in  []byte
		err error
	}{
		"empty":           {in: nil, err: ErrNotRugs},
		"short_magic":     {in: []byte("RU"), err: ErrNotRugs},
		"bad_magic":       {in: badmagic, err: ErrNotRugs},
		"png":             {in: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"), err: ErrNotRugs},
		"short_header":    {in: []byte("RUGS\x00\x00\x00\x01"), err: ErrShortHeader},
		"no_payload":      {in: good[:headerLen], err: ErrCorruptPayload},
		"garbage":         {in: append([]byte("RUGS\x00\x00\x00\x01\x00\x00\x00\x01"), "not zlib at all"...), err: ErrCorruptPayload},
		"truncated":       {in: good[:len(good)-10], err: ErrCorruptPayload},
		"too_few_pixels":  {in: big, err: ErrCorruptPayload},
		"too_many_pixels": {in: small, err: ErrCorruptPayload},
	}

	for name, test := range tests {
		_, err := FromRugs(test.in)
		if !errors.Is(err, test.err) {
			t.Fatalf("%s: expected %q, got %v", name, test.err, err)
		}

		_, err = DecodeRugs(bytes.NewReader(test.in))
		if !errors.Is(err, test.err) {
			t.Fatalf("%s (reader): expected %q, got %v", name, test.err, err)
		}
	}
}

func TestBadMagicAlwaysRejected(t *testing.T) {
	data, err := ToRugs(makeTestBuffer(4, 4))
	if err != nil {
		t.Fatalf("ToRugs: %v", err)
	}

	for i := 0; i < 4; i++ {
		for _, flip := range []byte{0x01, 0x20, 0x80, 0xff} {
			bad := bytes.Clone(data)
			bad[i] ^= flip
			if _, err := FromRugs(bad); !errors.Is(err, ErrNotRugs) {
				t.Fatalf("byte %d ^ %#x: expected ErrNotRugs, got %v", i, flip, err)
			}
		}
	}
}

func TestFromBytes(t *testing.T) {
	if _, err := FromBytes(1, 1, []byte{1, 2, 3}); !errors.Is(err, ErrCorruptPayload) {
		t.Fatalf("expected ErrCorruptPayload for 3 bytes, got %v", err)
	}
	if _, err := FromBytes(2, 1, []byte{1, 2, 3, 4}); !errors.Is(err, ErrCorruptPayload) {
		t.Fatalf("expected ErrCorruptPayload for missing pixel, got %v", err)
	}
	if _, err := NewBuffer(2, 2, []Color{red}); !errors.Is(err, ErrDimensions) {
		t.Fatalf("expected ErrDimensions, got %v", err)
	}

	b, err := FromBytes(2, 1, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if b.Pix[1] != (Color{5, 6, 7, 8}) {
		t.Fatalf("second pixel: got %v", b.Pix[1])
	}
	if !bytes.Equal(b.Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("Bytes: got %v", b.Bytes())
	}
}

func TestEncodeRejectsBadBuffer(t *testing.T) {
	b := &Buffer{Width: 3, Height: 3, Pix: []Color{red}}
	if _, err := ToRugs(b); !errors.Is(err, ErrDimensions) {
		t.Fatalf("expected ErrDimensions, got %v", err)
	}
}

func TestImageDecodeRegistered(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	src.SetNRGBA(2, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	var buf bytes.Buffer
	if err := Encode(&buf, src, None); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("image.DecodeConfig: %v", err)
	}
	if name != "rugs" || cfg.Width != 3 || cfg.Height != 2 {
		t.Fatalf("got %s %dx%d", name, cfg.Width, cfg.Height)
	}

	m, name, err := image.Decode(&buf)
	if err != nil {
		t.Fatalf("image.Decode: %v", err)
	}
	if name != "rugs" {
		t.Fatalf("format: got %s", name)
	}
	got, ok := m.(*image.NRGBA)
	if !ok {
		t.Fatalf("expected *image.NRGBA, got %T", m)
	}
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Fatalf("pixels: got %v, expected %v", got.Pix, src.Pix)
	}
}

func TestFromImageOffset(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.SetRGBA(5, 5, color.RGBA{R: 0xff, A: 0xff})
	src.SetRGBA(6, 5, color.RGBA{B: 0xff, A: 0xff})

	b := FromImage(src)
	if b.Width != 2 || b.Height != 1 {
		t.Fatalf("dimensions: got %dx%d", b.Width, b.Height)
	}
	if b.Pix[0] != red || b.Pix[1] != blue {
		t.Fatalf("pixels: got %v", b.Pix)
	}
}

func TestReadHeader(t *testing.T) {
	data, err := ToRugs(makeTestBuffer(300, 2))
	if err != nil {
		t.Fatalf("ToRugs: %v", err)
	}

	hd, err := ReadHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if hd.Width != 300 || hd.Height != 2 {
		t.Fatalf("got %+v", hd)
	}
}

func BenchmarkToRugs(b *testing.B) {
	buf := makeTestBuffer(256, 256)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := ToRugs(buf); err != nil {
			b.Fatalf("ToRugs: %v", err)
		}
	}
}
