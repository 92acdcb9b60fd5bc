package rugs

import (
	"errors"
	"math"
)

const (
	magic     string = "RUGS"
	headerLen int    = 12 // magic + width + height
)

var (
	ErrNotRugs        = errors.New("missing magic, not a rugs image")
	ErrShortHeader    = errors.New("rugs header is shorter than 12 bytes")
	ErrCorruptPayload = errors.New("rugs payload is corrupt")
	ErrDimensions     = errors.New("pixel count does not match width*height")
	ErrUnknownLevel   = errors.New("unknown compression level")
)

// expected payload size in bytes, ok is false if it doesn't fit in an int
func payloadLen(w, h uint32) (int, bool) {
	n := uint64(w) * uint64(h) * 4
	if n > math.MaxInt {
		return 0, false
	}
	return int(n), true
}
