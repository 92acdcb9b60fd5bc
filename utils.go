package main

import (
	"encoding/hex"
	"image"
	"net/http"
	"strconv"

	"floc/rugs/rugs"

	"github.com/KononK/resize"
	"golang.org/x/crypto/blake2b"
)

// returncode returns a handler that only writes a status code
func returncode(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

// contentName names an image after its contents, so posting
// the same file twice lands on the same name
func contentName(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// level from ?level=, or the configured default
func (e *env) level(r *http.Request) (rugs.Level, error) {
	s := r.URL.Query().Get("level")
	if s == "" {
		s = e.config().DefaultLevel
	}
	return rugs.ParseLevel(s)
}

// thumbnail shrinks m to fit ?thumb=N x N, if requested
func thumbnail(r *http.Request, m image.Image) (image.Image, error) {
	s := r.URL.Query().Get("thumb")
	if s == "" {
		return m, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 4096 {
		return nil, ErrBadThumb
	}

	return resize.Thumbnail(uint(n), uint(n), m, resize.Lanczos3), nil
}
