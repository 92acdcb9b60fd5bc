package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"floc/rugs/rugs"

	"github.com/gorilla/mux"
)

const rugsMime = "application/x-rugs"

// router sets up every http route rugsd serves
func (e *env) router() *mux.Router {
	h := mux.NewRouter()

	// log requests as they come in, eliminates a bunch of redundant code
	h.Use(logger)

	h.NotFoundHandler = logger(returncode(http.StatusNotFound))
	h.MethodNotAllowedHandler = logger(returncode(http.StatusMethodNotAllowed))

	h.Path("/levels").Methods("GET").HandlerFunc(e.levels)
	h.Path("/encode").Methods("POST").HandlerFunc(e.encode)
	h.Path("/decode").Methods("POST").HandlerFunc(e.decode)

	h.Path("/images").Methods("GET").HandlerFunc(e.listImages)
	h.Path("/images").Methods("POST").HandlerFunc(e.postImage)
	h.Path("/images/{name:[a-zA-Z0-9_-]+}").Methods("PUT").HandlerFunc(e.putImage)
	h.Path("/images/{name:[a-zA-Z0-9_-]+}").Methods("DELETE").HandlerFunc(e.deleteImage)
	h.Path("/images/{name:[a-zA-Z0-9_-]+}.{ext:(?:rugs|png)}").Methods("GET").HandlerFunc(e.getImage)

	return h
}

// httpError writes err with a status code matching its kind
func httpError(w http.ResponseWriter, err error) {
	var mbe *http.MaxBytesError
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, rugs.ErrNotRugs), errors.Is(err, image.ErrFormat):
		code = http.StatusUnsupportedMediaType
	case errors.Is(err, rugs.ErrCorruptPayload), errors.Is(err, rugs.ErrShortHeader):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, rugs.ErrUnknownLevel), errors.Is(err, ErrBadThumb), errors.Is(err, ErrInvalidName):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNoImage):
		code = http.StatusNotFound
	case errors.Is(err, ErrEmptyImage):
		code = http.StatusUnprocessableEntity
	case errors.As(err, &mbe), errors.Is(err, ErrTooManyPixels):
		code = http.StatusRequestEntityTooLarge
	default:
		errorlog.Printf("%v", err)
	}

	http.Error(w, err.Error(), code)
}

func (e *env) body(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, e.config().MaxBody))
}

// fits checks the dimensions from an image header against max_pixels,
// the body limit alone doesn't bound what a compressed payload inflates to
func (e *env) fits(cfg image.Config) error {
	if int64(cfg.Width)*int64(cfg.Height) > e.config().MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return nil
}

// toRugs decodes any supported image (rugs included, it's registered with
// the image package) and encodes it as rugs at the requested level
func (e *env) toRugs(w http.ResponseWriter, r *http.Request) (*rugs.Buffer, []byte, error) {
	l, err := e.level(r)
	if err != nil {
		return nil, nil, err
	}

	body, err := e.body(w, r)
	if err != nil {
		return nil, nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	if err := e.fits(cfg); err != nil {
		return nil, nil, err
	}

	m, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	b := rugs.FromImage(m)
	b.Compress(l)

	data, err := rugs.ToRugs(b)
	if err != nil {
		return nil, nil, err
	}
	e.encoded.Add(1)

	return b, data, nil
}

// fromRugs decodes a rugs container whose header fits max_pixels
func (e *env) fromRugs(data []byte) (*rugs.Buffer, error) {
	cfg, err := rugs.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := e.fits(cfg); err != nil {
		return nil, err
	}

	return rugs.FromRugs(data)
}

func writeRugs(w http.ResponseWriter, b *rugs.Buffer, data []byte) {
	w.Header().Set("Content-Type", rugsMime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Rugs-Width", strconv.FormatUint(uint64(b.Width), 10))
	w.Header().Set("X-Rugs-Height", strconv.FormatUint(uint64(b.Height), 10))
	w.Header().Set("X-Rugs-Colors", strconv.Itoa(b.Colors()))
	w.Write(data)
}

// writePng converts a rugs buffer to png, shrinking it first if ?thumb= is set
func writePng(w http.ResponseWriter, r *http.Request, b *rugs.Buffer) {
	// png can't hold a 0x0 image
	if b.Width == 0 || b.Height == 0 {
		httpError(w, fmt.Errorf("%w: %dx%d", ErrEmptyImage, b.Width, b.Height))
		return
	}

	m, err := thumbnail(r, b.NRGBA())
	if err != nil {
		httpError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		httpError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func writeJson(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errorlog.Printf("while encoding json: %v", err)
	}
}

// levels lists the compression levels and their palette budgets
func (e *env) levels(w http.ResponseWriter, r *http.Request) {
	var resp []levelInfo
	for _, l := range rugs.Levels() {
		resp = append(resp, levelInfo{Name: l.String(), Budget: l.Budget()})
	}
	writeJson(w, http.StatusOK, resp)
}

// encode converts the request body to rugs and sends it back
func (e *env) encode(w http.ResponseWriter, r *http.Request) {
	b, data, err := e.toRugs(w, r)
	if err != nil {
		httpError(w, err)
		return
	}

	writeRugs(w, b, data)
}

// decode converts a rugs body to png
func (e *env) decode(w http.ResponseWriter, r *http.Request) {
	body, err := e.body(w, r)
	if err != nil {
		httpError(w, err)
		return
	}

	b, err := e.fromRugs(body)
	if err != nil {
		httpError(w, err)
		return
	}
	e.decoded.Add(1)

	writePng(w, r, b)
}

func (e *env) listImages(w http.ResponseWriter, r *http.Request) {
	names, err := e.store.list(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJson(w, http.StatusOK, names)
}

func (e *env) storeImage(w http.ResponseWriter, r *http.Request, name string) {
	b, data, err := e.toRugs(w, r)
	if err != nil {
		httpError(w, err)
		return
	}
	if name == "" {
		name = contentName(data)
	}

	if err := e.store.put(r.Context(), name, rugs.Header{Width: b.Width, Height: b.Height}, data); err != nil {
		httpError(w, err)
		return
	}
	e.stored.Add(1)
	infolog.Printf("stored %s (%dx%d, %d bytes)", name, b.Width, b.Height, len(data))

	w.Header().Set("Location", fmt.Sprintf("/images/%s.rugs", name))
	writeJson(w, http.StatusCreated, map[string]any{
		"name":   name,
		"width":  b.Width,
		"height": b.Height,
		"size":   len(data),
	})
}

// postImage stores the body under a name derived from its contents
func (e *env) postImage(w http.ResponseWriter, r *http.Request) {
	e.storeImage(w, r, "")
}

func (e *env) putImage(w http.ResponseWriter, r *http.Request) {
	e.storeImage(w, r, mux.Vars(r)["name"])
}

func (e *env) getImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	data, err := e.store.get(r.Context(), vars["name"])
	if err != nil {
		httpError(w, err)
		return
	}

	b, err := e.fromRugs(data)
	if err != nil {
		httpError(w, fmt.Errorf("stored image %s: %w", vars["name"], err))
		return
	}

	switch vars["ext"] {
	case "rugs":
		writeRugs(w, b, data)
	case "png":
		e.decoded.Add(1)
		writePng(w, r, b)
	}
}

func (e *env) deleteImage(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := e.store.del(r.Context(), name); err != nil {
		httpError(w, err)
		return
	}
	infolog.Printf("deleted %s", name)

	w.WriteHeader(http.StatusNoContent)
}
