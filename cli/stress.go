package main

// rugs stress:
// Pseudo-benchmark for rugsd
//
// every worker generates random images, sends them through
// /encode at a random level and back through /decode, and checks
// that the dimensions survived the trip

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"floc/rugs/rugs"
)

type stats struct {
	ok    atomic.Int64
	fail  atomic.Int64
	bytes atomic.Int64
}

func stressCmd(args []string) {
	fs := flag.NewFlagSet("stress", flag.ExitOnError)
	fs.Usage = print_usage
	workers := fs.Int("workers", 8, "number of simulated clients")
	dur := fs.Duration("duration", 30*time.Second, "how long to run for")
	fs.Parse(args)

	addr := "http://127.0.0.1:9000"
	if fs.NArg() > 0 {
		addr = fs.Arg(0)
	}

	st := &stats{}
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for id := 0; id < *workers; id++ {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(id, addr, st, stop)
		}()
	}

	time.Sleep(*dur)
	close(stop)
	wg.Wait()

	p.Printf("%d round trips ok, %d failed, %d bytes of rugs in %v (%.1f/s)\n",
		st.ok.Load(), st.fail.Load(), st.bytes.Load(), *dur, float64(st.ok.Load())/dur.Seconds())
}

func worker(id int, addr string, st *stats, stop <-chan struct{}) {
	cl := &http.Client{
		Timeout: 10 * time.Second,
	}
	levels := rugs.Levels()

	for {
		select {
		case <-stop:
			return
		default:
		}

		w, h := 16+rand.Intn(240), 16+rand.Intn(240)
		l := levels[rand.Intn(len(levels))]

		if err := roundtrip(cl, addr, noise(w, h), l, st); err != nil {
			fmt.Printf("worker %d error (%dx%d, %v): %v\n", id, w, h, l, err)
			st.fail.Add(1)
			continue
		}
		st.ok.Add(1)
	}
}

func roundtrip(cl *http.Client, addr string, m image.Image, l rugs.Level, st *stats) error {
	var body bytes.Buffer
	if err := png.Encode(&body, m); err != nil {
		return err
	}

	enc, err := post(cl, fmt.Sprintf("%s/encode?level=%v", addr, l), &body)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	st.bytes.Add(int64(len(enc)))

	dec, err := post(cl, addr+"/decode", bytes.NewReader(enc))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(dec))
	if err != nil {
		return err
	}
	if cfg.Width != m.Bounds().Dx() || cfg.Height != m.Bounds().Dy() {
		return fmt.Errorf("got %dx%d back", cfg.Width, cfg.Height)
	}
	return nil
}

func post(cl *http.Client, url string, body io.Reader) ([]byte, error) {
	resp, err := cl.Post(url, "application/octet-stream", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(b))
	}
	return b, nil
}

// random blocks of color, so quantization has something to do
func noise(w, h int) image.Image {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 4 {
		for x := 0; x < w; x += 4 {
			c := color.NRGBA{uint8(rand.Intn(256)), uint8(rand.Intn(256)), uint8(rand.Intn(256)), 255}
			for dy := 0; dy < 4 && y+dy < h; dy++ {
				for dx := 0; dx < 4 && x+dx < w; dx++ {
					m.SetNRGBA(x+dx, y+dy, c)
				}
			}
		}
	}
	return m
}
