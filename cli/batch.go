package main

// rugs batch: encode every image in a directory, several at a time.
// encodes don't share anything, so the only limit is cpu/memory

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"floc/rugs/rugs"

	"golang.org/x/sync/errgroup"
)

// extensions we try to decode, anything else in the directory is skipped
var inputExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

func batchCmd(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	fs.Usage = print_usage
	comp := fs.String("compression", "none", "level of lossy compression (ultra, high, med, min, none)")
	jobs := fs.Int("jobs", runtime.NumCPU(), "number of images to encode at once")
	fs.Parse(args)

	if fs.NArg() < 1 || fs.NArg() > 2 {
		print_usage()
	}
	dir := fs.Arg(0)
	outdir := dir
	if fs.NArg() == 2 {
		outdir = fs.Arg(1)
	}

	l, err := rugs.ParseLevel(*comp)
	if err != nil {
		fail("%v: %s", err, *comp)
	}

	st := time.Now()
	res, errs := batch(dir, outdir, l, *jobs)
	summary(os.Stdout, res, errs)
	p.Printf("Entire operation took %.2fs\n", time.Since(st).Seconds())

	if len(errs) > 0 {
		os.Exit(1)
	}
}

// batch encodes all images in dir into outdir as NAME.rugs.
// a failing image doesn't stop the others, its error is returned instead
func batch(dir, outdir string, l rugs.Level, jobs int) ([]result, []error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{err}
	}
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return nil, []error{err}
	}

	var (
		mu   sync.Mutex
		res  []result
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(max(jobs, 1))

	// a.png and a.jpg would both become a.rugs, only the first one gets it
	taken := make(map[string]string)

	for _, e := range ents {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !slices.Contains(inputExts, ext) {
			continue
		}

		in := filepath.Join(dir, e.Name())
		out := filepath.Join(outdir, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))+".rugs")

		if prev, ok := taken[out]; ok {
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: %s is already written from %s", in, out, prev))
			mu.Unlock()
			continue
		}
		taken[out] = in

		g.Go(func() error {
			r, err := encodeFile(in, out, l)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", in, err))
				return nil
			}
			r.buf = nil // don't hold on to every decoded image
			res = append(res, r)
			return nil
		})
	}
	g.Wait()

	slices.SortFunc(res, func(a, b result) int { return strings.Compare(a.in, b.in) })
	return res, errs
}

func summary(w io.Writer, res []result, errs []error) {
	var in, out int64
	for _, r := range res {
		p.Fprintf(w, "%s -> %s: %d -> %d bytes, %d colors\n", r.in, r.out, r.insize, r.outsize, r.colors)
		in += r.insize
		out += int64(r.outsize)
	}
	for _, err := range errs {
		fmt.Fprintf(w, "[-] %v\n", err)
	}

	p.Fprintf(w, "Done! encoded %d images (%d failed), %d bytes -> %d bytes\n", len(res), len(errs), in, out)
}
