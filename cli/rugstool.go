package main

// rugs: command line tool for rugs images
// encode standard images to rugs, view/export/inspect them,
// batch convert directories and talk to a running rugsd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bufio"
	"io"
	"net"
	"os/signal"

	"image"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"floc/rugs/rugs"

	"github.com/disintegration/imaging"
	"github.com/esimov/colorquant"
	"github.com/xfmoulet/qoi"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const usage = `usage: %[1]v <command> [arguments]

  encode  --input=IN [--output=output.rugs] [--compression=none] [--view=true]
  view    IN.rugs
  export  IN.rugs OUT.png|jpg|gif|qoi
  info    IN.rugs
  batch   [--compression=none] [--jobs=N] DIR [OUTDIR]
  console [socket]
  stress  [--workers=N] [--duration=30s] [address]

compression levels: none, min, med, high, ultra

example:
  %[1]v encode --compression=high --input=example.png --output=completed.rugs --view=true
`

var p = message.NewPrinter(language.English)

func print_usage() {
	fmt.Fprintf(os.Stderr, usage, filepath.Base(os.Args[0]))
	os.Exit(1)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[-] "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		print_usage()
	}

	args := os.Args[2:]

	switch os.Args[1] {
	case "encode":
		encodeCmd(args)

	case "view":
		if len(args) != 1 {
			print_usage()
		}
		b, err := readRugs(args[0])
		if err != nil {
			fail("unable to read %s: %v", args[0], err)
		}
		view(args[0], b.NRGBA())

	case "export":
		if len(args) != 2 {
			print_usage()
		}
		if err := exportFile(args[0], args[1]); err != nil {
			fail("unable to export %s: %v", args[0], err)
		}
		fmt.Printf("exported %s to %s\n", args[0], args[1])

	case "info":
		if len(args) != 1 {
			print_usage()
		}
		if err := info(os.Stdout, args[0]); err != nil {
			fail("unable to read %s: %v", args[0], err)
		}

	case "batch":
		batchCmd(args)

	case "console":
		if len(args) >= 1 {
			console(args[0])
		} else {
			console(filepath.Join(os.TempDir(), "rugsd.sock"))
		}

	case "stress":
		stressCmd(args)

	default:
		print_usage()
	}
}

func encodeCmd(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	fs.Usage = print_usage
	in := fs.String("input", "", "path to input image for conversion (required)")
	out := fs.String("output", "output.rugs", "path to output generated file")
	comp := fs.String("compression", "none", "level of lossy compression (ultra, high, med, min, none)")
	show := fs.Bool("view", false, "view the image upon completion")
	fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "You didn't specify the input path.")
		print_usage()
	}

	l, err := rugs.ParseLevel(*comp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "You didn't specify one of the supported compression types.")
		print_usage()
	}

	fmt.Println("Your settings seem correct! Starting the conversion ...")
	st := time.Now()

	r, err := encodeFile(*in, *out, l)
	if err != nil {
		fail("unable to encode %s: %v", *in, err)
	}

	r.report(os.Stdout)
	p.Printf("Entire operation took %.2fs\n", time.Since(st).Seconds())

	if *show {
		view(*out, r.buf.NRGBA())
	}
}

// result of encoding a single image
type result struct {
	in, out string
	insize  int64
	outsize int
	colors  int // distinct colors after quantization
	level   rugs.Level
	buf     *rugs.Buffer
}

func (r result) report(w io.Writer) {
	diff := float64(r.insize - int64(r.outsize))
	pct := diff / float64(r.outsize) * 100
	word := "smaller"
	if diff < 0 {
		word = "larger"
		diff, pct = -diff, -pct
	}

	p.Fprintf(w, "Done! %s is %.2f%% (%.2f KB) %s than %s (%d bytes, %dx%d, %d colors, level %v)\n",
		r.out, pct, diff/1000, word, r.in, r.outsize, r.buf.Width, r.buf.Height, r.colors, r.level)
}

// decode a standard image from disk, respecting exif orientation
func loadImage(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}

func encodeFile(in, out string, l rugs.Level) (result, error) {
	fi, err := os.Stat(in)
	if err != nil {
		return result{}, err
	}

	src, err := loadImage(in)
	if err != nil {
		return result{}, err
	}

	b := rugs.FromImage(src)
	b.Compress(l)

	data, err := rugs.ToRugs(b)
	if err != nil {
		return result{}, err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return result{}, err
	}

	return result{
		in:      in,
		out:     out,
		insize:  fi.Size(),
		outsize: len(data),
		colors:  b.Colors(),
		level:   l,
		buf:     b,
	}, nil
}

func readRugs(path string) (*rugs.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return rugs.DecodeRugs(bufio.NewReader(f))
}

// export a rugs image to a standard format, picked by the output extension
func exportFile(in, out string) error {
	b, err := readRugs(in)
	if err != nil {
		return err
	}
	// none of the output formats can hold an image without pixels
	if b.Width == 0 || b.Height == 0 {
		return fmt.Errorf("%s is %dx%d, nothing to export", in, b.Width, b.Height)
	}
	m := b.NRGBA()

	ext := strings.ToLower(filepath.Ext(out))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".qoi":
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}

	fo, err := os.Create(out)
	if err != nil {
		return err
	}
	defer fo.Close()

	w := bufio.NewWriter(fo)
	switch ext {
	case ".png":
		err = png.Encode(w, m)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(w, m, &jpeg.Options{Quality: 90})
	case ".gif":
		// gif can't hold more than 256 colors
		dst := image.NewPaletted(m.Bounds(), palette.WebSafe)
		err = gif.Encode(w, colorquant.NoDither.Quantize(m, dst, 256, false, true), nil)
	case ".qoi":
		err = qoi.Encode(w, m)
	}
	if err != nil {
		return err
	}

	return w.Flush()
}

func info(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hd, err := rugs.ReadHeader(f)
	if err != nil {
		return err
	}
	p.Fprintf(w, "%s: %dx%d\n", path, hd.Width, hd.Height)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	b, err := rugs.DecodeRugs(bufio.NewReader(f))
	if err != nil {
		return err
	}
	fi, err := f.Stat()
	if err != nil {
		return err
	}

	p.Fprintf(w, "  pixels: %d\n  colors: %d\n  size:   %d bytes (%.2f bytes/pixel)\n",
		len(b.Pix), b.Colors(), fi.Size(), float64(fi.Size())/float64(max(len(b.Pix), 1)))
	return nil
}

func console(addr string) {
	fmt.Printf("trying %v\n", addr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	conn, err := net.Dial("unix", addr)
	if err != nil {
		fail("unable to connect: %v", err)
	}

	go func(c net.Conn) {
		sig := <-sigs
		c.Close()
		fmt.Printf("caught %v, exiting\n", sig)
		os.Exit(0)
	}(conn)

	fmt.Printf("connected to rugsd @ %s\n", addr)

	s := bufio.NewScanner(os.Stdin)
	buf := make([]byte, 1048576) // read at most 1MiB, this should never be too little
	for {
		fmt.Print("> ")
		if !s.Scan() {
			if err := s.Err(); err != nil {
				fail("reading stdin: %v", err)
			}
			return
		}
		if len(s.Bytes()) == 0 {
			continue
		}

		if _, err := conn.Write(s.Bytes()); err != nil {
			fail("write: %v", err)
		}

		n, err := conn.Read(buf)
		if err != nil && err != io.EOF {
			fail("read: %v", err)
		}

		fmt.Printf("%s\n", string(buf[:n]))
	}
}
