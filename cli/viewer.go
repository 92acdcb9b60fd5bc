package main

import (
	"fmt"
	"time"

	"image"
	"image/draw"

	"github.com/KononK/resize"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/size"
)

const (
	minw = 200
	minh = 200
	maxw = 1600
	maxh = 900
)

// fit scales m down so it fits a maxw x maxh window, small images are left alone
func fit(m image.Image) image.Image {
	b := m.Bounds()
	if b.Dx() <= maxw && b.Dy() <= maxh {
		return m
	}
	return resize.Thumbnail(maxw, maxh, m, resize.Bilinear)
}

// view opens a window showing m until it's closed or escape is pressed
func view(title string, m image.Image) {
	im := fit(m)
	w, h := im.Bounds().Dx(), im.Bounds().Dy()

	wiw := max(w, minw)
	wih := max(h, minh)

	fmt.Println("[?] Press escape or close the window when you're ready to continue.")

	// start all of the gui stuff
	driver.Main(func(s screen.Screen) {
		wi, err := s.NewWindow(&screen.NewWindowOptions{
			Title:  fmt.Sprintf("rugs: viewing %s (%dx%d)", title, m.Bounds().Dx(), m.Bounds().Dy()),
			Width:  wiw,
			Height: wih,
		})
		if err != nil {
			fail("unable to open window: %v", err)
		}
		defer wi.Release()

		sb, err := s.NewBuffer(image.Point{wiw, wih})
		if err != nil {
			fail("unable to allocate window buffer: %v", err)
		}
		defer func() { sb.Release() }()
		pixbuf := sb.RGBA()

		for {
			draw.Draw(pixbuf, pixbuf.Bounds(), im, im.Bounds().Min, draw.Src)
			wi.Upload(image.Point{0, 0}, sb, sb.Bounds())
			wi.Publish()

			switch e := wi.NextEvent().(type) {
			case key.Event:
				if e.Code == key.CodeEscape {
					return
				}

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case size.Event:
				// will crash if width/height == 0
				es := image.Point{max(e.WidthPx, 1), max(e.HeightPx, 1)}
				sb.Release()
				sb, err = s.NewBuffer(es)
				if err != nil {
					fail("unable to resize window buffer: %v", err)
				}
				pixbuf = sb.RGBA()
			}
			time.Sleep(time.Millisecond * 5)
		}
	})
}
