package rugs

// image.go: conversion between Buffer and image.Image

import (
	"image"
	"image/draw"
)

// FromImage copies any image into a buffer, converting it to
// non-premultiplied RGBA. The result always starts at (0,0)
func FromImage(m image.Image) *Buffer {
	bo := m.Bounds()
	im, ok := m.(*image.NRGBA)
	if !ok || im.Rect.Min != (image.Point{}) || im.Stride != 4*bo.Dx() {
		im = image.NewNRGBA(image.Rect(0, 0, bo.Dx(), bo.Dy()))
		draw.Draw(im, im.Bounds(), m, bo.Min, draw.Src)
	}

	// can't fail, the NRGBA is exactly 4*w*h bytes
	b, _ := FromBytes(uint32(bo.Dx()), uint32(bo.Dy()), im.Pix[:4*bo.Dx()*bo.Dy()])
	return b
}

// NRGBA returns the buffer as an image for display or export
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Bytes(),
		Stride: 4 * int(b.Width),
		Rect:   image.Rect(0, 0, int(b.Width), int(b.Height)),
	}
}
