// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gray14 reduces 14 bits thermal images down to 8 bits frames.
package gray14

import (
	"github.com/maruel/go-thermal/thermal"
	"periph.io/x/periph/devices/lepton/image14bit"
)

// Min returns the lowest intensity in the image, or 16383 for an empty image.
func Min(img *image14bit.Gray14) image14bit.Intensity14 {
	b := img.Bounds()
	out := image14bit.Intensity14(16383)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if v := img.Intensity14At(x, y); v < out {
				out = v
			}
		}
	}
	return out
}

// Max returns the highest intensity in the image, or 0 for an empty image.
func Max(img *image14bit.Gray14) image14bit.Intensity14 {
	b := img.Bounds()
	out := image14bit.Intensity14(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if v := img.Intensity14At(x, y); v > out {
				out = v
			}
		}
	}
	return out
}

// AGCLinear reduces the dynamic range of a 14 bits image down to 8 bits very
// naively without gamma: the observed [min, max] is stretched linearly onto
// [0, 255].
//
// A flat image is black.
func AGCLinear(img *image14bit.Gray14) *thermal.Frame {
	b := img.Bounds()
	dst := thermal.NewFrame(b.Dx(), b.Dy())
	floor := int(Min(img))
	delta := int(Max(img)) - floor
	if delta <= 0 {
		return dst
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := (int(img.Intensity14At(b.Min.X+x, b.Min.Y+y)) - floor) * 255 / delta
			dst.Pix[y*dst.Stride+x] = uint8(v)
		}
	}
	return dst
}
