// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"fmt"
	"image"
)

// Frame is a single channel thermal image, 8 bits per sample.
//
// Pixel (x, y) is at Pix[y*Stride+x]; frames created by this package always
// have their origin at (0, 0).
type Frame struct {
	*image.Gray
}

// NewFrame returns a black frame of the requested size.
func NewFrame(width, height int) *Frame {
	return &Frame{Gray: image.NewGray(image.Rect(0, 0, width, height))}
}

// NewFrameFromSamples returns a frame using a copy of samples, in row-major
// order.
func NewFrameFromSamples(width, height int, samples []uint8) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame is %dx%d", ErrInvalidInput, width, height)
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("%w: %d samples for a %dx%d frame", ErrInvalidInput, len(samples), width, height)
	}
	f := NewFrame(width, height)
	copy(f.Pix, samples)
	return f, nil
}

// Width is the number of columns.
func (f *Frame) Width() int {
	return f.Rect.Dx()
}

// Height is the number of rows.
func (f *Frame) Height() int {
	return f.Rect.Dy()
}

// Sample returns the intensity at (x, y), relative to the frame origin.
func (f *Frame) Sample(x, y int) (uint8, error) {
	if x < 0 || y < 0 || x >= f.Width() || y >= f.Height() {
		return 0, fmt.Errorf("%w: (%d, %d) outside %dx%d", ErrOutOfRange, x, y, f.Width(), f.Height())
	}
	return f.Pix[y*f.Stride+x], nil
}

// Clone returns a deep copy with the origin moved to (0, 0).
func (f *Frame) Clone() *Frame {
	w, h := f.Width(), f.Height()
	out := NewFrame(w, h)
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], f.Pix[y*f.Stride:y*f.Stride+w])
	}
	return out
}

// validate returns ErrInvalidInput if f cannot be processed.
func (f *Frame) validate() error {
	if f == nil || f.Gray == nil {
		return fmt.Errorf("%w: no frame", ErrInvalidInput)
	}
	w, h := f.Width(), f.Height()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: frame is %dx%d", ErrInvalidInput, w, h)
	}
	if f.Stride < w || len(f.Pix) < (h-1)*f.Stride+w {
		return fmt.Errorf("%w: %d samples with stride %d for a %dx%d frame", ErrInvalidInput, len(f.Pix), f.Stride, w, h)
	}
	return nil
}

// mapSamples returns a new frame with fn applied to each sample.
func (f *Frame) mapSamples(fn func(uint8) uint8) *Frame {
	w, h := f.Width(), f.Height()
	out := NewFrame(w, h)
	for y := 0; y < h; y++ {
		src := f.Pix[y*f.Stride : y*f.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			dst[x] = fn(v)
		}
	}
	return out
}
