// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package frameio loads and saves thermal frames from and to image files.
//
// Supported formats are PNG, JPEG, BMP, TIFF and GIF. Color images are reduced
// to their luma.
package frameio

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/maruel/go-thermal/thermal"
	"golang.org/x/image/draw"
)

// Format is an image file format.
type Format = imaging.Format

// Supported formats.
const (
	PNG  = imaging.PNG
	JPEG = imaging.JPEG
	BMP  = imaging.BMP
	TIFF = imaging.TIFF
	GIF  = imaging.GIF
)

// JPEGQuality is used when saving as JPEG.
const JPEGQuality = 95

// FormatFromPath returns the format to use for a file name.
func FormatFromPath(path string) (Format, error) {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, fmt.Errorf("%s: unsupported image format %q", path, strings.ToLower(filepath.Ext(path)))
	}
	return f, nil
}

// Load reads an image file and returns it as a frame.
//
// The EXIF orientation of JPEG files is honored.
func Load(path string) (*thermal.Frame, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}

// Decode reads an image from r and returns it as a frame.
func Decode(r io.Reader) (*thermal.Frame, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}

// FromImage converts any image to a frame with its origin at (0, 0).
func FromImage(img image.Image) (*thermal.Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", thermal.ErrInvalidInput)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", thermal.ErrInvalidInput)
	}
	f := thermal.NewFrame(b.Dx(), b.Dy())
	draw.Draw(f.Gray, f.Rect, img, b.Min, draw.Src)
	return f, nil
}

// Save writes the frame to path, with the format deduced from the extension.
func Save(path string, f *thermal.Frame) error {
	if f == nil || f.Gray == nil {
		return fmt.Errorf("%w: no frame", thermal.ErrInvalidInput)
	}
	if _, err := FormatFromPath(path); err != nil {
		return err
	}
	return imaging.Save(f.Gray, path, imaging.JPEGQuality(JPEGQuality))
}

// Encode writes the frame to w.
func Encode(w io.Writer, f *thermal.Frame, format Format) error {
	if f == nil || f.Gray == nil {
		return fmt.Errorf("%w: no frame", thermal.ErrInvalidInput)
	}
	return imaging.Encode(w, f.Gray, format, imaging.JPEGQuality(JPEGQuality))
}
