// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package clahe implements Contrast Limited Adaptive Histogram Equalization
// on 8 bits grayscale images.
//
// The image is split in a grid of tiles. Each tile gets its own equalization
// lookup table, built from the tile histogram once clipped at the clip limit.
// Each pixel is then bilinearly interpolated between the lookup tables of the
// four closest tiles, which removes the block artifacts.
//
// Reference: Zuiderveld, K. "Contrast Limited Adaptive Histogram
// Equalization", Graphics Gems IV, 1994.
package clahe

import (
	"errors"
	"image"
	"math"
)

// DefaultClipLimit is the commonly used clip limit.
const DefaultClipLimit = 2.0

// DefaultTiles is the commonly used 8x8 tile grid.
var DefaultTiles = image.Point{X: 8, Y: 8}

const histSize = 256

type lut [histSize]uint8

// Apply returns a new image with src equalized.
//
// clipLimit is relative to a uniform histogram; 2.0 means a bin may hold at
// most twice the average count before being clipped. A clipLimit <= 0
// disables clipping, which is plain adaptive histogram equalization.
//
// When the image size is not a multiple of the tile grid, the image is
// virtually extended by mirroring (without repeating the edge pixel) so that
// all tiles have the same size.
func Apply(src *image.Gray, clipLimit float64, tiles image.Point) (*image.Gray, error) {
	if src == nil {
		return nil, errors.New("clahe: nil image")
	}
	if tiles.X <= 0 || tiles.Y <= 0 {
		return nil, errors.New("clahe: invalid tile grid")
	}
	if math.IsNaN(clipLimit) {
		return nil, errors.New("clahe: invalid clip limit")
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("clahe: empty image")
	}

	g := grid{src: src, w: w, h: h, tiles: tiles}
	g.tileW = ceilMultiple(w, tiles.X) / tiles.X
	g.tileH = ceilMultiple(h, tiles.Y) / tiles.Y
	area := g.tileW * g.tileH

	limit := 0
	if clipLimit > 0 {
		limit = int(clipLimit * float64(area) / histSize)
		if limit < 1 {
			limit = 1
		}
	}
	luts := make([]lut, tiles.X*tiles.Y)
	for ty := 0; ty < tiles.Y; ty++ {
		for tx := 0; tx < tiles.X; tx++ {
			g.tileLUT(tx, ty, limit, &luts[ty*tiles.X+tx])
		}
	}
	return g.interpolate(luts), nil
}

// grid describes the tiling of one image.
type grid struct {
	src          *image.Gray
	w, h         int
	tiles        image.Point
	tileW, tileH int
}

// at returns the pixel at (x, y) relative to the image origin, mirroring
// coordinates that fall in the padding.
func (g *grid) at(x, y int) uint8 {
	x = reflect101(x, g.w)
	y = reflect101(y, g.h)
	return g.src.Pix[y*g.src.Stride+x]
}

func (g *grid) tileLUT(tx, ty, limit int, dst *lut) {
	var hist [histSize]int
	x0, y0 := tx*g.tileW, ty*g.tileH
	for y := y0; y < y0+g.tileH; y++ {
		for x := x0; x < x0+g.tileW; x++ {
			hist[g.at(x, y)]++
		}
	}

	// A tile with a single intensity has nothing to equalize.
	used := 0
	for _, c := range hist {
		if c != 0 {
			used++
		}
	}
	if used <= 1 {
		for i := range dst {
			dst[i] = uint8(i)
		}
		return
	}

	if limit > 0 {
		clipped := 0
		for i := range hist {
			if hist[i] > limit {
				clipped += hist[i] - limit
				hist[i] = limit
			}
		}
		batch := clipped / histSize
		residual := clipped - batch*histSize
		for i := range hist {
			hist[i] += batch
		}
		if residual != 0 {
			step := histSize / residual
			if step < 1 {
				step = 1
			}
			for i := 0; i < histSize && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	scale := float64(histSize-1) / float64(g.tileW*g.tileH)
	sum := 0
	for i := range hist {
		sum += hist[i]
		dst[i] = saturate(float64(sum) * scale)
	}
}

func (g *grid) interpolate(luts []lut) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, g.w, g.h))
	invW := 1. / float64(g.tileW)
	invH := 1. / float64(g.tileH)

	// Horizontal weights are the same for every row.
	cols := make([]weight, g.w)
	for x := range cols {
		cols[x] = weights(float64(x)*invW-0.5, g.tiles.X)
	}

	for y := 0; y < g.h; y++ {
		row := weights(float64(y)*invH-0.5, g.tiles.Y)
		top := luts[row.t1*g.tiles.X : (row.t1+1)*g.tiles.X]
		bottom := luts[row.t2*g.tiles.X : (row.t2+1)*g.tiles.X]
		srcRow := g.src.Pix[y*g.src.Stride : y*g.src.Stride+g.w]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+g.w]
		for x, v := range srcRow {
			c := cols[x]
			res := (float64(top[c.t1][v])*c.a1+float64(top[c.t2][v])*c.a)*row.a1 +
				(float64(bottom[c.t1][v])*c.a1+float64(bottom[c.t2][v])*c.a)*row.a
			dstRow[x] = saturate(res)
		}
	}
	return dst
}

// weight is the position of a pixel between two neighbor tile centers.
type weight struct {
	t1, t2 int
	a1, a  float64
}

func weights(f float64, n int) weight {
	t1 := int(math.Floor(f))
	t2 := t1 + 1
	a := f - float64(t1)
	if t1 < 0 {
		t1 = 0
	}
	if t2 > n-1 {
		t2 = n - 1
	}
	return weight{t1: t1, t2: t2, a1: 1 - a, a: a}
}

// reflect101 maps an out of range coordinate back inside [0, n) by mirroring
// around the edge pixels, e.g. for n=4: 4->2, 5->1, 6->0, 7->1.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

func ceilMultiple(v, m int) int {
	if r := v % m; r != 0 {
		return v + m - r
	}
	return v
}

func saturate(v float64) uint8 {
	r := math.RoundToEven(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}
