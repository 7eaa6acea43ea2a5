// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"bytes"
	"errors"
	"image"
	"math"
	"testing"

	"periph.io/x/periph/conn/physic"
)

func TestCorrectNonUniformity(t *testing.T) {
	e := New()
	f := NewFrame(16, 16)
	for i := range f.Pix {
		f.Pix[i] = uint8(i)
	}
	out, err := e.CorrectNonUniformity(f)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out.Pix {
		var expected uint8
		if i <= 212 {
			expected = uint8(math.Round(float64(i) * 1.2))
		} else {
			expected = 255
		}
		if v != expected {
			t.Fatalf("%d: %d != %d", i, v, expected)
		}
	}
	// Round, not truncate.
	data := []struct{ in, expected uint8 }{{1, 1}, {2, 2}, {3, 4}, {4, 5}, {100, 120}, {212, 254}, {213, 255}, {255, 255}}
	for _, line := range data {
		if actual := out.Pix[line.in]; actual != line.expected {
			t.Fatalf("%d: %d != %d", line.in, actual, line.expected)
		}
	}
	if f.Pix[255] != 255 || f.Pix[3] != 3 {
		t.Fatal("input was modified")
	}
}

func TestCorrectNonUniformity_fail(t *testing.T) {
	e := New()
	if _, err := e.CorrectNonUniformity(nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
	if _, err := e.CorrectNonUniformity(&Frame{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
	if _, err := e.CorrectNonUniformity(NewFrame(0, 3)); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
	bad := &Frame{Gray: &image.Gray{Pix: make([]uint8, 3), Stride: 2, Rect: image.Rect(0, 0, 2, 2)}}
	if _, err := e.CorrectNonUniformity(bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
}

func TestEnhanceContrast_fail(t *testing.T) {
	if _, err := New().EnhanceContrast(NewFrame(5, 0)); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
}

func TestProcess_deterministic(t *testing.T) {
	e := New()
	raw := ramp(80, 60)
	a, err := e.Process(raw)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Process(raw.Clone())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("Process is not deterministic")
	}
	if a.Width() != 80 || a.Height() != 60 {
		t.Fatal(a.Bounds())
	}
}

func TestProcess_zeros(t *testing.T) {
	e := New()
	raw := NewFrame(4, 4)
	corrected, err := e.CorrectNonUniformity(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !allEqual(corrected, 0) {
		t.Fatal(corrected.Pix)
	}
	enhanced, err := e.EnhanceContrast(corrected)
	if err != nil {
		t.Fatal(err)
	}
	if !allEqual(enhanced, 0) {
		t.Fatal(enhanced.Pix)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			r, err := e.TemperatureAt(enhanced, x, y)
			if err != nil {
				t.Fatal(err)
			}
			if r.Celsius != 0 || r.Fahrenheit != 32 {
				t.Fatal(r)
			}
		}
	}
}

func TestProcess_saturated(t *testing.T) {
	e := New()
	raw := filled(23, 17, 255)
	corrected, err := e.CorrectNonUniformity(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !allEqual(corrected, 255) {
		t.Fatal(corrected.Pix)
	}
	enhanced, err := e.Process(raw)
	if err != nil {
		t.Fatal(err)
	}
	r, err := e.TemperatureAt(enhanced, 22, 16)
	if err != nil {
		t.Fatal(err)
	}
	if r.Value != 255 || !near(r.Celsius, 25.5) || !near(r.Fahrenheit, 77.9) {
		t.Fatal(r)
	}
}

func TestAdjust(t *testing.T) {
	e := New()
	raw := filled(8, 8, 200)
	adjusted, err := e.Adjust(raw, Adjustment{Brightness: 50, Contrast: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !allEqual(adjusted, 250) {
		t.Fatal(adjusted.Pix)
	}
	got, err := e.ApplyManualAdjustment(raw, Adjustment{Brightness: 50, Contrast: 1})
	if err != nil {
		t.Fatal(err)
	}
	expected, err := e.Process(adjusted)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, expected.Pix) {
		t.Fatal("ApplyManualAdjustment != Process(Adjust)")
	}

	data := []struct {
		in       uint8
		a        Adjustment
		expected uint8
	}{
		{100, Adjustment{0, 1}, 100},
		{100, Adjustment{-150, 1}, 0},
		{100, Adjustment{10, 0.5}, 55},
		{101, Adjustment{0, 0.5}, 50}, // Truncated.
		{200, Adjustment{100, 1}, 255},
		{200, Adjustment{0, 2}, 255},  // Clamped after the multiply.
		{200, Adjustment{0, -1}, 0},   //
		{50, Adjustment{0, 1.99}, 99}, // 99.5 truncated.
		{10, Adjustment{math.MaxInt, 1}, 255},
		{10, Adjustment{math.MinInt, 1}, 0},
	}
	for _, line := range data {
		out, err := e.Adjust(filled(1, 1, line.in), line.a)
		if err != nil {
			t.Fatal(err)
		}
		if out.Pix[0] != line.expected {
			t.Fatalf("%d %s: %d != %d", line.in, line.a, out.Pix[0], line.expected)
		}
	}
}

func TestApplyManualAdjustment_identity(t *testing.T) {
	e := New()
	raw := ramp(37, 29)
	a, err := e.ApplyManualAdjustment(raw, NoAdjustment)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Process(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("identity adjustment changed the output")
	}
}

func TestApplyManualAdjustment_fail(t *testing.T) {
	e := New()
	if _, err := e.ApplyManualAdjustment(filled(2, 2, 1), Adjustment{Contrast: math.NaN()}); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
	if _, err := e.ApplyManualAdjustment(nil, NoAdjustment); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
}

func TestAdjustmentFromSliders(t *testing.T) {
	a := AdjustmentFromSliders(12, 150)
	if a.Brightness != 12 || a.Contrast != 1.5 {
		t.Fatal(a)
	}
	if !AdjustmentFromSliders(0, 100).IsIdentity() {
		t.Fatal("expected identity")
	}
}

func TestTemperatureAt(t *testing.T) {
	e := New()
	f := ramp(10, 7)
	for y := 0; y < 7; y++ {
		for x := 0; x < 10; x++ {
			r, err := e.TemperatureAt(f, x, y)
			if err != nil {
				t.Fatal(err)
			}
			v := f.Pix[y*f.Stride+x]
			if r.Value != v || r.Celsius != float64(v)*0.1 {
				t.Fatal(r)
			}
			if r.Fahrenheit != r.Celsius*1.8+32 {
				t.Fatal(r)
			}
		}
	}
}

func TestTemperatureAt_range(t *testing.T) {
	e := New()
	f := NewFrame(4, 3)
	for _, p := range []image.Point{{4, 3}, {4, 0}, {0, 3}, {-1, 0}, {0, -1}} {
		if _, err := e.TemperatureAt(f, p.X, p.Y); !errors.Is(err, ErrOutOfRange) {
			t.Fatal(p, err)
		}
	}
	if _, err := e.TemperatureAt(nil, 0, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
}

func TestReading(t *testing.T) {
	r, err := New().TemperatureAt(filled(1, 1, 250), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s := r.String(); s != "25.00 °C | 77.00 °F" {
		t.Fatal(s)
	}
	if temp := r.Temperature(); temp != physic.ZeroCelsius+25*physic.Celsius {
		t.Fatal(temp)
	}
	if k := r.Kelvin(); !near(k, 298.15) {
		t.Fatal(k)
	}
}

func TestNewWithSettings(t *testing.T) {
	s := DefaultSettings
	s.ConversionFactor = 0.04
	e, err := NewWithSettings(s)
	if err != nil {
		t.Fatal(err)
	}
	r, err := e.TemperatureAt(filled(1, 1, 100), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !near(r.Celsius, 4) {
		t.Fatal(r)
	}
	for _, bad := range []Settings{
		{Gain: 0, ClipLimit: 2, Tiles: image.Point{8, 8}, ConversionFactor: 0.1},
		{Gain: 1, ClipLimit: math.Inf(1), Tiles: image.Point{8, 8}, ConversionFactor: 0.1},
		{Gain: 1, ClipLimit: 2, Tiles: image.Point{8, 0}, ConversionFactor: 0.1},
		{Gain: 1, ClipLimit: 2, Tiles: image.Point{8, 8}, ConversionFactor: 0},
	} {
		if _, err := NewWithSettings(bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatal(bad, err)
		}
	}
}

func TestNewFrameFromSamples(t *testing.T) {
	f, err := NewFrameFromSamples(3, 2, []uint8{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	if v, err := f.Sample(2, 1); err != nil || v != 6 {
		t.Fatal(v, err)
	}
	if _, err := NewFrameFromSamples(3, 2, []uint8{1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
	if _, err := NewFrameFromSamples(0, 0, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatal(err)
	}
}

func TestFrame_subImage(t *testing.T) {
	// A frame pointing to a sub image is processed relative to its origin.
	e := New()
	big := ramp(20, 20)
	sub := &Frame{Gray: big.SubImage(image.Rect(5, 5, 15, 15)).(*image.Gray)}
	r, err := e.TemperatureAt(sub, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Value != big.Pix[5*big.Stride+5] {
		t.Fatal(r)
	}
	a, err := e.Process(sub)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Process(sub.Clone())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("sub image differs from its clone")
	}
}

//

func filled(w, h int, v uint8) *Frame {
	f := NewFrame(w, h)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func ramp(w, h int) *Frame {
	f := NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Pix[y*f.Stride+x] = uint8((x*7 + y*3) % 256)
		}
	}
	return f
}

func allEqual(f *Frame, v uint8) bool {
	for _, p := range f.Pix {
		if p != v {
			return false
		}
	}
	return true
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
