// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package session

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/maruel/go-thermal/thermal"
)

func TestSession_empty(t *testing.T) {
	s := New(thermal.New())
	if s.Raw() != nil || s.Enhanced() != nil {
		t.Fatal("expected no frame")
	}
	if _, err := s.TemperatureAt(0, 0); err != ErrNoFrame {
		t.Fatal(err)
	}
	if _, err := s.SetBrightness(10); err != ErrNoFrame {
		t.Fatal(err)
	}
	if _, err := s.Load(nil); !errors.Is(err, thermal.ErrInvalidInput) {
		t.Fatal(err)
	}
	if s.Generation() != 0 {
		t.Fatal(s.Generation())
	}
}

func TestSession(t *testing.T) {
	e := thermal.New()
	s := New(e)
	raw := frame(200)
	enhanced, err := s.Load(raw)
	if err != nil {
		t.Fatal(err)
	}
	expected, err := e.Process(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enhanced.Pix, expected.Pix) {
		t.Fatal("Load != Process")
	}
	// The session keeps its own copy.
	raw.Pix[0] = 0
	if s.Raw().Pix[0] != 200 {
		t.Fatal("raw frame is shared with the caller")
	}

	if _, err := s.SetBrightness(50); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetContrastPercent(50); err != nil {
		t.Fatal(err)
	}
	if a := s.Adjustment(); a.Brightness != 50 || a.Contrast != 0.5 {
		t.Fatal(a)
	}
	expected, err = e.ApplyManualAdjustment(s.Raw(), thermal.Adjustment{Brightness: 50, Contrast: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(s.Enhanced().Pix, expected.Pix) {
		t.Fatal("Enhanced != ApplyManualAdjustment")
	}
	r, err := s.TemperatureAt(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if r.Value != s.Enhanced().Pix[s.Enhanced().Stride+1] {
		t.Fatal(r)
	}
	if _, err := s.TemperatureAt(8, 0); !errors.Is(err, thermal.ErrOutOfRange) {
		t.Fatal(err)
	}
	if s.Generation() != 3 {
		t.Fatal(s.Generation())
	}

	// Loading resets the adjustment.
	if _, err := s.Load(frame(10)); err != nil {
		t.Fatal(err)
	}
	if !s.Adjustment().IsIdentity() {
		t.Fatal(s.Adjustment())
	}
}

func TestSession_feed(t *testing.T) {
	e := thermal.New()
	s := New(e)
	if _, err := s.Feed(nil); !errors.Is(err, thermal.ErrInvalidInput) {
		t.Fatal(err)
	}
	if _, err := s.Feed(frame(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetBrightness(-20); err != nil {
		t.Fatal(err)
	}
	// The adjustment survives new frames.
	next := frame(150)
	enhanced, err := s.Feed(next)
	if err != nil {
		t.Fatal(err)
	}
	if s.Adjustment().Brightness != -20 {
		t.Fatal(s.Adjustment())
	}
	expected, err := e.ApplyManualAdjustment(next, thermal.Adjustment{Brightness: -20, Contrast: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(enhanced.Pix, expected.Pix) {
		t.Fatal("Feed ignored the adjustment")
	}
}

func TestSession_badAdjustment(t *testing.T) {
	s := New(thermal.New())
	if _, err := s.Load(frame(100)); err != nil {
		t.Fatal(err)
	}
	before := s.Enhanced()
	if _, err := s.Adjust(thermal.Adjustment{Contrast: math.Inf(1)}); !errors.Is(err, thermal.ErrInvalidInput) {
		t.Fatal(err)
	}
	if s.Enhanced() != before || !s.Adjustment().IsIdentity() {
		t.Fatal("failed adjustment changed the session")
	}
}

func TestSession_concurrent(t *testing.T) {
	s := New(thermal.New())
	if _, err := s.Load(frame(100)); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.SetBrightness(i); err != nil {
				t.Error(err)
			}
			if _, err := s.TemperatureAt(i%8, 0); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if s.Generation() != 9 {
		t.Fatal(s.Generation())
	}
}

//

func frame(base uint8) *thermal.Frame {
	f := thermal.NewFrame(8, 8)
	for i := range f.Pix {
		f.Pix[i] = base + uint8(i%4)
	}
	return f
}
