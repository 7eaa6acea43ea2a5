// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"fmt"
	"math"

	"github.com/maruel/go-thermal/clahe"
)

// Enhancer runs the enhancement pipeline. It is immutable and safe for
// concurrent use.
type Enhancer struct {
	settings Settings
	nuc      [256]uint8
}

// New returns an Enhancer using DefaultSettings.
func New() *Enhancer {
	e, err := NewWithSettings(DefaultSettings)
	if err != nil {
		panic(err)
	}
	return e
}

// NewWithSettings returns an Enhancer with custom settings.
func NewWithSettings(s Settings) (*Enhancer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	e := &Enhancer{settings: s}
	for i := range e.nuc {
		v := math.Round(float64(i) * s.Gain)
		if v > 255 {
			v = 255
		}
		e.nuc[i] = uint8(v)
	}
	return e, nil
}

// Settings returns the settings in use.
func (e *Enhancer) Settings() Settings {
	return e.settings
}

// CorrectNonUniformity multiplies each sample by the gain, rounding to the
// nearest integer and saturating at 255.
func (e *Enhancer) CorrectNonUniformity(f *Frame) (*Frame, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f.mapSamples(func(v uint8) uint8 { return e.nuc[v] }), nil
}

// EnhanceContrast runs CLAHE over the full 8 bits range.
func (e *Enhancer) EnhanceContrast(f *Frame) (*Frame, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	img, err := clahe.Apply(f.Gray, e.settings.ClipLimit, e.settings.Tiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &Frame{Gray: img}, nil
}

// Process runs the whole pipeline on a raw frame: non-uniformity correction
// then contrast enhancement.
func (e *Enhancer) Process(raw *Frame) (*Frame, error) {
	corrected, err := e.CorrectNonUniformity(raw)
	if err != nil {
		return nil, err
	}
	return e.EnhanceContrast(corrected)
}

// Adjust applies a manual adjustment to a raw frame.
//
// The brightness offset is added and clipped to [0, 255] first, then the
// result is multiplied by the contrast. The product is clamped to [0, 255]
// again and truncated toward zero.
func (e *Enhancer) Adjust(raw *Frame, a Adjustment) (*Frame, error) {
	if err := raw.validate(); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	// Offsets beyond ±255 saturate every sample anyway.
	b := a.Brightness
	if b < -255 {
		b = -255
	} else if b > 255 {
		b = 255
	}
	var table [256]uint8
	for i := range table {
		v := i + b
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		p := float64(v) * a.Contrast
		if p < 0 {
			p = 0
		} else if p > 255 {
			p = 255
		}
		table[i] = uint8(p)
	}
	return raw.mapSamples(func(v uint8) uint8 { return table[v] }), nil
}

// ApplyManualAdjustment adjusts the raw frame then runs Process on the result.
//
// With NoAdjustment, the result is identical to Process(raw).
func (e *Enhancer) ApplyManualAdjustment(raw *Frame, a Adjustment) (*Frame, error) {
	adjusted, err := e.Adjust(raw, a)
	if err != nil {
		return nil, err
	}
	return e.Process(adjusted)
}
