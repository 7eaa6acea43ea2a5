// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermal enhances 8 bits thermal frames and estimates the
// temperature of a pixel.
//
// The enhancement is done in two stages:
//   - Non-uniformity correction: a fixed gain compensating the sensor
//     response, saturating at 255.
//   - Contrast enhancement: Contrast Limited Adaptive Histogram Equalization.
//
// Everything in this package is a pure function of its inputs; frames passed
// in are never modified. Keeping the last raw and enhanced frames around is
// the caller's business, see package session.
package thermal

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/maruel/go-thermal/clahe"
)

var (
	// ErrInvalidInput is returned when a frame or a parameter is malformed,
	// for example an empty frame.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutOfRange is returned when a coordinate is outside the frame.
	ErrOutOfRange = errors.New("out of range")
)

// Settings are the enhancement parameters. They are fixed for the lifetime of
// an Enhancer.
type Settings struct {
	Gain             float64     // Non-uniformity correction multiplier.
	ClipLimit        float64     // CLAHE clip limit.
	Tiles            image.Point // CLAHE tile grid.
	ConversionFactor float64     // °C per intensity unit.
}

// DefaultSettings are the settings used by New.
var DefaultSettings = Settings{
	Gain:             1.2,
	ClipLimit:        clahe.DefaultClipLimit,
	Tiles:            clahe.DefaultTiles,
	ConversionFactor: 0.1,
}

// Validate returns ErrInvalidInput if a setting is unusable.
func (s *Settings) Validate() error {
	if !finite(s.Gain) || s.Gain <= 0 {
		return fmt.Errorf("%w: gain %g", ErrInvalidInput, s.Gain)
	}
	if !finite(s.ClipLimit) {
		return fmt.Errorf("%w: clip limit %g", ErrInvalidInput, s.ClipLimit)
	}
	if s.Tiles.X <= 0 || s.Tiles.Y <= 0 {
		return fmt.Errorf("%w: tile grid %dx%d", ErrInvalidInput, s.Tiles.X, s.Tiles.Y)
	}
	if !finite(s.ConversionFactor) || s.ConversionFactor <= 0 {
		return fmt.Errorf("%w: conversion factor %g", ErrInvalidInput, s.ConversionFactor)
	}
	return nil
}

// Adjustment is a manual brightness and contrast edit applied to the raw frame
// before the enhancement.
type Adjustment struct {
	Brightness int     // Offset added to each sample.
	Contrast   float64 // Multiplier applied after the offset.
}

// NoAdjustment leaves the raw frame as-is.
var NoAdjustment = Adjustment{Brightness: 0, Contrast: 1}

// AdjustmentFromSliders converts slider positions to an Adjustment. The
// contrast slider is in percent.
func AdjustmentFromSliders(brightness, contrastPercent int) Adjustment {
	return Adjustment{Brightness: brightness, Contrast: float64(contrastPercent) / 100}
}

// IsIdentity returns true if the adjustment doesn't change any sample.
func (a Adjustment) IsIdentity() bool {
	return a.Brightness == 0 && a.Contrast == 1
}

func (a Adjustment) validate() error {
	if !finite(a.Contrast) {
		return fmt.Errorf("%w: contrast %g", ErrInvalidInput, a.Contrast)
	}
	return nil
}

func (a Adjustment) String() string {
	return fmt.Sprintf("brightness %+d contrast %.2f", a.Brightness, a.Contrast)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
