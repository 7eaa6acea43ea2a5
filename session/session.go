// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package session keeps the state of an interactive enhancement session: the
// last raw frame, the last enhanced frame and the current manual adjustment.
//
// All methods are safe for concurrent use; updates are serialized.
package session

import (
	"errors"
	"sync"

	"github.com/maruel/go-thermal/thermal"
)

// ErrNoFrame is returned when no frame was loaded yet.
var ErrNoFrame = errors.New("no frame loaded")

// Session holds the frames of the current processing cycle.
type Session struct {
	enhancer *thermal.Enhancer

	mu         sync.Mutex
	raw        *thermal.Frame
	enhanced   *thermal.Frame
	adjustment thermal.Adjustment
	generation int
}

// New returns an empty session.
func New(e *thermal.Enhancer) *Session {
	return &Session{enhancer: e, adjustment: thermal.NoAdjustment}
}

// Enhancer returns the enhancer used by this session.
func (s *Session) Enhancer() *thermal.Enhancer {
	return s.enhancer
}

// Load replaces the raw frame, resets the adjustment and processes the frame.
//
// On error, the session is left unchanged.
func (s *Session) Load(raw *thermal.Frame) (*thermal.Frame, error) {
	enhanced, err := s.enhancer.Process(raw)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw.Clone()
	s.enhanced = enhanced
	s.adjustment = thermal.NoAdjustment
	s.generation++
	return enhanced, nil
}

// Feed replaces the raw frame and keeps the current adjustment. It is meant
// for live sources, where a new frame arrives at each camera tick.
func (s *Session) Feed(raw *thermal.Frame) (*thermal.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enhanced, err := s.enhancer.ApplyManualAdjustment(raw, s.adjustment)
	if err != nil {
		return nil, err
	}
	s.raw = raw.Clone()
	s.enhanced = enhanced
	s.generation++
	return enhanced, nil
}

// Adjust sets the manual adjustment and recomputes the enhanced frame from the
// raw one.
func (s *Session) Adjust(a thermal.Adjustment) (*thermal.Frame, error) {
	return s.update(func(cur *thermal.Adjustment) { *cur = a })
}

// SetBrightness changes the brightness and keeps the current contrast.
func (s *Session) SetBrightness(brightness int) (*thermal.Frame, error) {
	return s.update(func(cur *thermal.Adjustment) { cur.Brightness = brightness })
}

// SetContrastPercent changes the contrast and keeps the current brightness.
func (s *Session) SetContrastPercent(percent int) (*thermal.Frame, error) {
	return s.update(func(cur *thermal.Adjustment) { cur.Contrast = float64(percent) / 100 })
}

func (s *Session) update(edit func(*thermal.Adjustment)) (*thermal.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, ErrNoFrame
	}
	a := s.adjustment
	edit(&a)
	enhanced, err := s.enhancer.ApplyManualAdjustment(s.raw, a)
	if err != nil {
		return nil, err
	}
	s.enhanced = enhanced
	s.adjustment = a
	s.generation++
	return enhanced, nil
}

// Adjustment returns the current manual adjustment.
func (s *Session) Adjustment() thermal.Adjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adjustment
}

// Raw returns the last loaded frame, or nil.
//
// The returned frame must not be modified.
func (s *Session) Raw() *thermal.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

// Enhanced returns the last enhanced frame, or nil.
//
// The returned frame must not be modified; it is replaced, never mutated, on
// each update.
func (s *Session) Enhanced() *thermal.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enhanced
}

// Generation is incremented each time the enhanced frame is replaced.
func (s *Session) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// TemperatureAt estimates the temperature at (x, y) in the last enhanced
// frame.
func (s *Session) TemperatureAt(x, y int) (thermal.Reading, error) {
	f := s.Enhanced()
	if f == nil {
		return thermal.Reading{}, ErrNoFrame
	}
	return s.enhancer.TemperatureAt(f, x, y)
}
