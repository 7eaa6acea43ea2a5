// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package api defines the messages exchanged with a remote collector and with
// the web UI.
package api

import (
	"time"

	"github.com/maruel/go-thermal/thermal"
)

// PushPath is the collector endpoint receiving PushRequest.
const PushPath = "/api/thermal/v1/push"

// PushRequestItem is one enhanced frame.
type PushRequestItem struct {
	Timestamp  time.Time
	PNG        []byte
	Adjustment thermal.Adjustment
}

// PushRequest is sent as JSON to PushPath.
type PushRequest struct {
	ID     int64
	Secret []byte
	Items  []PushRequestItem
}

// TemperatureResponse is returned by the /temperature endpoint of the web
// server.
type TemperatureResponse struct {
	X          int
	Y          int
	Value      uint8 // Intensity in the enhanced frame.
	Celsius    float64
	Fahrenheit float64
	Kelvin     float64
	Reading    string // physic.Temperature formatted, e.g. "25.5°C".
	Width      int
	Height     int
	Unit       string
}

// NewTemperatureResponse converts a reading taken from a frame of the given
// size.
func NewTemperatureResponse(r thermal.Reading, width, height int) *TemperatureResponse {
	return &TemperatureResponse{
		X:          r.X,
		Y:          r.Y,
		Value:      r.Value,
		Celsius:    r.Celsius,
		Fahrenheit: r.Fahrenheit,
		Kelvin:     r.Kelvin(),
		Reading:    r.Temperature().String(),
		Width:      width,
		Height:     height,
		Unit:       "Celsius",
	}
}

// AdjustRequest is accepted by the /adjust endpoint of the web server. The
// contrast is in percent, like the slider of the UI.
type AdjustRequest struct {
	Brightness      int
	ContrastPercent int
}

// Adjustment converts the request.
func (a *AdjustRequest) Adjustment() thermal.Adjustment {
	return thermal.AdjustmentFromSliders(a.Brightness, a.ContrastPercent)
}

// ErrorResponse is returned on failure.
type ErrorResponse struct {
	Error string
}
