// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"fmt"

	"periph.io/x/periph/conn/physic"
)

// Reading is the estimated temperature of one pixel.
type Reading struct {
	X          int
	Y          int
	Value      uint8   // Sample in the enhanced frame.
	Celsius    float64 //
	Fahrenheit float64 //
}

// Temperature returns the reading as a physic.Temperature.
func (r Reading) Temperature() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(r.Celsius*float64(physic.Celsius))
}

// Kelvin returns the reading in kelvin, at the nano kelvin resolution of
// physic.Temperature.
func (r Reading) Kelvin() float64 {
	return float64(r.Temperature()) / float64(physic.Kelvin)
}

func (r Reading) String() string {
	return fmt.Sprintf("%.2f °C | %.2f °F", r.Celsius, r.Fahrenheit)
}

// TemperatureAt estimates the temperature at (x, y) in an enhanced frame.
//
// The estimate is linear in the sample value: Value * ConversionFactor °C.
func (e *Enhancer) TemperatureAt(f *Frame, x, y int) (Reading, error) {
	if err := f.validate(); err != nil {
		return Reading{}, err
	}
	v, err := f.Sample(x, y)
	if err != nil {
		return Reading{}, err
	}
	c := float64(v) * e.settings.ConversionFactor
	return Reading{X: x, Y: y, Value: v, Celsius: c, Fahrenheit: CelsiusToFahrenheit(c)}, nil
}

// CelsiusToFahrenheit converts °C to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}
