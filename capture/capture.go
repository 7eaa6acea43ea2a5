// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package capture grabs raw thermal frames from a FLIR Lepton.
//
// The 14 bits intensities are reduced to 8 bits with a linear AGC, which is
// the raw frame fed to the enhancement pipeline.
package capture

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/maruel/go-thermal/gray14"
	"github.com/maruel/go-thermal/thermal"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/devices/lepton"
	"periph.io/x/periph/devices/lepton/image14bit"
	"periph.io/x/periph/host"
)

// Camera is a FLIR Lepton. It is implemented by *lepton.Dev and by
// leptontest.LeptonFake.
type Camera interface {
	NextFrame(img *lepton.Frame) error
	Bounds() image.Rectangle
	RunFFC() error
}

// Querier reads the camera internal state over its command interface.
type Querier interface {
	GetSerial() (uint64, error)
	GetUptime() (time.Duration, error)
	GetTemp() (physic.Temperature, error)
	GetTempHousing() (physic.Temperature, error)
}

// Status is the camera internal state.
type Status struct {
	Serial      uint64
	Uptime      time.Duration
	Temp        physic.Temperature
	TempHousing physic.Temperature
}

// Query returns the camera internal state.
func Query(q Querier) (Status, error) {
	var s Status
	var err error
	if s.Serial, err = q.GetSerial(); err != nil {
		return s, err
	}
	if s.Uptime, err = q.GetUptime(); err != nil {
		return s, err
	}
	if s.Temp, err = q.GetTemp(); err != nil {
		return s, err
	}
	s.TempHousing, err = q.GetTempHousing()
	return s, err
}

// Capture reads frames from a Camera.
//
// It is not safe for concurrent use.
type Capture struct {
	cam   Camera
	frame lepton.Frame
}

// New returns a Capture reading from cam.
func New(cam Camera) *Capture {
	return &Capture{cam: cam, frame: lepton.Frame{Gray14: image14bit.NewGray14(cam.Bounds())}}
}

// Next blocks until the next frame is available and returns it as a raw 8
// bits frame along its metadata.
func (c *Capture) Next() (*thermal.Frame, lepton.Metadata, error) {
	if err := c.cam.NextFrame(&c.frame); err != nil {
		return nil, lepton.Metadata{}, err
	}
	return gray14.AGCLinear(c.frame.Gray14), c.frame.Metadata, nil
}

// RunFFC triggers the camera Flat-Field Correction, which is its own
// non-uniformity correction using the shutter.
func (c *Capture) RunFFC() error {
	return c.cam.RunFFC()
}

// Device is a Lepton connected to a SPI port and an I²C bus.
type Device struct {
	*lepton.Dev
	spiPort spi.PortCloser
	i2cBus  i2c.BusCloser
}

// Open initializes the host drivers and opens the Lepton. Empty names select
// the first bus available.
func Open(spiName, i2cName string) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	s, err := spireg.Open(spiName)
	if err != nil {
		return nil, fmt.Errorf("SPI port %q: %v", spiName, err)
	}
	i, err := i2creg.Open(i2cName)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("I²C bus %q: %v", i2cName, err)
	}
	dev, err := lepton.New(s, i)
	if err != nil {
		i.Close()
		s.Close()
		return nil, fmt.Errorf("%v\nIf testing without hardware, use -fake to simulate a camera", err)
	}
	log.Printf("lepton: %s on %s / %s", dev, s, i)
	return &Device{Dev: dev, spiPort: s, i2cBus: i}, nil
}

// Close halts the camera and closes the buses.
func (d *Device) Close() error {
	var errs []error
	if err := d.Dev.Halt(); err != nil {
		errs = append(errs, err)
	}
	if err := d.i2cBus.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.spiPort.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
