// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package leptontest implements a fake Lepton implementation.
package leptontest

import (
	"image"
	"math/rand"
	"time"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/devices/lepton"
	"periph.io/x/periph/devices/lepton/image14bit"
)

// LeptonFake is a fake for lepton.Dev.
//
// It renders a few hot and cold spots drifting slowly over a background
// centered on 8192, the value of a scene at the camera body temperature.
type LeptonFake struct {
	// Delay is the time NextFrame blocks to simulate the camera frame rate.
	Delay time.Duration

	noise    *noise
	frames   uint32
	start    time.Time
	lastFFC  time.Time
	ffcCount int
}

// New returns a mock for lepton.Dev. The content is deterministic.
func New() *LeptonFake {
	now := time.Now().UTC()
	// ~9hz
	return &LeptonFake{Delay: 111 * time.Millisecond, noise: makeNoise(), start: now, lastFFC: now}
}

func (l *LeptonFake) NextFrame(img *lepton.Frame) error {
	if l.Delay != 0 {
		time.Sleep(l.Delay)
	}
	l.frames++
	img.Metadata.FrameCount = l.frames
	img.Metadata.SinceStartup = time.Now().UTC().Sub(l.start)
	img.Metadata.FFCSince = time.Now().UTC().Sub(l.lastFFC)
	img.Metadata.Temp = physic.ZeroCelsius + 30*physic.Celsius
	img.Metadata.TempHousing = physic.ZeroCelsius + 27*physic.Celsius
	l.noise.update()
	l.noise.render(img)
	return nil
}

func (l *LeptonFake) Bounds() image.Rectangle {
	return image.Rect(0, 0, 80, 60)
}

func (l *LeptonFake) Halt() error {
	return nil
}

func (l *LeptonFake) GetSerial() (uint64, error) {
	return 0x1234, nil
}

func (l *LeptonFake) GetUptime() (time.Duration, error) {
	return time.Now().UTC().Sub(l.start), nil
}

func (l *LeptonFake) GetTemp() (physic.Temperature, error) {
	return physic.ZeroCelsius + 30*physic.Celsius, nil
}

func (l *LeptonFake) GetTempHousing() (physic.Temperature, error) {
	return physic.ZeroCelsius + 27*physic.Celsius, nil
}

// RunFFC simulates a Flat-Field Correction; it resets the drift of the fake
// scene.
func (l *LeptonFake) RunFFC() error {
	l.lastFFC = time.Now().UTC()
	l.ffcCount++
	l.noise = makeNoise()
	return nil
}

// FFCCount returns the number of times RunFFC was called.
func (l *LeptonFake) FFCCount() int {
	return l.ffcCount
}

//

type vector struct {
	intensity float64
	x         float64
	y         float64
}

// noise is cheezy but gets us going for testing without a device.
type noise struct {
	rand    *rand.Rand
	vectors []vector
}

func makeNoise() *noise {
	n := &noise{rand: rand.New(rand.NewSource(0))}
	n.vectors = make([]vector, 10)
	for i := range n.vectors {
		n.vectors[i].intensity = n.rand.NormFloat64() * 10
		n.vectors[i].x = n.rand.NormFloat64()*14 + 40
		n.vectors[i].y = n.rand.NormFloat64()*10 + 30
	}
	return n
}

func (n *noise) update() {
	for i := range n.vectors {
		n.vectors[i].intensity += n.rand.NormFloat64() * 0.1
		n.vectors[i].x += n.rand.NormFloat64() * 0.1
		n.vectors[i].y += n.rand.NormFloat64() * 0.1
	}
}

func (n *noise) render(f *lepton.Frame) {
	avg := int32(0)
	dynamicRange := 128
	b := f.Bounds()
	for y := 0; y < b.Dy(); y++ {
		fy := float64(y)
		for x := 0; x < b.Dx(); x++ {
			fx := float64(x)
			value := float64(8192)
			for _, vect := range n.vectors {
				distance := ((vect.x-fx)*(vect.x-fx) + (vect.y-fy)*(vect.y-fy))
				if distance < 1 {
					distance = 1
				}
				value += vect.intensity / distance
			}
			if value >= float64(8192+dynamicRange) {
				value = float64(8192 + dynamicRange)
			}
			if value < float64(8192-dynamicRange) {
				value = float64(8192 - dynamicRange)
			}
			f.SetIntensity14(b.Min.X+x, b.Min.Y+y, image14bit.Intensity14(value))
			avg += int32(value)
		}
	}
	f.Metadata.AvgValue = uint16(avg / int32(b.Dx()*b.Dy()))
}
