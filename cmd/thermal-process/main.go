// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermal-process enhances a thermal image file.
//
// Optionally it adjusts the brightness and the contrast first, and prints the
// estimated temperature of a pixel of the enhanced image.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/maruel/go-thermal/frameio"
	"github.com/maruel/go-thermal/thermal"
)

// process loads in, enhances it and saves it to out if not empty.
func process(in, out string, a thermal.Adjustment) (*thermal.Frame, error) {
	raw, err := frameio.Load(in)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %s: %dx%d", in, raw.Width(), raw.Height())
	e := thermal.New()
	var enhanced *thermal.Frame
	if a.IsIdentity() {
		enhanced, err = e.Process(raw)
	} else {
		log.Printf("Adjusting: %s", a)
		enhanced, err = e.ApplyManualAdjustment(raw, a)
	}
	if err != nil {
		return nil, err
	}
	if out != "" {
		if err := frameio.Save(out, enhanced); err != nil {
			return nil, err
		}
	}
	return enhanced, nil
}

// describe formats a reading like the status line of the viewer.
func describe(r thermal.Reading, f *thermal.Frame) string {
	return fmt.Sprintf("Temperature: %.2f °C | %.2f °F | Color: %d | Coordinates: (%d, %d) | Dimensions: %dx%d | Unit: Celsius",
		r.Celsius, r.Fahrenheit, r.Value, r.X, r.Y, f.Width(), f.Height())
}

func mainImpl() error {
	brightness := flag.Int("brightness", 0, "offset added to each sample before the enhancement")
	contrast := flag.Int("contrast", 100, "contrast in percent, applied after the brightness")
	x := flag.Int("x", -1, "column of the pixel to read the temperature of")
	y := flag.Int("y", -1, "row of the pixel to read the temperature of")
	out := flag.String("o", "", "path to the enhanced image to save; the format is deduced from the extension")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if flag.NArg() != 1 {
		return errors.New("supply path to the image to enhance")
	}
	probe := *x != -1 || *y != -1
	if *out == "" && !probe {
		return errors.New("supply -o, -x and -y, or both")
	}
	if *out != "" {
		if _, err := frameio.FormatFromPath(*out); err != nil {
			return err
		}
	}
	a := thermal.AdjustmentFromSliders(*brightness, *contrast)
	enhanced, err := process(flag.Arg(0), *out, a)
	if err != nil {
		return err
	}
	if probe {
		r, err := thermal.New().TemperatureAt(enhanced, *x, *y)
		if err != nil {
			return err
		}
		log.Printf("Reading: %s (%.2f K)", r.Temperature(), r.Kelvin())
		fmt.Println(describe(r, enhanced))
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermal-process: %s.\n", err)
		os.Exit(1)
	}
}
