// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermal-grab captures a single frame and saves it enhanced.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/maruel/go-thermal/capture"
	"github.com/maruel/go-thermal/frameio"
	"github.com/maruel/go-thermal/leptontest"
	"github.com/maruel/go-thermal/thermal"
	"github.com/maruel/interrupt"
	"periph.io/x/periph/devices/lepton"
)

// camera is what thermal-grab needs from the device.
type camera interface {
	capture.Camera
	capture.Querier
}

func printMeta(w io.Writer, m *lepton.Metadata, s *capture.Status) {
	fmt.Fprintf(w, "Serial:             0x%x\n", s.Serial)
	fmt.Fprintf(w, "Uptime:             %s\n", s.Uptime)
	fmt.Fprintf(w, "SinceStartup:       %s\n", m.SinceStartup)
	fmt.Fprintf(w, "FrameCount:         %d\n", m.FrameCount)
	fmt.Fprintf(w, "Temp:        %s\n", m.Temp)
	fmt.Fprintf(w, "TempHousing: %s\n", m.TempHousing)
	fmt.Fprintf(w, "FFCSince:           %s\n", m.FFCSince)
	fmt.Fprintf(w, "FFCDesired:         %t\n", m.FFCDesired)
	fmt.Fprintf(w, "Overtemp:           %t\n", m.Overtemp)
}

type options struct {
	ffc  bool // Run a Flat-Field Correction first.
	meta bool // Print the metadata to w.
	raw  bool // Save the raw frame.
}

// grab captures one frame from cam and saves it to out.
func grab(cam camera, out string, opts options, w io.Writer) error {
	c := capture.New(cam)
	if opts.ffc {
		if err := c.RunFFC(); err != nil {
			return err
		}
	}
	if interrupt.IsSet() {
		return errors.New("interrupted")
	}
	f, m, err := c.Next()
	if err != nil {
		return err
	}
	if opts.meta {
		s, err := capture.Query(cam)
		if err != nil {
			return err
		}
		printMeta(w, &m, &s)
	}
	if !opts.raw {
		if f, err = thermal.New().Process(f); err != nil {
			return err
		}
	}
	return frameio.Save(out, f)
}

func mainImpl() error {
	spiName := flag.String("spi", "", "SPI port to use")
	i2cName := flag.String("i2c", "", "I²C bus to use")
	fake := flag.Bool("fake", false, "use a fake camera")
	ffc := flag.Bool("ffc", false, "trigger a Flat-Field Correction before grabbing")
	meta := flag.Bool("meta", false, "print metadata")
	raw := flag.Bool("raw", false, "save the 8 bits raw frame instead of the enhanced one")
	out := flag.String("o", "", "path to the image to save; the format is deduced from the extension")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if *out == "" {
		return errors.New("supply -o path to the image to save")
	}
	// Fail early instead of after the capture.
	if _, err := frameio.FormatFromPath(*out); err != nil {
		return err
	}
	interrupt.HandleCtrlC()

	var cam camera
	if *fake {
		f := leptontest.New()
		f.Delay = 0
		cam = f
	} else {
		dev, err := capture.Open(*spiName, *i2cName)
		if err != nil {
			return err
		}
		defer dev.Close()
		cam = dev
	}
	return grab(cam, *out, options{ffc: *ffc, meta: *meta, raw: *raw}, os.Stdout)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermal-grab: %s.\n", err)
		os.Exit(1)
	}
}
