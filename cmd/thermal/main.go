// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermal serves enhanced thermal frames over HTTP, with the estimated
// temperature under the mouse pointer.
//
// The frames come either from an image file, reloaded each time it changes,
// or from a FLIR Lepton.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"github.com/maruel/go-thermal/capture"
	"github.com/maruel/go-thermal/frameio"
	"github.com/maruel/go-thermal/leptontest"
	"github.com/maruel/go-thermal/session"
	"github.com/maruel/go-thermal/thermal"
	"github.com/maruel/interrupt"
)

// source feeds the session.
type source interface {
	run(s *WebServer, sess *session.Session, seeder *Seeder)
}

// fileSource loads an image file and reloads it when it changes.
type fileSource struct {
	path string
}

func (f *fileSource) load(s *WebServer, sess *session.Session, seeder *Seeder) error {
	raw, err := frameio.Load(f.path)
	if err != nil {
		return err
	}
	enhanced, err := sess.Load(raw)
	if err != nil {
		return err
	}
	log.Printf("Loaded %s: %dx%d", f.path, raw.Width(), raw.Height())
	s.AddFrame(enhanced, nil)
	if seeder != nil {
		seeder.Push(enhanced, sess.Adjustment())
	}
	return nil
}

func (f *fileSource) run(s *WebServer, sess *session.Session, seeder *Seeder) {
	err := watchFile(f.path, func() {
		if err := f.load(s, sess, seeder); err != nil {
			log.Printf("reload: %s", err)
		}
	})
	if err != nil {
		log.Printf("watch: %s", err)
	}
}

// cameraSource grabs frames continuously.
type cameraSource struct {
	c      *capture.Capture
	frames atomic.Int64
	fails  atomic.Int64
}

func (c *cameraSource) run(s *WebServer, sess *session.Session, seeder *Seeder) {
	for !interrupt.IsSet() {
		raw, meta, err := c.c.Next()
		if err != nil {
			c.fails.Add(1)
			log.Printf("capture: %s", err)
			time.Sleep(200 * time.Millisecond)
			continue
		}
		enhanced, err := sess.Feed(raw)
		if err != nil {
			log.Printf("process: %s", err)
			continue
		}
		c.frames.Add(1)
		s.AddFrame(enhanced, &meta)
		if seeder != nil {
			seeder.Push(enhanced, sess.Adjustment())
		}
	}
}

func mainImpl() error {
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	port := flag.Int("port", 8010, "http port to listen on")
	imagePath := flag.String("image", "", "image file to serve; it is reloaded when modified")
	fake := flag.Bool("fake", false, "use a fake camera instead of an image file or a real device")
	spiName := flag.String("spi", "", "SPI port to use")
	i2cName := flag.String("i2c", "", "I²C bus to use")
	ffc := flag.Bool("ffc", false, "trigger a Flat-Field Correction on the camera at startup")
	configPath := flag.String("config", defaultConfigPath(), "config file")
	writeConfig := flag.Bool("writeConfig", false, "write the config file with defaults filled in and exit")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *writeConfig {
		return config.save(*configPath)
	}
	if *imagePath != "" && *fake {
		return errors.New("use only one of -image or -fake")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()

	e, err := thermal.NewWithSettings(config.Settings)
	if err != nil {
		return err
	}
	sess := session.New(e)
	seeder := newSeeder(config.Seeder)

	var src source
	var file *fileSource
	var cam *cameraSource
	if *imagePath != "" {
		file = &fileSource{path: *imagePath}
		src = file
	} else {
		var c capture.Camera
		if *fake {
			c = leptontest.New()
		} else {
			dev, err := capture.Open(*spiName, *i2cName)
			if err != nil {
				return err
			}
			defer dev.Close()
			c = dev
		}
		cam = &cameraSource{c: capture.New(c)}
		if *ffc {
			if err := cam.c.RunFFC(); err != nil {
				return err
			}
		}
		src = cam
	}

	s := StartWebServer(*port, sess)
	if file != nil {
		if err := file.load(s, sess, nil); err != nil {
			return err
		}
	}
	if seeder != nil {
		go seeder.run()
	}
	go src.run(s, sess, seeder)

	fmt.Printf("Listening on %d\n", *port)
	for !interrupt.IsSet() {
		line := fmt.Sprintf("%d updates, %s", sess.Generation(), sess.Adjustment())
		if cam != nil {
			line += fmt.Sprintf(", %d frames %d fails", cam.frames.Load(), cam.fails.Load())
		}
		if seeder != nil {
			stats := seeder.Stats()
			line += fmt.Sprintf(", %d sent %d dropped %d HTTP fails", stats.ImgsSent, stats.ImgsDropped, stats.HTTPFails)
		}
		fmt.Printf("\r%s", line)
		time.Sleep(time.Second)
	}
	fmt.Print("\n")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermal: %s.\n", err)
		os.Exit(1)
	}
}
