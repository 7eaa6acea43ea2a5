// Copyright 2016 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package main

import (
	"os"
	"time"

	"github.com/maruel/interrupt"
)

// watchFile calls onChange each time the modification time of fileName
// changes, until interrupted.
func watchFile(fileName string, onChange func()) error {
	var mod0 time.Time
	if fi, err := os.Stat(fileName); err == nil {
		mod0 = fi.ModTime()
	}
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-interrupt.Channel:
			return nil
		case <-t.C:
			if fi, err := os.Stat(fileName); err == nil && !fi.ModTime().Equal(mod0) {
				mod0 = fi.ModTime()
				onChange()
			}
		}
	}
}
