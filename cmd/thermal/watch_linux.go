// Copyright 2016 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"path/filepath"

	"github.com/maruel/interrupt"
	fsnotify "gopkg.in/fsnotify.v1"
)

// watchFile calls onChange each time fileName is written or replaced, until
// interrupted.
//
// The directory is watched instead of the file since editors commonly replace
// the file with a rename.
func watchFile(fileName string, onChange func()) error {
	fileName, err := filepath.Abs(fileName)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err = watcher.Add(filepath.Dir(fileName)); err != nil {
		return err
	}
	for {
		select {
		case <-interrupt.Channel:
			return nil
		case err = <-watcher.Errors:
			return err
		case e := <-watcher.Events:
			if filepath.Clean(e.Name) == fileName && e.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				onChange()
			}
		}
	}
}
