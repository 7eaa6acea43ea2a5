// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maruel/go-thermal/thermal"
)

// Config is stored as JSON in ~/.config/thermal/thermal.json.
type Config struct {
	Settings thermal.Settings
	Seeder   seederConfig
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "thermal.json"
	}
	return filepath.Join(dir, "thermal", "thermal.json")
}

// loadConfig reads the config file. A missing file returns the defaults;
// missing keys keep their default value.
func loadConfig(path string) (*Config, error) {
	c := &Config{Settings: thermal.DefaultSettings}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%s is invalid json: %v", path, err)
	}
	if err := c.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return c, nil
}

// save normalizes the config file; it is only written if the content changed.
func (c *Config) save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if src, err := os.ReadFile(path); err == nil && bytes.Equal(src, data) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
