// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/maruel/go-thermal/api"
	"github.com/maruel/go-thermal/frameio"
	"github.com/maruel/go-thermal/thermal"
	"github.com/maruel/interrupt"
)

// maxBatch is the maximum number of frames sent in one request.
const maxBatch = 30

// Seeder pushes enhanced frames to a remote collector.
type Seeder struct {
	config seederConfig
	client *http.Client
	c      chan api.PushRequestItem

	mu    sync.Mutex
	stats SeederStats
}

type seederConfig struct {
	ID     int64
	Secret []byte
	Server string // Base URL, e.g. https://example.com
}

type SeederStats struct {
	ImgsSent    int
	ImgsDropped int
	HTTPReqs    int
	HTTPFails   int
}

func (s *seederConfig) isValid() bool {
	return s.ID != 0 && len(s.Secret) != 0 && len(s.Server) != 0
}

// newSeeder returns nil if the config is incomplete.
func newSeeder(config seederConfig) *Seeder {
	if !config.isValid() {
		return nil
	}
	return &Seeder{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		c:      make(chan api.PushRequestItem, 9*5),
	}
}

func (s *Seeder) Stats() SeederStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Push queues a frame. It never blocks; frames are dropped when the collector
// is too slow.
func (s *Seeder) Push(f *thermal.Frame, a thermal.Adjustment) {
	var w bytes.Buffer
	if err := frameio.Encode(&w, f, frameio.PNG); err != nil {
		log.Printf("seeder: %s", err)
		return
	}
	select {
	case s.c <- api.PushRequestItem{Timestamp: time.Now().UTC(), PNG: w.Bytes(), Adjustment: a}:
	default:
		s.mu.Lock()
		s.stats.ImgsDropped++
		s.mu.Unlock()
	}
}

// run sends the queued frames until interrupted.
func (s *Seeder) run() {
	log.Printf("Sending to %s as ID %d", s.config.Server, s.config.ID)
	items := make([]api.PushRequestItem, 0, maxBatch)
	for {
		items = items[:0]
		select {
		case i := <-s.c:
			items = append(items, i)
		case <-interrupt.Channel:
			return
		}
		// Do not send more than maxBatch images at a time.
		for loop := true; loop && len(items) < maxBatch; {
			select {
			case i := <-s.c:
				items = append(items, i)
			default:
				loop = false
			}
		}
		err := s.send(items)
		s.mu.Lock()
		s.stats.HTTPReqs++
		if err != nil {
			s.stats.HTTPFails++
			log.Printf("Failed to post images: %s", err)
		} else {
			s.stats.ImgsSent += len(items)
		}
		s.mu.Unlock()
	}
}

func (s *Seeder) send(items []api.PushRequestItem) error {
	req := &api.PushRequest{ID: s.config.ID, Secret: s.config.Secret, Items: items}
	var w bytes.Buffer
	if err := json.NewEncoder(&w).Encode(req); err != nil {
		return err
	}
	resp, err := s.client.Post(s.config.Server+api.PushPath, "application/json", &w)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("collector returned %s", resp.Status)
	}
	return nil
}
