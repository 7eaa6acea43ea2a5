// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/maruel/go-thermal/api"
	"github.com/maruel/go-thermal/session"
	"github.com/maruel/go-thermal/thermal"
	"github.com/maruel/interrupt"
	"github.com/nfnt/resize"
	"golang.org/x/net/websocket"
	"periph.io/x/periph/devices/lepton"
)

// maxScale limits the upscaling of /enhanced.png.
const maxScale = 16

// frameInfo is sent along each frame on /stream.
type frameInfo struct {
	Timestamp  time.Time
	Generation int
	Adjustment thermal.Adjustment
	Lepton     *lepton.Metadata `json:",omitempty"`
}

type streamFrame struct {
	img  *thermal.Frame
	info frameInfo
}

type WebServer struct {
	sess    *session.Session
	handler http.Handler

	cond      sync.Cond
	frames    [9 * 10]streamFrame // 10 seconds worth of frames at 9fps.
	lastIndex int                 // Index of the most recent frame.
}

func newWebServer(sess *session.Session) *WebServer {
	s := &WebServer{
		sess:      sess,
		cond:      *sync.NewCond(&sync.Mutex{}),
		lastIndex: -1,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.root)
	mux.HandleFunc("/favicon.ico", s.enhanced)
	mux.HandleFunc("/raw.png", s.raw)
	mux.HandleFunc("/enhanced.png", s.enhanced)
	mux.HandleFunc("/temperature", s.temperature)
	mux.HandleFunc("/adjust", s.adjust)
	mux.Handle("/stream", websocket.Handler(s.stream))
	s.handler = loggingHandler{mux}
	return s
}

// StartWebServer starts listening on port in the background.
func StartWebServer(port int, sess *session.Session) *WebServer {
	s := newWebServer(sess)
	log.Printf("Listening on %d", port)
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), s.handler); err != nil {
			log.Printf("http: %s", err)
		}
	}()
	go func() {
		<-interrupt.Channel
		s.cond.Broadcast()
	}()
	return s
}

// AddFrame publishes an enhanced frame to the websocket streams.
func (s *WebServer) AddFrame(img *thermal.Frame, meta *lepton.Metadata) {
	info := frameInfo{
		Timestamp:  time.Now().UTC(),
		Generation: s.sess.Generation(),
		Adjustment: s.sess.Adjustment(),
		Lepton:     meta,
	}
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.lastIndex = (s.lastIndex + 1) % len(s.frames)
	s.frames[s.lastIndex] = streamFrame{img: img, info: info}
	s.cond.Broadcast()
}

var rootTmpl = template.Must(template.New("root").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>go-thermal</title>
	<style>
		img.large {
			width: 640px;
			height: auto;
			image-rendering: pixelated;
		}
	</style>
	<script>
	function reading(e) {
		var img = e.target;
		var x = Math.floor(e.offsetX * {{.Width}} / img.clientWidth);
		var y = Math.floor(e.offsetY * {{.Height}} / img.clientHeight);
		fetch("/temperature?x=" + x + "&y=" + y).then(r => r.json()).then(r => {
			var t = document.getElementById("reading");
			if (r.Error) {
				t.textContent = r.Error;
				return;
			}
			t.textContent = "Temperature: " + r.Celsius.toFixed(2) + " °C | " +
				r.Fahrenheit.toFixed(2) + " °F | Color: " + r.Value +
				" | Coordinates: (" + r.X + ", " + r.Y + ") | Dimensions: " +
				r.Width + "x" + r.Height + " | Unit: " + r.Unit;
		});
	}
	function adjust() {
		var b = parseInt(document.getElementById("brightness").value);
		var c = parseInt(document.getElementById("contrast").value);
		fetch("/adjust", {
			method: "POST",
			headers: {"Content-Type": "application/json"},
			body: JSON.stringify({Brightness: b, ContrastPercent: c}),
		}).then(reload);
	}
	function reload() {
		document.getElementById("enhanced").src = "/enhanced.png?t=" + new Date().getTime();
	}
	</script>
</head>
<body>
	<img class="large" id="enhanced" src="/enhanced.png" onmousemove="reading(event)"></img>
	<br>
	<span id="reading">Temperature:</span>
	<br>
	Brightness <input id="brightness" type="range" min="0" max="99" value="{{.Adjustment.Brightness}}" onchange="adjust()">
	Contrast <input id="contrast" type="range" min="0" max="200" value="{{.ContrastPercent}}" onchange="adjust()">
	<br>
	<a href="/raw.png">raw</a>
</body>
</html>`))

func (s *WebServer) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	f := s.sess.Enhanced()
	if f == nil {
		http.Error(w, session.ErrNoFrame.Error(), http.StatusServiceUnavailable)
		return
	}
	a := s.sess.Adjustment()
	data := struct {
		Width, Height   int
		Adjustment      thermal.Adjustment
		ContrastPercent int
	}{f.Width(), f.Height(), a, int(a.Contrast*100 + 0.5)}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rootTmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *WebServer) raw(w http.ResponseWriter, r *http.Request) {
	s.servePNG(w, s.sess.Raw(), 1)
}

// enhanced serves the last enhanced frame, optionally upscaled with
// ?scale=N.
func (s *WebServer) enhanced(w http.ResponseWriter, r *http.Request) {
	scale := 1
	if v := r.FormValue("scale"); v != "" {
		var err error
		if scale, err = strconv.Atoi(v); err != nil || scale < 1 || scale > maxScale {
			http.Error(w, fmt.Sprintf("scale must be between 1 and %d", maxScale), http.StatusBadRequest)
			return
		}
	}
	s.servePNG(w, s.sess.Enhanced(), scale)
}

func (s *WebServer) servePNG(w http.ResponseWriter, f *thermal.Frame, scale int) {
	if f == nil {
		http.Error(w, session.ErrNoFrame.Error(), http.StatusServiceUnavailable)
		return
	}
	var img image.Image = f.Gray
	if scale != 1 {
		img = resize.Resize(uint(f.Width()*scale), uint(f.Height()*scale), f.Gray, resize.NearestNeighbor)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	var buf bytes.Buffer
	if err := encodePNG(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(buf.Bytes())
}

func (s *WebServer) temperature(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.FormValue("x"))
	y, errY := strconv.Atoi(r.FormValue("y"))
	if errX != nil || errY != nil {
		errorJSON(w, errors.New("x and y must be integers"), http.StatusBadRequest)
		return
	}
	f := s.sess.Enhanced()
	if f == nil {
		errorJSON(w, session.ErrNoFrame, http.StatusServiceUnavailable)
		return
	}
	reading, err := s.sess.Enhancer().TemperatureAt(f, x, y)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, thermal.ErrOutOfRange) {
			status = http.StatusRequestedRangeNotSatisfiable
		}
		errorJSON(w, err, status)
		return
	}
	returnJSON(w, api.NewTemperatureResponse(reading, f.Width(), f.Height()))
}

// adjust accepts an api.AdjustRequest as JSON or as form values.
func (s *WebServer) adjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		errorJSON(w, errors.New("only POST is supported"), http.StatusMethodNotAllowed)
		return
	}
	req := api.AdjustRequest{ContrastPercent: 100}
	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		var err error
		if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
			errorJSON(w, err, http.StatusUnsupportedMediaType)
			return
		}
	}
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errorJSON(w, err, http.StatusBadRequest)
			return
		}
	} else {
		var err error
		if v := r.FormValue("brightness"); v != "" {
			if req.Brightness, err = strconv.Atoi(v); err != nil {
				errorJSON(w, err, http.StatusBadRequest)
				return
			}
		}
		if v := r.FormValue("contrast"); v != "" {
			if req.ContrastPercent, err = strconv.Atoi(v); err != nil {
				errorJSON(w, err, http.StatusBadRequest)
				return
			}
		}
	}
	enhanced, err := s.sess.Adjust(req.Adjustment())
	if err != nil {
		status := http.StatusBadRequest
		if err == session.ErrNoFrame {
			status = http.StatusServiceUnavailable
		}
		errorJSON(w, err, status)
		return
	}
	s.AddFrame(enhanced, nil)
	returnJSON(w, &req)
}

// stream sends all enhanced frames as WebSocket frames.
func (s *WebServer) stream(w *websocket.Conn) {
	log.Printf("websocket from %s", w.Request().RemoteAddr)
	defer w.Close()
	buf := &bytes.Buffer{}
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	lastIndex := s.lastIndex
	for !interrupt.IsSet() {
		s.cond.Wait()
		for !interrupt.IsSet() && lastIndex != s.lastIndex {
			lastIndex = (lastIndex + 1) % len(s.frames)
			frame := s.frames[lastIndex]
			s.cond.L.Unlock()
			// Do the actual I/O without the lock.
			err := writeFrame(w, buf, &frame)
			s.cond.L.Lock()
			// To break out of the loop, the lock must be held.
			if err != nil {
				log.Printf("websocket err: %s", err)
				return
			}
		}
	}
}

// writeFrame sends frame I for Image as base64 PNG followed by frame M for
// Metadata as JSON.
func writeFrame(w *websocket.Conn, buf *bytes.Buffer, f *streamFrame) error {
	buf.Reset()
	buf.WriteString("I")
	encoder := base64.NewEncoder(base64.StdEncoding, buf)
	if err := encodePNG(encoder, f.img.Gray); err != nil {
		return err
	}
	encoder.Close()
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	buf.Reset()
	buf.WriteString("M")
	if err := json.NewEncoder(buf).Encode(&f.info); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func encodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func returnJSON(w http.ResponseWriter, ret interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ret); err != nil {
		log.Printf("json: %s", err)
	}
}

func errorJSON(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(&api.ErrorResponse{Error: err.Error()}); err != nil {
		log.Printf("json: %s", err)
	}
}

// Private details.

type loggingHandler struct {
	handler http.Handler
}

type loggingResponseWriter struct {
	http.ResponseWriter
	length int
	status int
}

func (l *loggingResponseWriter) Write(data []byte) (size int, err error) {
	size, err = l.ResponseWriter.Write(data)
	l.length += size
	return
}

func (l *loggingResponseWriter) WriteHeader(status int) {
	l.ResponseWriter.WriteHeader(status)
	l.status = status
}

// Hijack is needed for websocket.
func (l *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := l.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// ServeHTTP logs each HTTP request if -v is passed.
func (l loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
	l.handler.ServeHTTP(lrw, r)
	log.Printf("%s - %3d %6db %4s %s\n", r.RemoteAddr, lrw.status, lrw.length, r.Method, r.RequestURI)
}
