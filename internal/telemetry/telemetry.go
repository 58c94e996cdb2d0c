/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry reports a handful of anonymous usage signals: flyer
// exports, flyer publishes, and crash reports. Strictly opt-in; without an
// endpoint configured every call is a no-op, and no case data ever leaves the
// machine.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "flyerstudio/internal/log"
	"flyerstudio/internal/version"
)

// Config holds runtime configuration for telemetry and crash uploads.
//
// Environment variables (read by FromEnv):
// - FLS_TELEMETRY_OPT_IN: "1", "true", "yes" to enable metrics
// - FLS_TELEMETRY_URL: base URL to POST JSON events to
// - FLS_CRASH_UPLOAD_URL: URL to POST crash reports to
// - FLS_TELEMETRY_TIMEOUT_MS: optional request timeout, default 1500ms
// - FLS_TELEMETRY_DEBUG: if set, logs event send attempts
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("FLS_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("FLS_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("FLS_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("FLS_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("FLS_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// event is one usage signal. The two kinds mirror the two flyer lifecycle
// actions worth counting.
type event struct {
	kind  string
	props map[string]any
}

// Client sends events asynchronously through a bounded queue; it drops on
// errors or backpressure and never blocks the caller.
type Client struct {
	cfg   Config
	log   *slog.Logger
	http  *http.Client
	queue chan event
	stop  chan struct{}
	once  sync.Once
}

var defaultClient *Client
var defaultOnce sync.Once

// InitDefault initializes the package-level default client from env when first used.
func InitDefault() {
	defaultOnce.Do(func() {
		NewDefault(FromEnv())
	})
}

// NewDefault creates and installs the default client with cfg.
func NewDefault(cfg Config) {
	defaultClient = New(cfg)
}

// New constructs a client.
func New(cfg Config) *Client {
	c := &Client{
		cfg:   cfg,
		log:   applog.WithComponent("telemetry"),
		http:  &http.Client{Timeout: cfg.Timeout},
		queue: make(chan event, 64),
		stop:  make(chan struct{}),
	}
	go c.run()
	return c
}

// Enabled reports whether anonymous telemetry is enabled and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether anonymous telemetry is enabled using the default client.
func Enabled() bool {
	InitDefault()
	return defaultClient.Enabled()
}

// Exported counts one local flyer export. format is "render" or "pdf".
func (c *Client) Exported(format string) {
	c.enqueue(event{kind: "flyer_exported", props: map[string]any{"format": format}})
}

// Published counts one publish to the backend, noting whether the image
// upload degraded.
func (c *Client) Published(degraded bool) {
	c.enqueue(event{kind: "flyer_published", props: map[string]any{"degraded": degraded}})
}

// Exported counts a flyer export on the default client.
func Exported(format string) { InitDefault(); defaultClient.Exported(format) }

// Published counts a flyer publish on the default client.
func Published(degraded bool) { InitDefault(); defaultClient.Published(degraded) }

func (c *Client) enqueue(ev event) {
	if !c.Enabled() {
		return
	}
	select {
	case c.queue <- ev:
	default:
		// full queue drops the signal, never the caller
	}
}

// Flush waits briefly for the queue to drain.
func (c *Client) Flush(ctx context.Context) {
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		if len(c.queue) == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Close stops the background goroutine.
func (c *Client) Close() { c.once.Do(func() { close(c.stop) }) }

func (c *Client) run() {
	for {
		select {
		case <-c.stop:
			return
		case ev := <-c.queue:
			c.send(ev)
		}
	}
}

func (c *Client) send(ev event) {
	body := map[string]any{
		"app":     "flyerstudio",
		"name":    ev.kind,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range ev.props {
		body[k] = v
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, c.cfg.EventsURL, bytes.NewReader(buf))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry event sent", slog.String("name", ev.kind))
	}
}

// UploadCrash posts an already-serialized crash report to the configured crash
// URL if opt-in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	go func(b []byte) {
		req, err := http.NewRequest(http.MethodPost, c.cfg.CrashURL, bytes.NewReader(b))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		resp, err := c.http.Do(req)
		if err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		_ = resp.Body.Close()
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}(append([]byte(nil), report...))
}

// UploadCrash using default client.
func UploadCrash(report []byte) { InitDefault(); defaultClient.UploadCrash(report) }
