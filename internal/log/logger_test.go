/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"log/slog"
	"testing"
)

func TestInitAndComponentLogger(t *testing.T) {
	Init(Options{Level: "debug", Format: "console"})
	l := WithComponent("test")
	if l == nil {
		t.Fatalf("WithComponent returned nil")
	}
	l = WithOperation(l, "unit")
	l.Debug("hello", slog.Int("n", 1))
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := parseLevel("bogus"); lvl != slog.LevelInfo {
		t.Fatalf("unexpected level for bogus input: %v", lvl)
	}
	if lvl := parseLevel("warn"); lvl != slog.LevelWarn {
		t.Fatalf("unexpected warn level: %v", lvl)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	opts := FromEnv()
	if opts.Level == "" || opts.Format == "" {
		t.Fatalf("FromEnv returned empty defaults: %+v", opts)
	}
}
