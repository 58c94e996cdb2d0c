/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFilename(t *testing.T) {
	when := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
	if got := Filename("Шевченко", when); got != "Шевченко_2026-09-01.jpg" {
		t.Fatalf("filename = %q", got)
	}
	if got := Filename("", when); got != "flyer_2026-09-01.jpg" {
		t.Fatalf("empty name fallback = %q", got)
	}
	if got := Filename("a/b:c", when); got != "abc_2026-09-01.jpg" {
		t.Fatalf("sanitize = %q", got)
	}
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 72, 128))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestWriteJPEGCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	path, err := WriteJPEG(dir, "x_2026-09-01.jpg", testJPEG(t))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("round trip: %v", err)
	}
}

func TestWritePDFEmbedsImage(t *testing.T) {
	dir := t.TempDir()
	path, err := WritePDF(dir, "x.pdf", testJPEG(t))
	if err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("not a pdf: %q", data[:8])
	}
	if !bytes.Contains(data, []byte("/DCTDecode")) {
		t.Fatalf("jpeg stream not embedded")
	}
}
