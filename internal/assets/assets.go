/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets fetches and decodes the images a flyer references and holds
// them in an in-memory cache for the lifetime of an editing session. The
// rasterizer calls LoadAll as an explicit barrier: every image is fetched and
// decoded before any drawing starts.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	applog "flyerstudio/internal/log"
)

// Fetcher resolves an opaque image reference to raw encoded bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// HTTPFetcher fetches image references over HTTP. Relative references are
// resolved against BaseURL; an optional bearer token is attached.
type HTTPFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPFetcher returns a fetcher with a sane default timeout.
func NewHTTPFetcher(baseURL, token string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	url := ref
	if len(ref) > 0 && ref[0] == '/' {
		url = f.BaseURL + ref
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image %s: status %d", ref, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", ref, err)
	}
	return data, nil
}

// MemFetcher serves images from a map. Test double and offline workspace use.
type MemFetcher map[string][]byte

func (m MemFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	b, ok := m[ref]
	if !ok {
		return nil, fmt.Errorf("no such image: %s", ref)
	}
	return b, nil
}

// Cache decodes fetched images once and keeps them keyed by reference.
type Cache struct {
	fetcher Fetcher

	mu     sync.Mutex
	images map[string]image.Image
}

// NewCache wraps a fetcher with decode caching.
func NewCache(f Fetcher) *Cache {
	return &Cache{fetcher: f, images: map[string]image.Image{}}
}

// Get returns the decoded image for ref, fetching on first use.
func (c *Cache) Get(ctx context.Context, ref string) (image.Image, error) {
	c.mu.Lock()
	if img, ok := c.images[ref]; ok {
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	data, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", ref, err)
	}
	c.mu.Lock()
	c.images[ref] = img
	c.mu.Unlock()
	return img, nil
}

// Lookup returns a previously loaded image without fetching.
func (c *Cache) Lookup(ref string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[ref]
	return img, ok
}

// LoadAll fetches and decodes every reference before returning: the load
// barrier in front of a capture. A reference that fails to load is logged
// and omitted from the result; the capture then skips that region instead of
// aborting. The returned map holds only the successfully decoded images.
func (c *Cache) LoadAll(ctx context.Context, refs []string) map[string]image.Image {
	log := applog.WithComponent("assets")
	var wg sync.WaitGroup
	var mu sync.Mutex
	out := make(map[string]image.Image, len(refs))
	seen := map[string]bool{}
	for _, ref := range refs {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		wg.Add(1)
		go func(ref string) {
			defer wg.Done()
			img, err := c.Get(ctx, ref)
			if err != nil {
				log.Warn("image failed to load, region will be skipped", "ref", ref, "error", err)
				return
			}
			mu.Lock()
			out[ref] = img
			mu.Unlock()
		}(ref)
	}
	wg.Wait()
	return out
}
