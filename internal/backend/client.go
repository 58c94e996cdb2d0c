/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend talks to the case-management API: search records, flyer
// documents, template assets and image uploads. The compositor treats every
// returned URL as an opaque reference.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flyerstudio/internal/compose"
	"flyerstudio/internal/domain"
)

// Client is a minimal HTTP client for the case-management API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a backend client. baseURL may include a trailing slash;
// it will be normalized.
func NewClient(baseURL string, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr io.Reader
	if body != nil {
		data, merr := json.Marshal(body)
		if merr != nil {
			return fmt.Errorf("marshal request: %w", merr)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// CaseRecord is the case projection the compositor reads.
type CaseRecord struct {
	MissingLastName     string `json:"missing_last_name"`
	MissingFirstName    string `json:"missing_first_name"`
	MissingMiddleName   string `json:"missing_middle_name"`
	MissingBirthdate    string `json:"missing_birthdate"`
	MissingSettlement   string `json:"missing_settlement"`
	MissingRegion       string `json:"missing_region"`
	MissingLastSeenAt   string `json:"missing_last_seen_datetime"`
	MissingLastSeenLoc  string `json:"missing_last_seen_place"`
	Circumstances       string `json:"disappearance_circumstances"`
	MissingDescription  string `json:"missing_description"`
	MissingClothing     string `json:"missing_clothing"`
	MissingBelongings   string `json:"missing_belongings"`
	MissingSpecialSigns string `json:"missing_special_signs"`
	MissingDiseases     string `json:"missing_diseases"`
}

// CaseData converts the wire record into composer input. Unparseable dates
// are treated as absent.
func (r CaseRecord) CaseData() compose.CaseData {
	return compose.CaseData{
		LastName:      r.MissingLastName,
		FirstName:     r.MissingFirstName,
		MiddleName:    r.MissingMiddleName,
		BirthDate:     parseWhen(r.MissingBirthdate),
		Settlement:    r.MissingSettlement,
		Region:        r.MissingRegion,
		LastSeenAt:    parseWhen(r.MissingLastSeenAt),
		LastSeenPlace: r.MissingLastSeenLoc,
		Circumstances: r.Circumstances,
		Description:   r.MissingDescription,
		Clothing:      r.MissingClothing,
		Belongings:    r.MissingBelongings,
		SpecialSigns:  r.MissingSpecialSigns,
		Diseases:      r.MissingDiseases,
	}
}

func parseWhen(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// SearchFull is a search record joined with its case and photos.
type SearchFull struct {
	ID     int64      `json:"id"`
	Case   CaseRecord `json:"case"`
	Photos []string   `json:"photos"`
}

// GetSearchFull fetches a search record with its case data.
func (c *Client) GetSearchFull(ctx context.Context, searchID int64) (*SearchFull, error) {
	var s SearchFull
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/searches/%d/full", searchID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Template is a background/logo asset served by the template service.
type Template struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"type"` // main, additional, logo
	FilePath string `json:"filePath"`
}

// ListTemplates returns the template assets of one kind.
func (c *Client) ListTemplates(ctx context.Context, kind string) ([]Template, error) {
	var list []Template
	path := "/orientation-templates?type=" + url.QueryEscape(kind)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Flyer is one persisted flyer record. CanvasData carries the full document.
type Flyer struct {
	ID            int64            `json:"id,omitempty"`
	SearchID      int64            `json:"search_id"`
	TemplateID    int64            `json:"template_id,omitempty"`
	CanvasData    *domain.Document `json:"canvas_data"`
	TextContent   string           `json:"text_content"`
	IsApproved    bool             `json:"is_approved"`
	ExportedFiles []string         `json:"exported_files"`
}

// FlyerFromDocument builds the wire payload for a document.
func FlyerFromDocument(doc *domain.Document) Flyer {
	f := Flyer{
		SearchID:      doc.SearchID,
		CanvasData:    doc,
		TextContent:   doc.Text.HTML,
		IsApproved:    doc.Approved,
		ExportedFiles: doc.Exported,
	}
	if doc.Template != nil {
		f.TemplateID = doc.Template.TemplateID
	}
	return f
}

// CreateFlyer persists a new flyer record and returns its id.
func (c *Client) CreateFlyer(ctx context.Context, f Flyer) (int64, error) {
	var created Flyer
	if err := c.doJSON(ctx, http.MethodPost, "/orientations", f, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdateFlyer overwrites an existing flyer record.
func (c *Client) UpdateFlyer(ctx context.Context, id int64, f Flyer) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/orientations/%d", id), f, nil)
}

// GetFlyer loads a flyer record.
func (c *Client) GetFlyer(ctx context.Context, id int64) (*Flyer, error) {
	var f Flyer
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/orientations/%d", id), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Upload sends one image to the upload service and returns its opaque URL.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/uploads", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload %s: %s", filename, resp.Status)
	}
	var urls []string
	if err := json.NewDecoder(resp.Body).Decode(&urls); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("upload %s: empty response", filename)
	}
	return urls[0], nil
}

// DeleteImage removes an uploaded image by its URL reference.
func (c *Client) DeleteImage(ctx context.Context, ref string) error {
	return c.doJSON(ctx, http.MethodDelete, "/uploads?url="+url.QueryEscape(ref), nil, nil)
}
