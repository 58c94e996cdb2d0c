/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compose derives the initial rich-text block of a flyer from case
// data. It runs once, when a new flyer is created from a search record, and
// never touches a document that already carries text.
package compose

import (
	"fmt"
	"html"
	"strings"
	"time"

	"flyerstudio/internal/domain"
)

// CaseData is the subset of a missing-person case the composer reads.
// Optional fields are empty strings or nil times.
type CaseData struct {
	LastName      string
	FirstName     string
	MiddleName    string
	BirthDate     *time.Time
	Settlement    string
	Region        string
	LastSeenAt    *time.Time
	LastSeenPlace string
	Circumstances string
	Description   string
	Clothing      string
	Belongings    string
	SpecialSigns  string
	Diseases      string
}

// Age computes the person's age as a plain year difference. Month and day are
// deliberately not considered; this matches the established flyer wording.
func Age(birth, now time.Time) int { return now.Year() - birth.Year() }

const (
	nameStyle    = "color: #FF0000; font-size: 60px; text-decoration: underline; font-weight: bold; margin-top: -30px; margin-bottom: 25px; line-height: 0.8;"
	bodyStyle    = "font-size: 35px; font-weight: bold; letter-spacing: -0.05em; line-height: 1.0;"
	medicalStyle = "color: #800020; font-size: 37px; font-weight: bold; text-decoration: underline; letter-spacing: -0.05em; line-height: 1.1;"
)

// BuildHTML renders the fixed flyer text hierarchy: the name line largest and
// red, the body lines bold, and medical notes in the distinct warning color.
func BuildHTML(c CaseData, now time.Time) string {
	full := strings.TrimSpace(c.LastName + " " + c.FirstName + " " + c.MiddleName)
	if c.BirthDate != nil {
		full = fmt.Sprintf("%s, %d років", full, Age(*c.BirthDate, now))
	}

	lastSeen := "не вказано"
	if c.LastSeenAt != nil {
		lastSeen = c.LastSeenAt.Format("02.01.2006, 15:04:05")
	}

	var b strings.Builder
	b.WriteString(`<div style="text-align: center;">` + "\n")
	line(&b, nameStyle, full)
	line(&b, bodyStyle, "Мешканець: "+strings.TrimSpace(c.Settlement+" "+c.Region))
	line(&b, bodyStyle, "Дата та час зникнення: "+lastSeen)
	line(&b, bodyStyle, "Місце зникнення: "+c.LastSeenPlace)
	line(&b, bodyStyle, "Обставини: "+c.Circumstances)
	line(&b, bodyStyle, "Прикмети: "+c.Description)
	line(&b, bodyStyle, "Одяг: "+c.Clothing)
	line(&b, bodyStyle, "З собою: "+c.Belongings)
	line(&b, bodyStyle, "Особливі прикмети: "+c.SpecialSigns)
	line(&b, medicalStyle, c.Diseases)
	b.WriteString(`</div>`)
	return b.String()
}

func line(b *strings.Builder, style, text string) {
	fmt.Fprintf(b, `<div style="%s">%s</div>`+"\n", style, html.EscapeString(text))
}

// Apply populates a freshly created document from case data: the text block
// gets the composed HTML and the city label defaults to the settlement.
// A document that already carries text is left untouched, so loaded or
// duplicated flyers are never overwritten.
func Apply(d *domain.Document, c CaseData, now time.Time) bool {
	if strings.TrimSpace(d.Text.HTML) != "" {
		return false
	}
	d.Text.HTML = BuildHTML(c, now)
	if c.Settlement != "" {
		d.City.Text = c.Settlement
	}
	return true
}
