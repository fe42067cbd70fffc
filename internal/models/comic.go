// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ComicFrame is one generated panel of a comic.
type ComicFrame struct {
	Frame       int    `json:"frame"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Comic is the persisted result of a successful generation run. It is
// written once and never modified.
type Comic struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	Story     string       `json:"story"`
	Frames    []ComicFrame `json:"images"`
	Model     string       `json:"model"`
	Style     string       `json:"style"`
	Ratio     string       `json:"ratio"`
	AuthorID  uuid.UUID    `json:"authorId"`
	CreatedAt time.Time    `json:"createdAt"`
}

// URLs returns the frame image URLs in frame order.
func (c *Comic) URLs() []string {
	urls := make([]string, len(c.Frames))
	for i, f := range c.Frames {
		urls[i] = f.URL
	}
	return urls
}
