// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog article. Posts are never hard-deleted; DeletedAt marks a
// soft delete and every read path filters it out.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        *string    `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     *string    `json:"excerpt"`
	CoverImage  *string    `json:"coverImage"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	DeletedAt   *time.Time `json:"-"`
	AuthorID    *uuid.UUID `json:"authorId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Populated by the store on every read.
	Tags       []Tag      `json:"tags"`
	Categories []Category `json:"categories"`
}

// IsDeleted returns true if the post has been soft-deleted.
func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// PostDraft holds the editable fields of a post. It is used both for
// creation and for full-replacement updates.
type PostDraft struct {
	Title      string
	Slug       *string
	Content    string
	Excerpt    *string
	CoverImage *string
	Published  bool
	AuthorID   *uuid.UUID
	Tags       []string
	Categories []string
}

// PostStatus filters post listings by publish state.
type PostStatus string

const (
	PostStatusPublished PostStatus = "published"
	PostStatusDraft     PostStatus = "draft"
	PostStatusAll       PostStatus = "all"
)

// PostFilter narrows a post listing. Empty strings mean no filter.
type PostFilter struct {
	Status       PostStatus
	TagSlug      string
	CategorySlug string
	Limit        int
	Offset       int
}
