// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives URL-friendly slugs from tag, category and post names.
package slug

import (
	"regexp"
	"strings"
)

var (
	// whitespace matches any run of whitespace.
	whitespace = regexp.MustCompile(`\s+`)
	// disallowed matches anything that isn't an ASCII word character, a CJK
	// unified ideograph, or a hyphen.
	disallowed = regexp.MustCompile(`[^A-Za-z0-9_\x{4e00}-\x{9fff}-]`)
)

// Generate creates a slug from the given name. The result is a pure
// function of the input, so two records with the same name always share
// a slug.
// Example: "Go 并发 Notes!" → "go-并发-notes"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = whitespace.ReplaceAllString(result, "-")
	result = disallowed.ReplaceAllString(result, "")
	return result
}
