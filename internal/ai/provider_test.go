// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestJimengLive tests the Jimeng provider against the real API.
// Skipped if JIMENG_API_KEY is not set.
func TestJimengLive(t *testing.T) {
	key := os.Getenv("JIMENG_API_KEY")
	if key == "" {
		t.Skip("JIMENG_API_KEY not set")
	}

	reg := NewRegistry("jimeng", map[string]ProviderConfig{
		"jimeng": {APIKey: key, BaseURL: os.Getenv("JIMENG_BASE_URL")},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	url, err := reg.GenerateImage(ctx, ImageRequest{Prompt: "漫画风格，一只猫坐在窗台上"})
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if url == "" {
		t.Fatal("GenerateImage returned empty URL")
	}

	t.Logf("Jimeng image: %s", url)
}

// TestOpenAILive tests the OpenAI provider against the real API.
// Skipped if OPENAI_API_KEY is not set.
func TestOpenAILive(t *testing.T) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	reg := NewRegistry("openai", map[string]ProviderConfig{
		"openai": {APIKey: key, Model: os.Getenv("OPENAI_IMAGE_MODEL")},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	url, err := reg.GenerateImage(ctx, ImageRequest{Prompt: "A cat sitting on a windowsill", Ratio: "1:1"})
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if url == "" {
		t.Fatal("GenerateImage returned empty URL")
	}

	t.Logf("OpenAI image: %s", url)
}
