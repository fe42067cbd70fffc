// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

// mockGenerator is a configurable ImageGenerator for registry tests.
type mockGenerator struct {
	name  string
	model string
	url   string
	err  error

	mu    sync.Mutex
	calls []ImageRequest
}

func (m *mockGenerator) Name() string  { return m.name }
func (m *mockGenerator) Model() string { return m.model }

func (m *mockGenerator) GenerateImage(_ context.Context, req ImageRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	return m.url, m.err
}

func TestNewRegistry_SkipsProvidersWithoutKeys(t *testing.T) {
	reg := NewRegistry("jimeng", map[string]ProviderConfig{
		"jimeng":  {APIKey: "j-key"},
		"openai":  {APIKey: ""},
		"unknown": {APIKey: "x"},
	})

	if !reg.HasProvider("jimeng") {
		t.Error("jimeng should be available")
	}
	if reg.HasProvider("openai") {
		t.Error("openai has no key and should be skipped")
	}
	if reg.HasProvider("unknown") {
		t.Error("unknown provider names should be ignored")
	}
}

func TestRegistry_Available_Sorted(t *testing.T) {
	reg := NewRegistry("openai", map[string]ProviderConfig{
		"openai": {APIKey: "o"},
		"jimeng": {APIKey: "j"},
	})

	if got, want := reg.Available(), []string{"jimeng", "openai"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Available: got %v, want %v", got, want)
	}
}

func TestRegistry_Active_NotConfigured(t *testing.T) {
	reg := NewRegistry("jimeng", nil)

	_, err := reg.Active()
	if err == nil {
		t.Fatal("expected error for unconfigured active provider")
	}
	if !errors.Is(err, ErrNoProvider) || !strings.Contains(err.Error(), "jimeng") {
		t.Errorf("want ErrNoProvider naming jimeng, got %v", err)
	}

	if _, err := reg.GenerateImage(context.Background(), ImageRequest{Prompt: "p"}); err == nil {
		t.Error("GenerateImage should fail without an active provider")
	}
}

func TestRegistry_DefaultModel(t *testing.T) {
	reg := NewRegistry("openai", map[string]ProviderConfig{
		"jimeng": {APIKey: "j"},
		"openai": {APIKey: "o", Model: "gpt-image-1"},
	})
	if got := reg.DefaultModel(); got != "gpt-image-1" {
		t.Errorf("openai active: got %q", got)
	}

	reg = NewRegistry("jimeng", map[string]ProviderConfig{"jimeng": {APIKey: "j"}})
	if got := reg.DefaultModel(); got != DefaultJimengModel {
		t.Errorf("jimeng active: got %q, want %q", got, DefaultJimengModel)
	}

	reg = NewRegistry("openai", nil)
	if got := reg.DefaultModel(); got != "" {
		t.Errorf("unconfigured: got %q, want empty", got)
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := NewRegistry("jimeng", map[string]ProviderConfig{"jimeng": {APIKey: "k"}})
	reg.Register("jimeng", &mockGenerator{name: "jimeng", url: "mocked"})

	url, err := reg.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if url != "mocked" {
		t.Errorf("url: got %q, want the registered mock", url)
	}
	if reg.ActiveName() != "jimeng" {
		t.Errorf("ActiveName: got %q", reg.ActiveName())
	}
}

func TestRegistry_GenerateImage_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	reg := NewRegistry("mock", nil)
	m := &mockGenerator{name: "mock", err: want}
	reg.Register("mock", m)

	req := ImageRequest{Prompt: "p", Model: "m", Style: "s", Ratio: "1:1"}
	if _, err := reg.GenerateImage(context.Background(), req); !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
	if len(m.calls) != 1 || m.calls[0] != req {
		t.Errorf("calls: got %+v", m.calls)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry("a", nil)
	reg.Register("a", &mockGenerator{name: "a", url: "a"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Register("b", &mockGenerator{name: "b", url: "b"})
			reg.HasProvider("b")
		}()
		go func() {
			defer wg.Done()
			reg.GenerateImage(context.Background(), ImageRequest{Prompt: "p"})
			reg.Available()
		}()
	}
	wg.Wait()
}

func TestPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no provider", fmt.Errorf("%w: %q", ErrNoProvider, "jimeng"), true},
		{"bad request", &APIError{Provider: "jimeng", Status: 400}, true},
		{"bad key", fmt.Errorf("frame 2: %w", &APIError{Provider: "openai", Status: 401}), true},
		{"rate limited", &APIError{Provider: "jimeng", Status: 429}, false},
		{"request timeout", &APIError{Provider: "jimeng", Status: 408}, false},
		{"server error", &APIError{Provider: "jimeng", Status: 502}, false},
		{"network", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Permanent(tt.err); got != tt.want {
				t.Errorf("Permanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
