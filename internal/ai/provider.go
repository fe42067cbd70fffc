// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai provides a unified interface for calling external image
// generation APIs (Jimeng, OpenAI). Each provider implements the
// ImageGenerator interface, and the Registry selects the active one by name.
package ai

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrNoProvider is returned when the active provider has no API key.
var ErrNoProvider = errors.New("ai: image provider not configured")

// ImageRequest describes a single image to generate.
type ImageRequest struct {
	Prompt string
	Model  string
	Style  string
	Ratio  string // aspect ratio such as "16:9"
}

// ImageGenerator defines the interface that all image providers must
// implement. Each provider handles its own HTTP communication and response
// parsing.
type ImageGenerator interface {
	// GenerateImage creates one image for the request and returns the URL
	// the provider serves it from.
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)

	// Name returns the provider identifier (e.g., "jimeng", "openai").
	Name() string

	// Model returns the model used when a request names none.
	Model() string
}

// ProviderConfig is one provider's key, default model and API root.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Registry holds the image providers that have keys and routes calls to
// the active one. All methods are safe for concurrent use.
type Registry struct {
	active string

	mu        sync.RWMutex
	providers map[string]ImageGenerator
}

// NewRegistry builds the jimeng and openai providers whose configs carry an
// API key. Keyless and unknown names are left out, so asking for them later
// yields ErrNoProvider.
func NewRegistry(active string, configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]ImageGenerator),
		active:    active,
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "jimeng":
			r.providers[name] = newJimeng(cfg)
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		}
	}

	return r
}

// GenerateImage calls the active provider's GenerateImage method.
func (r *Registry) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	p, err := r.Active()
	if err != nil {
		return "", err
	}
	return p.GenerateImage(ctx, req)
}

// Active returns the currently active provider.
func (r *Registry) Active() (ImageGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProvider, r.active)
	}
	return p, nil
}

// DefaultModel returns the active provider's default model, or "" when
// the active provider is not configured.
func (r *Registry) DefaultModel() string {
	p, err := r.Active()
	if err != nil {
		return ""
	}
	return p.Model()
}

// ActiveName returns the name of the configured active provider, whether
// or not it has a key.
func (r *Registry) ActiveName() string {
	return r.active
}

// Available returns the sorted names of all providers that have API keys.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}

// Register adds or replaces a provider in the registry.
func (r *Registry) Register(name string, p ImageGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider reports whether name has a key.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}
