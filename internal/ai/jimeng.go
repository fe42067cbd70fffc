package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Defaults applied when a request leaves a field empty.
const (
	DefaultJimengModel = "jimeng-v1.4"
	DefaultStyle       = "anime"
	DefaultRatio       = "16:9"
)

// jimengProvider implements ImageGenerator using the Jimeng image API
// (POST /image/generate).
type jimengProvider struct {
	config ProviderConfig
	client *http.Client
}

func newJimeng(cfg ProviderConfig) *jimengProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.jimeng.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultJimengModel
	}
	return &jimengProvider{
		config: cfg,
		// Image generation is slow; the request context bounds it further.
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *jimengProvider) Name() string  { return "jimeng" }
func (p *jimengProvider) Model() string { return p.config.Model }

type jimengRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Style  string `json:"style"`
	Ratio  string `json:"ratio"`
	N      int    `json:"n"`
}

type jimengResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// GenerateImage asks Jimeng for exactly one image.
func (p *jimengProvider) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	body := jimengRequest{
		Prompt: req.Prompt,
		Model:  orDefault(req.Model, p.config.Model),
		Style:  orDefault(req.Style, DefaultStyle),
		Ratio:  orDefault(req.Ratio, DefaultRatio),
		N:      1,
	}

	var result jimengResponse
	if err := postJSON(ctx, p.client, "jimeng", p.config.BaseURL+"/image/generate", p.config.APIKey, body, &result); err != nil {
		return "", err
	}

	if len(result.Images) == 0 || result.Images[0].URL == "" {
		return "", fmt.Errorf("jimeng: no images returned")
	}
	return result.Images[0].URL, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
