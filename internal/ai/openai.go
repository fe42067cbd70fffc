package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// openAIProvider implements ImageGenerator using the OpenAI images API
// (POST /v1/images/generations).
type openAIProvider struct {
	config ProviderConfig
	client *http.Client
}

// newOpenAI creates a new OpenAI provider.
func newOpenAI(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	return &openAIProvider{
		config: cfg,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (p *openAIProvider) Name() string  { return "openai" }
func (p *openAIProvider) Model() string { return p.config.Model }

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type openAIImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage requests one image. OpenAI has no style parameter, so the
// style is folded into the prompt.
func (p *openAIProvider) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	prompt := req.Prompt
	if req.Style != "" {
		prompt = fmt.Sprintf("%s (style: %s)", prompt, req.Style)
	}

	body := openAIImageRequest{
		Model:          orDefault(req.Model, p.config.Model),
		Prompt:         prompt,
		N:              1,
		Size:           openAISize(req.Ratio),
		ResponseFormat: "url",
	}

	var result openAIImageResponse
	if err := postJSON(ctx, p.client, "openai", p.config.BaseURL+"/images/generations", p.config.APIKey, body, &result); err != nil {
		return "", err
	}

	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", fmt.Errorf("openai: no images returned")
	}
	return result.Data[0].URL, nil
}

// openAISize maps an aspect ratio to the closest size the API accepts.
func openAISize(ratio string) string {
	switch ratio {
	case "16:9", "4:3", "3:2":
		return "1792x1024"
	case "9:16", "3:4", "2:3":
		return "1024x1792"
	default:
		return "1024x1024"
	}
}
