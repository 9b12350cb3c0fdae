// Package gemini adapts the Google GenAI SDK to the vision client port.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bryanwahyu/constrite/internal/domain/vision"
)

const (
	defaultModel    = "gemini-2.5-flash"
	temperature     = 0.4
	maxOutputTokens = 8192
)

// Client sends inspection photos to a Gemini model.
type Client struct {
	client *genai.Client
	model  string
}

// Options tune the client beyond the API key.
type Options struct {
	Model string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{client: c, model: model}, nil
}

// Name returns the provider and model.
func (c *Client) Name() string { return "gemini:" + c.model }

// Analyze sends the prompt and image and returns the text of the first candidate.
func (c *Client) Analyze(ctx context.Context, img vision.Image, p vision.Prompt) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(p.User),
		genai.NewPartFromBytes(img.Data, img.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", classify(ctx, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", vision.ErrBlocked
	}
	return resp.Text(), nil
}

func classify(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", vision.ErrQuotaExceeded, apiErr.Message)
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return fmt.Errorf("%w: %s", vision.ErrTimeout, apiErr.Message)
		}
	}
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "504") {
		return fmt.Errorf("%w: %v", vision.ErrTimeout, err)
	}
	if strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota") {
		return fmt.Errorf("%w: %v", vision.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("GenAI generate failed: %w", err)
}
