package vision

import "context"

// Image is an uploaded site photo.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Prompt is the instruction pair sent with an image.
type Prompt struct {
	System string
	User   string
}

// Client sends one image to a multimodal model and returns its raw text answer.
type Client interface {
	Analyze(ctx context.Context, img Image, p Prompt) (string, error)
	Name() string
}
