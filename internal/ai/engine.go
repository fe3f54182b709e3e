// Package ai abstracts the generative model behind the analyzer and
// summarizer so both can be tested without network access.
package ai

import "context"

// Request is one generation call. ImagePNG is optional; when set the prompt
// and image are sent together as a multimodal request.
type Request struct {
	Prompt   string
	ImagePNG []byte
}

// Engine produces text from a prompt and optional screenshot.
type Engine interface {
	Generate(ctx context.Context, req Request) (string, error)
}
