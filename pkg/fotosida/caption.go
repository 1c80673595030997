package fotosida

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"google.golang.org/genai"
)

// Captioner produces alt text for a photograph.
type Captioner interface {
	Caption(ctx context.Context, src *Source) (string, error)
}

const (
	DefaultCaptionModel = "gemini-2.5-flash"
	captionSize         = 512
	captionPrompt       = "Write alt text for this photograph for a visually impaired visitor of a photo gallery. " +
		"Use one plain sentence of at most 20 words. Describe the subject and setting. " +
		"Do not start with 'A photo of' or 'An image of'. Do not mention the camera."
)

// GeminiCaptioner captions photos using a Gemini model.
type GeminiCaptioner struct {
	client *genai.Client
	model  string
}

// NewGeminiCaptioner returns a captioner authenticated with apiKey.
func NewGeminiCaptioner(ctx context.Context, apiKey string, model string) (*GeminiCaptioner, error) {
	if apiKey == "" {
		return nil, errors.New("an API key is required")
	}
	if model == "" {
		model = DefaultCaptionModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiCaptioner{client: client, model: model}, nil
}

func (g *GeminiCaptioner) Caption(ctx context.Context, src *Source) (string, error) {
	small := imaging.Fit(src.Image, captionSize, captionSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(buf.Bytes(), "image/jpeg"),
		genai.NewPartFromText(captionPrompt),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
