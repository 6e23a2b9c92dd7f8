package generativeAI

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// imageModel is only used for postcard generation.
const imageModel = "gemini-2.0-flash-preview-image-generation"

type AIClient struct {
	client *genai.Client
	model  string
}

func NewAIClient(ctx context.Context, model string) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultModel
	}
	return &AIClient{
		client: client,
		model:  model,
	}, nil
}

// Model returns the configured text model name.
func (ai *AIClient) Model() string {
	return ai.model
}

func (ai *AIClient) GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return result, nil
}

// GenerateImage renders an image for the prompt using the image-capable model.
// Callers read the inline data off the response candidates.
func (ai *AIClient) GenerateImage(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	result, err := ai.client.Models.GenerateContent(ctx, imageModel, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	return result, nil
}
