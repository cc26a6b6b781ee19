package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"birdid/config"

	openai "github.com/sashabaranov/go-openai"
)

const identificationPrompt = `You are an expert ornithologist. Identify the bird and answer with a single JSON object using exactly this shape:
{
  "mainBird": {
    "name": string, "scientificName": string, "confidence": number (1-100),
    "description": string, "features": [string, ...],
    "physicalCharacteristics": {"size": string, "weight": string, "wingspan": string, "plumage": string},
    "habitatAndRange": {"habitat": string, "range": string},
    "migrationPattern": {"migratory": boolean, "details": string},
    "seasonalVariation": {"summer": string, "winter": string},
    "sounds": {"call": string, "song": string}
  },
  "similarBirds": [{"name": string, "scientificName": string, "confidence": number}]
}
If no bird can be identified, answer with {"error": true, "message": string} instead.`

// IdentifyService calls the external AI collaborator with a bird photo or a
// textual description (e.g. transcribed from an audio clip) and returns the
// raw, un-normalized JSON reply.
type IdentifyService interface {
	// IdentifyFromImage sends the image (a data URL or public URL) to the
	// vision model.
	IdentifyFromImage(ctx context.Context, imageURL string) ([]byte, error)

	// IdentifyFromDescription sends a textual description of the bird or its
	// song to the model.
	IdentifyFromDescription(ctx context.Context, description string) ([]byte, error)
}

type identifyService struct{}

// NewIdentifyService creates a new instance of IdentifyService.
func NewIdentifyService() IdentifyService {
	return &identifyService{}
}

func newAIClient() (*openai.Client, string, error) {
	providerConfig := config.AppConfig.AI
	if providerConfig.APIKey == "" || providerConfig.BaseURL == "" {
		return nil, "", errors.New("AI provider API key or base URL is not configured")
	}
	clientConfig := openai.DefaultConfig(providerConfig.APIKey)
	clientConfig.BaseURL = providerConfig.BaseURL
	return openai.NewClientWithConfig(clientConfig), providerConfig.Model, nil
}

// IdentifyFromImage asks the vision model to identify the bird in the image.
func (s *identifyService) IdentifyFromImage(ctx context.Context, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, errors.New("imageURL cannot be empty")
	}
	client, model, err := newAIClient()
	if err != nil {
		log.Printf("ERROR: [IdentifyService] %v", err)
		return nil, err
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: identificationPrompt},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "Identify the bird in this photo."},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL}},
			},
		},
	}
	return s.complete(ctx, client, model, messages)
}

// IdentifyFromDescription asks the model to identify a bird from a textual
// description of its appearance or sound.
func (s *identifyService) IdentifyFromDescription(ctx context.Context, description string) ([]byte, error) {
	if description == "" {
		return nil, errors.New("description cannot be empty")
	}
	client, model, err := newAIClient()
	if err != nil {
		log.Printf("ERROR: [IdentifyService] %v", err)
		return nil, err
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: identificationPrompt},
		{Role: openai.ChatMessageRoleUser, Content: "Identify the bird from this description: " + description},
	}
	return s.complete(ctx, client, model, messages)
}

func (s *identifyService) complete(ctx context.Context, client *openai.Client, model string, messages []openai.ChatCompletionMessage) ([]byte, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		log.Printf("ERROR: [IdentifyService] Chat completion failed for model %s: %v", model, err)
		return nil, fmt.Errorf("AI identification service unavailable: %w", err)
	}
	if len(resp.Choices) == 0 {
		log.Printf("ERROR: [IdentifyService] Chat completion returned no choices for model %s.", model)
		return nil, errors.New("AI identification service returned an empty response")
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)
	log.Printf("INFO: [IdentifyService] Received identification response (%d bytes).", len(content))
	return []byte(content), nil
}

// stripCodeFences removes a surrounding markdown code fence, which some models
// emit even when asked for bare JSON.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
