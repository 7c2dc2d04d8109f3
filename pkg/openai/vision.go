package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

type IVision interface {
	AnalyzeImage(ctx context.Context, base64Image string, prompt string) (string, error)
	Close() error
}

type visionService struct {
	client *openai.Client
	model  string
}

func NewVision() (IVision, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}

	model := os.Getenv("OPENAI_VISION_MODEL")
	if model == "" {
		model = openai.GPT4o
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	return &visionService{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// AnalyzeImage sends the prompt and a base64 JPEG in one user message and
// returns the raw JSON content of the first choice.
func (v *visionService) AnalyzeImage(ctx context.Context, base64Image string, prompt string) (string, error) {
	if base64Image == "" {
		return "", errors.New("image is required")
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: prompt,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    "data:image/jpeg;base64," + base64Image,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		},
	}

	resp, err := v.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       v.model,
			Messages:    messages,
			Temperature: 0,
			MaxTokens:   200,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

func (v *visionService) Close() error {
	return nil
}
