package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// HFChatService talks to the Hugging Face inference router, which speaks the
// OpenAI chat-completions protocol.
type HFChatService struct {
	client       *openai.Client
	model        string
	systemPrompt string
	maxTokens    int
}

func NewHFChatService(baseURL, token, model, systemPrompt string, maxTokens int) *HFChatService {
	config := openai.DefaultConfig(token)
	config.BaseURL = strings.TrimRight(baseURL, "/")
	return &HFChatService{
		client:       openai.NewClientWithConfig(config),
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
	}
}

// Reply answers a single user message. Every call starts a fresh conversation.
func (s *HFChatService) Reply(ctx context.Context, userText string) (string, error) {
	res, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat completion returned no content")
	}
	return res.Choices[0].Message.Content, nil
}
