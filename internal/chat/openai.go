package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Martingim-10/retirex/pkg/constants"
)

// ErrEmptyCompletion is returned when the API answers without any choice.
var ErrEmptyCompletion = errors.New("no response from language model")

// OpenAIOptions configures an OpenAIClient.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	SystemPrompt string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// OpenAIClient answers conversations through the chat-completions API.
type OpenAIClient struct {
	apiKey       string
	endpoint     string
	model        string
	maxTokens    int
	systemPrompt string
	httpClient   *http.Client
}

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient fills unset options with defaults.
func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = constants.DefaultChatBaseURL
	}
	model := opts.Model
	if model == "" {
		model = constants.DefaultChatModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = constants.DefaultChatMaxTokens
	}
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = constants.DefaultSystemPrompt
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultChatTimeoutSeconds * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIClient{
		apiKey:       opts.APIKey,
		endpoint:     baseURL + "/chat/completions",
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: prompt,
		httpClient:   httpClient,
	}
}

// Answer sends the system prompt followed by history and returns the first
// choice's content.
func (c *OpenAIClient) Answer(ctx context.Context, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: c.systemPrompt})
	messages = append(messages, history...)

	jsonData, err := json.Marshal(completionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat completion API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return completion.Choices[0].Message.Content, nil
}
