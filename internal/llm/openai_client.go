package llm

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client on top of the OpenAI chat-completion API.
type OpenAIClient struct {
	client *openai.Client
	config OpenAIConfig
}

// OpenAIConfig holds backend-specific configuration.
type OpenAIConfig struct {
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	BaseURL   string `json:"base_url,omitempty"`
	OrgID     string `json:"org_id,omitempty"`
}

// NewOpenAIClient creates a new OpenAI-backed client. A missing API key is a
// fail-fast configuration error, distinct from transient backend failures.
func NewOpenAIClient(config OpenAIConfig) (*OpenAIClient, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key not provided", ErrNotConfigured)
	}

	if config.Model == "" {
		config.Model = "gpt-4o"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.OrgID != "" {
		clientConfig.OrgID = config.OrgID
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Generate performs a single chat completion call.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	openaiRequest := openai.ChatCompletionRequest{
		Model:     c.getModel(req.Model),
		Messages:  messages,
		MaxTokens: c.getMaxTokens(req.MaxTokens),
	}
	if req.Deterministic {
		// go-openai omits a literal zero temperature from the payload; the
		// smallest nonzero float is the accepted way to pin temperature 0.
		openaiRequest.Temperature = math.SmallestNonzeroFloat32
	}

	response, err := c.client.CreateChatCompletion(ctx, openaiRequest)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	return &Response{
		Content:   response.Choices[0].Message.Content,
		Model:     response.Model,
		Latency:   time.Since(startTime),
		Timestamp: time.Now(),
	}, nil
}

func (c *OpenAIClient) getModel(requestModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return c.config.Model
}

func (c *OpenAIClient) getMaxTokens(requestMaxTokens int) int {
	if requestMaxTokens > 0 {
		return requestMaxTokens
	}
	return c.config.MaxTokens
}
