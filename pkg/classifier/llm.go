package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	genai "github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-1.5-flash"

	maxAnswerTokens = 50
)

// Completer sends a prompt to a language model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIConfig configures OpenAIClient. Zero values get defaults.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Rate           float64
	Burst          int
	MaxTries       uint
	InitialBackoff time.Duration
}

// OpenAIClient implements Completer with the OpenAI chat completion API.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	limiter        *rate.Limiter
	maxTries       uint
	initialBackoff time.Duration
	log            *slog.Logger
}

// NewOpenAIClient builds a rate limited, retrying client
func NewOpenAIClient(cfg OpenAIConfig, log *slog.Logger) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 3
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 3 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		model:          cfg.Model,
		limiter:        rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		maxTries:       cfg.MaxTries,
		initialBackoff: cfg.InitialBackoff,
		log:            log,
	}, nil
}

// Complete asks the model, retrying transient failures with exponential backoff.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	op := func() (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			// a literal 0 is dropped by omitempty and the API falls back to 1
			Temperature: math.SmallestNonzeroFloat32,
			MaxTokens:   maxAnswerTokens,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai returned no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff

	answer, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.log.Warn("openai request failed, retrying", "err", err, "retry_in", d)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("openai chat completion after %d attempts: %w", c.maxTries, err)
	}

	c.log.Debug("openai answered", "model", c.model, "duration", time.Since(start))
	return answer, nil
}

// GeminiClient implements Completer using Google Gemini.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient boots a Gemini API client using the provided API key and model id.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if modelID == "" {
		modelID = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelID)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(maxAnswerTokens)

	return &GeminiClient{client: client, model: model}, nil
}

// Close releases the underlying Gemini client.
func (g *GeminiClient) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini response contained no text candidates")
	}
	return strings.TrimSpace(b.String()), nil
}

// StaticClient returns a fixed answer without calling anything.
type StaticClient struct {
	Response string
	Err      error
}

func (s StaticClient) Complete(_ context.Context, _ string) (string, error) {
	return s.Response, s.Err
}
