package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const jsonOnlyInstruction = "You must respond with valid JSON only. Do not include any text outside the JSON object."

type JSONProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (ProviderResult, error)
	Ping(ctx context.Context) bool
}

type ProviderResult struct {
	Text  string
	Model string
}

// GeminiProvider wraps the Gemini client with preset-aware generation logic.
type GeminiProvider struct {
	client       *genai.Client
	defaultModel string
	logger       *zap.Logger
}

func NewGeminiProvider(ctx context.Context, apiKey, defaultModel string, logger *zap.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.5-flash"
	}
	return &GeminiProvider{
		client:       client,
		defaultModel: defaultModel,
		logger:       logger,
	}, nil
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (ProviderResult, error) {
	if g.client == nil {
		return ProviderResult{}, fmt.Errorf("gemini client not initialized")
	}

	modelName := pickModel(opts, g.defaultModel)
	config := resolveConfig(preset, opts)

	g.logger.Debug("Generating with Gemini",
		zap.String("model", modelName),
		zap.String("preset", string(preset)),
	)

	topK := float32(config.TopK)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &config.Temperature,
		TopP:             &config.TopP,
		TopK:             &topK,
		MaxOutputTokens:  int32(config.MaxOutputTokens),
		ResponseMIMEType: config.ResponseMimeType,
	}
	if opts != nil && opts.System != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.System}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}, genConfig)
	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return ProviderResult{}, err
	}

	text := extractTextFromGeminiResponse(resp)
	if text == "" {
		return ProviderResult{}, fmt.Errorf("empty response from Gemini")
	}

	g.logger.Debug("Gemini response received", zap.Int("length", len(text)))
	return ProviderResult{Text: text, Model: modelName}, nil
}

func (g *GeminiProvider) Ping(ctx context.Context) bool {
	if g.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	temp := float32(0)
	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel, []*genai.Content{
		{Parts: []*genai.Part{{Text: "ping"}}},
	}, &genai.GenerateContentConfig{Temperature: &temp, MaxOutputTokens: 10})
	if err != nil {
		g.logger.Debug("Gemini ping failed", zap.Error(err))
		return false
	}

	return extractTextFromGeminiResponse(resp) != ""
}

// OpenRouterConfig configures the OpenAI-compatible OpenRouter endpoint.
type OpenRouterConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Referer    string
	Title      string
	MaxRetries int
}

// OpenRouterProvider talks to OpenRouter through the OpenAI chat completion client.
type OpenRouterProvider struct {
	client       *openai.Client
	defaultModel string
	logger       *zap.Logger
}

func NewOpenRouterProvider(cfg OpenRouterConfig, logger *zap.Logger) *OpenRouterProvider {
	if cfg.APIKey == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	// attribution headers for the OpenRouter leaderboard
	if cfg.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.Title))
	}

	client := openai.NewClient(opts...)
	return &OpenRouterProvider{
		client:       &client,
		defaultModel: cfg.Model,
		logger:       logger,
	}
}

func (o *OpenRouterProvider) Name() string {
	return "OpenRouter"
}

func (o *OpenRouterProvider) Generate(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (ProviderResult, error) {
	if o.client == nil {
		return ProviderResult{}, fmt.Errorf("OpenRouter client not initialized")
	}

	modelName := pickModel(opts, o.defaultModel)
	config := resolveConfig(preset, opts)

	o.logger.Debug("Generating with OpenRouter",
		zap.String("model", modelName),
		zap.String("preset", string(preset)),
	)

	var messages []openai.ChatCompletionMessageParamUnion
	if opts != nil && opts.System != "" {
		messages = append(messages, openai.SystemMessage(opts.System))
	}
	if opts != nil && opts.JSONMode {
		messages = append(messages, openai.SystemMessage(jsonOnlyInstruction))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(modelName),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(config.MaxOutputTokens)),
		Temperature:         openai.Float(float64(config.Temperature)),
		TopP:                openai.Float(float64(config.TopP)),
	})
	if err != nil {
		o.logger.Error("OpenRouter generation failed", zap.Error(err))
		return ProviderResult{}, err
	}

	if len(resp.Choices) == 0 {
		return ProviderResult{}, fmt.Errorf("no choices in OpenRouter response")
	}

	text := resp.Choices[0].Message.Content
	o.logger.Info("OpenRouter response received",
		zap.String("model", resp.Model),
		zap.Int("length", len(text)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return ProviderResult{Text: text, Model: modelName}, nil
}

func (o *OpenRouterProvider) Ping(ctx context.Context) bool {
	if o.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.defaultModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("ping"),
		},
		MaxCompletionTokens: openai.Int(10),
		Temperature:         openai.Float(0),
	})
	if err != nil {
		o.logger.Debug("OpenRouter ping failed", zap.Error(err))
		return false
	}

	return len(resp.Choices) > 0
}

func pickModel(opts *GenerateOptions, fallback string) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return fallback
}

func extractTextFromGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}
