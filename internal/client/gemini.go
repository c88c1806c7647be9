package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"appforge/internal/logging"
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// GeminiClient generates content through the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config GeminiConfig
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini: model name is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: cfg}, nil
}

// Name returns the provider and model.
func (c *GeminiClient) Name() string {
	return "gemini/" + c.config.Model
}

// Generate sends the conversation to the model.
func (c *GeminiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature: Ptr(c.config.Temperature),
	}
	if c.config.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = c.config.MaxOutputTokens
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		genConfig.Tools = []*genai.Tool{{FunctionDeclarations: req.Tools}}
	}

	contents := sanitizeContents(req.History)
	logging.Debug("gemini request", "model", c.config.Model, "contents", len(contents), "tools", len(req.Tools))

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, genConfig)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &GenerationError{
			Provider:   "gemini",
			StatusCode: statusFromMessage(err.Error()),
			Message:    err.Error(),
			Err:        err,
		}
	}

	return processResponse(resp)
}

// Close closes the client connection.
func (c *GeminiClient) Close() error {
	// The genai client doesn't have an explicit close method
	return nil
}

// sanitizeContents drops empty parts the API would reject.
func sanitizeContents(contents []*genai.Content) []*genai.Content {
	var result []*genai.Content

	for _, content := range contents {
		if content == nil {
			continue
		}

		var validParts []*genai.Part
		for _, part := range content.Parts {
			if part == nil {
				continue
			}
			if part.FunctionCall != nil || part.FunctionResponse != nil || part.Text != "" {
				validParts = append(validParts, part)
			}
		}

		// Content must have at least one part
		if len(validParts) == 0 {
			validParts = []*genai.Part{genai.NewPartFromText(" ")}
		}

		result = append(result, &genai.Content{
			Role:  content.Role,
			Parts: validParts,
		})
	}

	if len(result) == 0 {
		result = []*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(" ")},
		}}
	}

	return result
}

func processResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	out := &Response{}

	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	if len(resp.Candidates) == 0 {
		return nil, &GenerationError{Provider: "gemini", Message: "no choices in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return nil, &GenerationError{
			Provider: "gemini",
			Message:  fmt.Sprintf("unexpected API response (finish reason %q)", candidate.FinishReason),
		}
	}

	for _, part := range candidate.Content.Parts {
		if part.Thought {
			continue
		}
		if part.Text != "" {
			out.Text += part.Text
		}
		if part.FunctionCall != nil {
			out.FunctionCalls = append(out.FunctionCalls, part.FunctionCall)
		}
	}

	return out, nil
}
