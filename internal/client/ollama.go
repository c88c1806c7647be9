package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"google.golang.org/genai"

	"appforge/internal/logging"
)

// OllamaConfig configures the Ollama backend.
type OllamaConfig struct {
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	HTTPTimeout time.Duration
}

// OllamaClient generates content through a local or remote Ollama server.
type OllamaClient struct {
	client *api.Client
	config OllamaConfig
}

// NewOllamaClient creates a new Ollama API client.
func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama: model name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 5 * time.Minute
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}

	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	return &OllamaClient{
		client: api.NewClient(baseURL, &http.Client{Timeout: cfg.HTTPTimeout}),
		config: cfg,
	}, nil
}

// Name returns the provider and model.
func (c *OllamaClient) Name() string {
	return "ollama/" + c.config.Model
}

// Generate sends the conversation to the model and collects the reply.
func (c *OllamaClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	chatReq := &api.ChatRequest{
		Model:    c.config.Model,
		Messages: convertHistory(req.SystemPrompt, req.History),
		Stream:   Ptr(false),
		Tools:    convertTools(req.Tools),
		Options: map[string]any{
			"num_predict": c.config.MaxTokens,
		},
	}
	if c.config.Temperature > 0 {
		chatReq.Options["temperature"] = c.config.Temperature
	}

	out := &Response{}
	callIndex := 0
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		out.Text += resp.Message.Content
		for _, tc := range resp.Message.ToolCalls {
			out.FunctionCalls = append(out.FunctionCalls, convertToolCall(tc, callIndex))
			callIndex++
		}
		if resp.Done {
			out.InputTokens = resp.PromptEvalCount
			out.OutputTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, wrapOllamaError(c.config.Model, err)
	}

	if out.Text == "" && len(out.FunctionCalls) == 0 {
		return nil, &GenerationError{Provider: "ollama", Message: "no choices in response"}
	}
	return out, nil
}

// Close is a no-op; the HTTP client needs no teardown.
func (c *OllamaClient) Close() error {
	return nil
}

// convertHistory maps genai history onto Ollama chat messages. Function
// responses become "tool" messages.
func convertHistory(systemPrompt string, history []*genai.Content) []api.Message {
	var messages []api.Message
	if systemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemPrompt})
	}

	for _, content := range history {
		if content == nil {
			continue
		}

		msg := api.Message{}
		switch content.Role {
		case genai.RoleModel:
			msg.Role = "assistant"
		default:
			msg.Role = "user"
		}

		var textParts []string
		for _, part := range content.Parts {
			if part == nil {
				continue
			}
			switch {
			case part.FunctionResponse != nil:
				messages = append(messages, api.Message{
					Role:       "tool",
					Content:    functionResponseText(part.FunctionResponse),
					ToolName:   part.FunctionResponse.Name,
					ToolCallID: part.FunctionResponse.ID,
				})
			case part.FunctionCall != nil:
				msg.ToolCalls = append(msg.ToolCalls, toOllamaToolCall(part.FunctionCall))
			case part.Text != "":
				textParts = append(textParts, part.Text)
			}
		}

		msg.Content = strings.Join(textParts, "\n")
		if msg.Content != "" || len(msg.ToolCalls) > 0 {
			messages = append(messages, msg)
		}
	}
	return messages
}

func functionResponseText(fr *genai.FunctionResponse) string {
	if fr.Response == nil {
		return "Operation completed"
	}
	if errStr, ok := fr.Response["error"].(string); ok && errStr != "" {
		return "Error: " + errStr
	}
	if val, ok := fr.Response["output"].(string); ok {
		return val
	}
	if data, err := json.Marshal(fr.Response); err == nil {
		return string(data)
	}
	return "Operation completed"
}

func convertTools(decls []*genai.FunctionDeclaration) []api.Tool {
	if len(decls) == 0 {
		return nil
	}

	tools := make([]api.Tool, 0, len(decls))
	for _, decl := range decls {
		params := api.ToolFunctionParameters{
			Type:       "object",
			Properties: api.NewToolPropertiesMap(),
		}

		if decl.Parameters != nil {
			if len(decl.Parameters.Required) > 0 {
				params.Required = decl.Parameters.Required
			}
			for name, propSchema := range decl.Parameters.Properties {
				prop := api.ToolProperty{Description: propSchema.Description}
				if propSchema.Type != "" {
					prop.Type = api.PropertyType{strings.ToLower(string(propSchema.Type))}
				}
				if len(propSchema.Enum) > 0 {
					enumVals := make([]any, len(propSchema.Enum))
					for i, v := range propSchema.Enum {
						enumVals[i] = v
					}
					prop.Enum = enumVals
				}
				params.Properties.Set(name, prop)
			}
		}

		tools = append(tools, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

func convertToolCall(tc api.ToolCall, index int) *genai.FunctionCall {
	id := tc.ID
	if id == "" {
		id = fmt.Sprintf("call_%d", index)
	}
	return &genai.FunctionCall{
		ID:   id,
		Name: tc.Function.Name,
		Args: tc.Function.Arguments.ToMap(),
	}
}

func toOllamaToolCall(fc *genai.FunctionCall) api.ToolCall {
	args := api.NewToolCallFunctionArguments()
	for k, v := range fc.Args {
		args.Set(k, v)
	}
	return api.ToolCall{
		ID: fc.ID,
		Function: api.ToolCallFunction{
			Name:      fc.Name,
			Arguments: args,
		},
	}
}

func wrapOllamaError(model string, err error) error {
	genErr := &GenerationError{Provider: "ollama", Message: err.Error(), Err: err}

	var statusErr api.StatusError
	var statusErrPtr *api.StatusError
	switch {
	case errors.As(err, &statusErr):
		genErr.StatusCode = statusErr.StatusCode
	case errors.As(err, &statusErrPtr):
		genErr.StatusCode = statusErrPtr.StatusCode
	}

	switch {
	case strings.Contains(genErr.Message, "connection refused"):
		genErr.Message = "Ollama server is not running (start it with: ollama serve): " + genErr.Message
	case genErr.StatusCode == http.StatusNotFound:
		genErr.Message = fmt.Sprintf("model '%s' is not installed (run: ollama pull %s)", model, model)
	}
	return genErr
}
