package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// param describes one argument of a funcTool.
type param struct {
	name     string
	typ      genai.Type
	desc     string
	required bool
	items    *genai.Schema
}

// funcTool is a Tool assembled from a declaration and a run function.
type funcTool struct {
	name        string
	description string
	params      []param
	run         func(ctx context.Context, args map[string]any) (ToolResult, error)
}

func (t *funcTool) Name() string {
	return t.name
}

func (t *funcTool) Description() string {
	return t.description
}

func (t *funcTool) Declaration() *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(t.params))
	var required []string
	for _, p := range t.params {
		props[p.name] = &genai.Schema{
			Type:        p.typ,
			Description: p.desc,
			Items:       p.items,
		}
		if p.required {
			required = append(required, p.name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        t.name,
		Description: t.description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   required,
		},
	}
}

func (t *funcTool) Validate(args map[string]any) error {
	for _, p := range t.params {
		v, ok := args[p.name]
		if !ok || v == nil {
			if p.required {
				return NewValidationError(p.name, "is required")
			}
			continue
		}
		switch p.typ {
		case genai.TypeString:
			s, ok := v.(string)
			if !ok {
				return NewValidationError(p.name, "must be a string")
			}
			// Content may legitimately be empty; names and paths may not.
			if p.required && s == "" && p.name != "content" {
				return NewValidationError(p.name, "must not be empty")
			}
		case genai.TypeBoolean:
			if _, ok := v.(bool); !ok {
				return NewValidationError(p.name, "must be a boolean")
			}
		case genai.TypeArray:
			if _, ok := v.([]any); !ok {
				if _, ok := v.([]string); !ok {
					return NewValidationError(p.name, "must be an array")
				}
			}
		}
	}
	return nil
}

func (t *funcTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return ToolResult{}, err
	}
	return t.run(ctx, args)
}

func stringParam(name, desc string, required bool) param {
	return param{name: name, typ: genai.TypeString, desc: desc, required: required}
}

func boolParam(name, desc string) param {
	return param{name: name, typ: genai.TypeBoolean, desc: desc}
}

// failed turns an operation error into a result the model can read.
func failed(err error) (ToolResult, error) {
	return NewErrorResult(err.Error()), nil
}

func succeed(content string) (ToolResult, error) {
	return NewSuccessResult(content), nil
}

func succeedJSON(v any) (ToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return failed(fmt.Errorf("encode result: %w", err))
	}
	return NewSuccessResult(string(data)), nil
}
