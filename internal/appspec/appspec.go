// Package appspec holds the structured description of the application a run
// generates. It is written by the spec-building phase and consumed by
// template instantiation.
package appspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"appforge/internal/sandbox"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultVersion      = "0.1.0"
	DefaultTemplateName = "react-simple-spa"
	DefaultOutputDir    = "result"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid app spec")

var kebabRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("kebab", func(fl validator.FieldLevel) bool {
		return kebabRe.MatchString(fl.Field().String())
	})
}

// AppSpec describes the app to generate.
type AppSpec struct {
	AppName       string   `json:"app_name" validate:"required,kebab,max=64"`
	DisplayName   string   `json:"display_name" validate:"required,max=120"`
	Description   string   `json:"description" validate:"required"`
	Author        string   `json:"author,omitempty"`
	Version       string   `json:"version" validate:"required,semver"`
	TemplateName  string   `json:"template_name" validate:"required,kebab"`
	OutputDir     string   `json:"output_dir" validate:"required"`
	CustomContent string   `json:"custom_content,omitempty"`
	Features      []string `json:"features"`
}

// ApplyDefaults fills optional fields.
func (s *AppSpec) ApplyDefaults() {
	if s.Version == "" {
		s.Version = DefaultVersion
	}
	if s.TemplateName == "" {
		s.TemplateName = DefaultTemplateName
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	if s.Features == nil {
		s.Features = []string{}
	}
}

// Validate checks field constraints. Failures are reported one per field.
func (s *AppSpec) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "kebab":
		return fmt.Sprintf("%s %q must be kebab-case (e.g. my-todo-app)", field, fe.Value())
	case "semver":
		return fmt.Sprintf("%s %q must be a semantic version", field, fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

var fieldNames = map[string]string{
	"AppName":      "app_name",
	"DisplayName":  "display_name",
	"Description":  "description",
	"Version":      "version",
	"TemplateName": "template_name",
	"OutputDir":    "output_dir",
}

func jsonName(field string) string {
	if n, ok := fieldNames[field]; ok {
		return n
	}
	return field
}

// Parse decodes, defaults and validates a spec document.
func Parse(data []byte) (*AppSpec, error) {
	var s AppSpec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads a spec document from disk.
func Load(path string) (*AppSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Save validates the spec and writes it as indented JSON through the sandbox.
func (s *AppSpec) Save(fs *sandbox.FS, path string) (string, error) {
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return fs.Write(path, string(data)+"\n", sandbox.ModeOverwrite)
}
