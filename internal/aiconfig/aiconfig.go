// Package aiconfig decodes and validates the optional AI configuration supplied
// by a host page, either in the X-AI-Config response header or in the page's
// embedded config element.
package aiconfig

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"formassist-backend/internal/models"
)

var (
	ErrEmpty         = errors.New("empty AI config")
	ErrInvalidBase64 = errors.New("AI config header is not valid base64")
	ErrInvalidUTF8   = errors.New("AI config is not valid UTF-8")
	ErrInvalidJSON   = errors.New("AI config is not valid JSON")
	ErrSchema        = errors.New("AI config does not match schema")
)

// configSchema accepts unknown keys; only the parts the assistant reads are constrained.
const configSchema = `{
  "type": "object",
  "properties": {
    "targets": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"type": "string"},
          "selector": {"type": "string"}
        },
        "required": ["name"]
      }
    },
    "prompt": {"type": "string"}
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(configSchema))
})

// DecodeHeader decodes a base64 (padded or raw) UTF-8 JSON document.
func DecodeHeader(value string) (*models.AiConfig, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrEmpty
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
		}
	}
	cfg, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParsePage parses the JSON text of the page-embedded config element.
func ParsePage(raw string) (models.AiConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return models.AiConfig{}, ErrEmpty
	}
	return parse([]byte(raw))
}

// EncodeHeader produces the header form of cfg.
func EncodeHeader(cfg models.AiConfig) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func parse(raw []byte) (models.AiConfig, error) {
	if !utf8.Valid(raw) {
		return models.AiConfig{}, ErrInvalidUTF8
	}
	if !json.Valid(raw) {
		return models.AiConfig{}, ErrInvalidJSON
	}

	schema, err := compiledSchema()
	if err != nil {
		return models.AiConfig{}, fmt.Errorf("failed to compile AI config schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return models.AiConfig{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return models.AiConfig{}, fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
	}

	var cfg models.AiConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return models.AiConfig{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return cfg, nil
}

// Resolve merges header and page configuration. A present header config
// overrides the page's targets when it declares any, and the page's prompt
// when its own prompt is non-empty.
func Resolve(header *models.AiConfig, page models.AiConfig) models.AiConfig {
	out := models.AiConfig{Targets: page.Targets, Prompt: page.Prompt}
	if header == nil {
		return out
	}
	if len(header.Targets) > 0 {
		out.Targets = header.Targets
	}
	if header.Prompt != "" {
		out.Prompt = header.Prompt
	}
	return out
}

// ApplyTo overlays the resolved configuration of header onto a page snapshot.
func ApplyTo(page models.PageContext, header *models.AiConfig) models.PageContext {
	cfg := Resolve(header, models.AiConfig{Targets: page.Targets, Prompt: page.Prompt})
	page.Targets = cfg.Targets
	page.Prompt = cfg.Prompt
	return page
}
