// Package gateway owns the single outbound call to the configured chat-completion
// endpoint and turns whatever comes back into a usable field mapping.
package gateway

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

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"formassist-backend/internal/extract"
	"formassist-backend/internal/models"
	"formassist-backend/internal/prompt"
)

// DefaultTimeout bounds one model call.
const DefaultTimeout = 60 * time.Second

// maxResponseBytes caps how much of a reply body is read.
const maxResponseBytes = 4 << 20

// contentPath locates the reply text inside a chat-completion envelope.
const contentPath = "choices.0.message.content"

var errUnexpectedEnvelope = errors.New("unexpected AI response format")

// SettingsSource supplies the current endpoint configuration.
type SettingsSource interface {
	Current(ctx context.Context) (models.Settings, error)
}

// Gateway executes AI requests. It always produces a field mapping: missing
// configuration, transport failures and malformed replies degrade to mock or
// fallback data instead of errors.
type Gateway struct {
	client   *http.Client
	settings SettingsSource
	log      zerolog.Logger
}

// New creates a Gateway. A nil client gets one with DefaultTimeout.
func New(client *http.Client, settings SettingsSource, log zerolog.Logger) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Gateway{
		client:   client,
		settings: settings,
		log:      log.With().Str("component", "gateway").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

// Dispatch loads the current settings and executes the request.
func (g *Gateway) Dispatch(ctx context.Context, req models.AIRequest) (models.FieldMapping, error) {
	if g.settings == nil {
		return g.Execute(ctx, req, models.Settings{}), nil
	}
	settings, err := g.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AI settings: %w", err)
	}
	return g.Execute(ctx, req, settings), nil
}

// Execute runs one AI request against settings.
func (g *Gateway) Execute(ctx context.Context, req models.AIRequest, settings models.Settings) models.FieldMapping {
	g.log.Debug().
		Str("endpoint", settings.AIEndpoint).
		Bool("has_api_key", settings.APIKey != "").
		Str("model", settings.AIModel).
		Int("targets", len(req.Targets)).
		Msg("Processing AI request")

	if settings.MockMode() {
		g.log.Debug().Msg("No endpoint configured, using mock response")
		return extract.Mock(req.Targets)
	}

	content, err := g.complete(ctx, req, settings)
	if err != nil {
		if errors.Is(err, errUnexpectedEnvelope) {
			g.log.Warn().Msg("Unexpected AI response format, using mock fallback")
		} else {
			g.log.Error().Err(err).Msg("AI API request failed, falling back to mock")
		}
		return extract.Mock(req.Targets)
	}

	res, err := extract.ExtractResult(strings.TrimSpace(content))
	if err == nil {
		if m, ok := res.Value.(map[string]any); ok {
			g.log.Debug().Str("strategy", string(res.Strategy)).Msg("Parsed AI response content as JSON")
			return models.FieldMapping(m)
		}
		err = fmt.Errorf("extracted JSON is not an object")
	}
	g.log.Warn().Err(err).Int("content_length", len(content)).Msg("Failed to parse AI response content as JSON, using fallback")
	return extract.Fallback(content, req.Targets)
}

// complete performs the HTTP call and returns the reply text.
func (g *Gateway) complete(ctx context.Context, req models.AIRequest, settings models.Settings) (string, error) {
	raw, err := g.post(ctx, prompt.FromRequest(req), settings)
	if err != nil {
		return "", err
	}
	content := gjson.GetBytes(raw, contentPath)
	if content.Type != gjson.String || content.Str == "" {
		return "", errUnexpectedEnvelope
	}
	return content.Str, nil
}

// StatusError is a non-2xx reply from the endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed: %d %s", e.Code, http.StatusText(e.Code))
}

// ErrInvalidJSON reports a 2xx reply whose body is not JSON.
var ErrInvalidJSON = errors.New("AI response is not valid JSON")

// post sends one user message as a chat-completion request and returns the
// raw JSON reply body.
func (g *Gateway) post(ctx context.Context, content string, settings models.Settings) ([]byte, error) {
	temperature, ok := settings.TemperatureOrDefault()
	if !ok {
		g.log.Warn().Float64("temperature", *settings.Temperature).Msg("Configured temperature out of range, using default")
	}

	body, err := json.Marshal(chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: content}},
		Model:       settings.Model(),
		Temperature: temperature,
		TopP:        1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.AIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+settings.APIKey)

	g.log.Debug().Str("url", settings.AIEndpoint).RawJSON("body", body).Msg("Sending request to AI endpoint")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to AI endpoint failed: %w", err)
	}
	defer resp.Body.Close()

	g.log.Debug().Int("status", resp.StatusCode).Msg("AI endpoint response received")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read AI response: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return raw, nil
}
