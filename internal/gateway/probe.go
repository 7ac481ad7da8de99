package gateway

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"formassist-backend/internal/extract"
	"formassist-backend/internal/models"
)

// ProbeContent asks the model for a recognisable reply.
const ProbeContent = `This is a connection test. Please respond with a JSON object containing: {"testField": "Connection successful"}`

// ProbeResult describes a successful round trip to the endpoint.
type ProbeResult struct {
	// Envelope is true when the body looked like a chat completion.
	Envelope bool
	// Content is the reply text when Envelope is set.
	Content string
	// Recognised is true when Content answers the probe.
	Recognised bool
	// Object is true when the body is a JSON object.
	Object bool
	// Data is the field mapping extracted from Content, if any.
	Data models.FieldMapping
}

// Probe sends ProbeContent using settings. Errors are transport failures,
// *StatusError or ErrInvalidJSON.
func (g *Gateway) Probe(ctx context.Context, settings models.Settings) (ProbeResult, error) {
	raw, err := g.post(ctx, ProbeContent, settings)
	if err != nil {
		return ProbeResult{}, err
	}

	var res ProbeResult
	res.Object = gjson.ParseBytes(raw).IsObject()
	if msg := gjson.GetBytes(raw, "choices.0.message"); msg.Exists() {
		res.Envelope = true
		res.Content = msg.Get("content").String()
		res.Recognised = strings.Contains(res.Content, "Connection successful") || strings.Contains(res.Content, "testField")
		if v, err := extract.Extract(res.Content); err == nil {
			if m, ok := v.(map[string]any); ok {
				res.Data = m
			}
		}
	}
	return res, nil
}
