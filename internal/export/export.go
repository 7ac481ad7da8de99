// Package export renders a conversation for saving outside the extension.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"formassist-backend/internal/models"
)

// Exporter writes one conversation in a fixed format.
type Exporter interface {
	Export(c *models.Conversation, w io.Writer) error
	ContentType() string
	Extension() string
}

// NewExporter returns the exporter for format: json, yaml or md (markdown).
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return jsonExporter{}, nil
	case "yaml", "yml":
		return yamlExporter{}, nil
	case "md", "markdown":
		return markdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

type jsonExporter struct{}

func (jsonExporter) Export(c *models.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func (jsonExporter) ContentType() string { return "application/json" }
func (jsonExporter) Extension() string   { return "json" }

// yamlConversation mirrors the JSON field names so both exports read alike.
type yamlConversation struct {
	ID        string        `yaml:"id"`
	Title     string        `yaml:"title"`
	CreatedAt int64         `yaml:"createdAt"`
	UpdatedAt int64         `yaml:"updatedAt"`
	Messages  []yamlMessage `yaml:"messages"`
}

type yamlMessage struct {
	Sender    string              `yaml:"sender"`
	Content   string              `yaml:"content"`
	Timestamp int64               `yaml:"timestamp"`
	JSONData  models.FieldMapping `yaml:"jsonData,omitempty"`
	Error     bool                `yaml:"error,omitempty"`
}

type yamlExporter struct{}

func (yamlExporter) Export(c *models.Conversation, w io.Writer) error {
	doc := yamlConversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]yamlMessage, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		doc.Messages = append(doc.Messages, yamlMessage{
			Sender:    string(m.Sender),
			Content:   m.Content,
			Timestamp: m.Timestamp,
			JSONData:  m.JSONData,
			Error:     m.Error,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func (yamlExporter) ContentType() string { return "application/yaml" }
func (yamlExporter) Extension() string   { return "yaml" }

type markdownExporter struct{}

func (markdownExporter) Export(c *models.Conversation, w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	fmt.Fprintf(&b, "_Created %s_\n", formatMillis(c.CreatedAt))
	for _, m := range c.Messages {
		who := "You"
		if m.Sender == models.SenderAI {
			who = "AI"
		}
		fmt.Fprintf(&b, "\n## %s (%s)\n\n%s\n", who, formatMillis(m.Timestamp), m.Content)
		if len(m.JSONData) > 0 {
			data, err := json.MarshalIndent(m.JSONData, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode field mapping: %w", err)
			}
			fmt.Fprintf(&b, "\n```json\n%s\n```\n", data)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (markdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }
func (markdownExporter) Extension() string   { return "md" }

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
