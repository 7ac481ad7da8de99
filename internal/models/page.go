package models

// FieldType names the declared shape of a target field.
type FieldType string

const (
	FieldTypeText FieldType = "text"
	FieldTypeJSON FieldType = "json"
)

// TargetField is a named, typed, page-addressable field the model is asked to populate.
// Declared by the host page and immutable for the lifetime of a request.
type TargetField struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Selector string    `json:"selector"`
}

// ContextBlock is a labeled snippet of page text supplied as background for the model.
type ContextBlock struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// PageContext is the plain-data snapshot collected from a page for one outgoing message.
type PageContext struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	ContextBlocks []ContextBlock `json:"contextBlocks"`
	Targets       []TargetField  `json:"targets"`
	Prompt        string         `json:"prompt,omitempty"`
}

// AiConfig is the optional configuration carried by the X-AI-Config header
// (base64 JSON) or by the page-embedded config block (JSON).
type AiConfig struct {
	Targets []TargetField `json:"targets,omitempty"`
	Prompt  string        `json:"prompt,omitempty"`
}

// FieldMapping is the parsed {fieldName: value} object produced from a model reply.
type FieldMapping map[string]any

// FindTarget returns the declared target with the given name.
func FindTarget(targets []TargetField, name string) (TargetField, bool) {
	for _, t := range targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetField{}, false
}
