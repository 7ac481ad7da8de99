// Package prompt composes the single natural-language prompt sent to the model.
package prompt

import (
	"strings"

	"formassist-backend/internal/models"
)

// DefaultInstruction is used when the user supplies no prompt.
const DefaultInstruction = "Fill the form fields based on the context"

// Build concatenates the base instruction, the page context and the target field
// declarations. It is deterministic and accepts nil or empty inputs.
func Build(userPrompt string, page *models.PageContext, targets []models.TargetField) string {
	var b strings.Builder

	if userPrompt != "" {
		b.WriteString(userPrompt)
	} else {
		b.WriteString(DefaultInstruction)
	}

	if page != nil {
		b.WriteString("\n\nPage Context:")
		b.WriteString("\nTitle: " + page.Title)
		if page.Description != "" {
			b.WriteString("\nDescription: " + page.Description)
		}
		if len(page.ContextBlocks) > 0 {
			b.WriteString("\n\nContext Information:")
			for _, block := range page.ContextBlocks {
				b.WriteString("\n- " + block.Label + ": " + block.Content)
			}
		}
	}

	if len(targets) > 0 {
		b.WriteString("\n\nPlease fill the following fields with appropriate content:")
		for _, t := range targets {
			b.WriteString("\n- " + t.Name + " (" + string(t.Type) + ")")
		}
		b.WriteString("\n\nRespond with a JSON object where keys are the field names and values are the content to fill in those fields.")
	}

	return b.String()
}

// FromRequest builds the prompt for an AI request. Without a user prompt the
// page's configured prompt is used, then the default instruction.
func FromRequest(req models.AIRequest) string {
	userPrompt := req.Prompt
	if userPrompt == "" && req.Context != nil {
		userPrompt = req.Context.Prompt
	}
	return Build(userPrompt, req.Context, req.Targets)
}
