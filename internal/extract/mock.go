package extract

import (
	"fmt"

	"formassist-backend/internal/models"
)

// Mock returns deterministic placeholder data for the declared targets.
func Mock(targets []models.TargetField) models.FieldMapping {
	data := models.FieldMapping{}
	if len(targets) == 0 {
		data["message"] = "Mock response - no targets defined"
		return data
	}
	for _, t := range targets {
		if t.Type == models.FieldTypeJSON {
			data[t.Name] = map[string]any{
				"mock":  true,
				"value": fmt.Sprintf("Mock data for %s", t.Name),
			}
		} else {
			data[t.Name] = fmt.Sprintf("Mock content for %s", t.Name)
		}
	}
	return data
}
