package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"formassist-backend/internal/models"
)

// shortContentLimit bounds the raw text reused verbatim as a fallback field value.
const shortContentLimit = 200

// Fallback builds a per-field mapping from a reply that could not be parsed.
// json fields get an error marker, other fields get the brace-stripped reply when
// it is short, or a generic message naming the field.
func Fallback(raw string, targets []models.TargetField) models.FieldMapping {
	data := models.FieldMapping{}
	if len(targets) == 0 {
		data["message"] = "AI response received but could not be processed"
		return data
	}

	clean := strings.TrimSpace(strings.NewReplacer("{", "", "}", "").Replace(raw))
	for _, t := range targets {
		if t.Type == models.FieldTypeJSON {
			data[t.Name] = map[string]any{
				"error":    true,
				"message":  "Unable to parse AI response",
				"fallback": true,
			}
			continue
		}
		if n := utf8.RuneCountInString(clean); n > 0 && n < shortContentLimit {
			data[t.Name] = clean
		} else {
			data[t.Name] = fmt.Sprintf("Unable to process response for %s", t.Name)
		}
	}
	return data
}
