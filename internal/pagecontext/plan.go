package pagecontext

import (
	"encoding/json"
	"slices"

	"formassist-backend/internal/models"
)

// Events dispatched on every element written by Apply, in order.
var Events = []string{"change", "input"}

// Action writes one field's value to the element matched by Selector.
// Checked is used instead of Value for checkbox and radio inputs.
type Action struct {
	Field    string   `json:"field"`
	Selector string   `json:"selector"`
	Value    string   `json:"value"`
	Checked  bool     `json:"checked"`
	Events   []string `json:"events"`
}

// BuildPlan turns a field mapping into write actions for the declared targets.
// Mapping keys without a matching target (or with an empty selector) are skipped.
// Actions are ordered by field name.
func BuildPlan(data models.FieldMapping, targets []models.TargetField) []Action {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	slices.Sort(names)

	plan := make([]Action, 0, len(names))
	for _, name := range names {
		target, ok := models.FindTarget(targets, name)
		if !ok || target.Selector == "" {
			continue
		}
		raw := data[name]
		plan = append(plan, Action{
			Field:    name,
			Selector: target.Selector,
			Value:    Stringify(raw),
			Checked:  truthy(raw),
			Events:   slices.Clone(Events),
		})
	}
	return plan
}

// Stringify renders a mapping value as form text: strings verbatim, anything
// else as compact JSON.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

// truthy reports whether v checks a checkbox. Null, objects and arrays are
// written as JSON text first, so they are always truthy.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
