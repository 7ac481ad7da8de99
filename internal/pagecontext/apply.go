package pagecontext

// Element is one addressable form control.
type Element interface {
	// Kind is the lower-case input type for <input> elements, else the tag name.
	Kind() string
	SetValue(v string)
	SetChecked(on bool)
	Dispatch(event string)
}

// Page resolves selectors to elements.
type Page interface {
	Query(selector string) (Element, bool)
}

// ApplyReport lists the fields written and the fields whose element was missing.
type ApplyReport struct {
	Applied []string `json:"applied"`
	Skipped []string `json:"skipped"`
}

// Apply executes plan against page. Each written element receives the plan's
// events exactly once, after its value is set.
func Apply(page Page, plan []Action) ApplyReport {
	var report ApplyReport
	for _, a := range plan {
		el, ok := page.Query(a.Selector)
		if !ok {
			report.Skipped = append(report.Skipped, a.Field)
			continue
		}
		switch el.Kind() {
		case "checkbox", "radio":
			el.SetChecked(a.Checked)
		default:
			el.SetValue(a.Value)
		}
		events := a.Events
		if len(events) == 0 {
			events = Events
		}
		for _, ev := range events {
			el.Dispatch(ev)
		}
		report.Applied = append(report.Applied, a.Field)
	}
	return report
}
