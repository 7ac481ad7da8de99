package conversation

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"formassist-backend/internal/models"
	"formassist-backend/internal/pagecontext"
)

// Clipboard receives copied text.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// replyData returns the field mapping and targets of the active conversation's
// message stamped ts.
func (m *Manager) replyData(ts int64) (models.FieldMapping, []models.TargetField, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.state.Conversations[m.state.ActiveConversationID]
	if !ok {
		return nil, nil, false
	}
	msg, ok := conv.FindMessage(ts)
	if !ok || msg.JSONData == nil {
		return nil, nil, false
	}
	return msg.JSONData, slices.Clone(msg.Targets), true
}

// ApplyPlan returns the page writes for message ts of the active conversation.
func (m *Manager) ApplyPlan(ts int64) ([]pagecontext.Action, bool) {
	data, targets, ok := m.replyData(ts)
	if !ok {
		return nil, false
	}
	return pagecontext.BuildPlan(data, targets), true
}

// ApplyToPage writes message ts's field mapping into page. No-op when the
// message or its mapping is absent.
func (m *Manager) ApplyToPage(ts int64, page pagecontext.Page) (pagecontext.ApplyReport, bool) {
	plan, ok := m.ApplyPlan(ts)
	if !ok {
		return pagecontext.ApplyReport{}, false
	}
	if page == nil {
		m.log.Error().Int64("timestamp", ts).Msg("Failed to apply to page: no page")
		m.ReportApply(false)
		return pagecontext.ApplyReport{}, false
	}
	report := pagecontext.Apply(page, plan)
	m.ReportApply(true)
	return report, true
}

// ReportApply sets the status after a plan was applied elsewhere, e.g. by the
// extension executing the plan returned by ApplyPlan.
func (m *Manager) ReportApply(ok bool) {
	if !ok {
		m.setStatus(StatusApplyFailure, KindError)
		return
	}
	m.setTransientStatus(StatusApplied, KindActive)
}

// Preview lists "field: value" lines for message ts, objects as indented JSON.
func (m *Manager) Preview(ts int64) (string, bool) {
	data, _, ok := m.replyData(ts)
	if !ok {
		return "", false
	}
	return FormatPreview(data), true
}

func FormatPreview(data models.FieldMapping) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		v := data[k]
		text := pagecontext.Stringify(v)
		switch v.(type) {
		case map[string]any, []any, models.FieldMapping:
			if raw, err := json.MarshalIndent(v, "", "  "); err == nil {
				text = string(raw)
			}
		}
		lines = append(lines, k+": "+text)
	}
	return strings.Join(lines, "\n")
}

// CopyText is the compact JSON of message ts's field mapping.
func (m *Manager) CopyText(ts int64) (string, bool) {
	data, _, ok := m.replyData(ts)
	if !ok {
		return "", false
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// CopyToClipboard writes CopyText(ts) to clip. Clipboard failures are logged
// and returned; the status is left unchanged.
func (m *Manager) CopyToClipboard(ctx context.Context, ts int64, clip Clipboard) error {
	text, ok := m.CopyText(ts)
	if !ok {
		return nil
	}
	if err := clip.WriteText(ctx, text); err != nil {
		m.log.Error().Err(err).Msg("Failed to copy")
		return err
	}
	m.setTransientStatus(StatusCopied, KindActive)
	return nil
}
