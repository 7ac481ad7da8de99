package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"formassist-backend/internal/conversation"
	"formassist-backend/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	aiStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("135")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			PaddingLeft(2)

	statusStyles = map[string]lipgloss.Style{
		"":                      lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true),
		conversation.KindActive: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Italic(true),
		conversation.KindError:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Italic(true),
	}

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// termRenderer prints what changed since the previous view: a header when the
// active conversation switches, new messages, and status changes.
type termRenderer struct {
	out io.Writer

	mu         sync.Mutex
	activeID   string
	printed    int
	lastStatus string
}

func newTermRenderer(out io.Writer) *termRenderer {
	return &termRenderer{out: out}
}

func (r *termRenderer) Render(_ context.Context, view models.ConversationView) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := view.Active
	if active == nil {
		if r.activeID != "" {
			fmt.Fprintln(r.out, metaStyle.Render("(no conversation)"))
		}
		r.activeID, r.printed = "", 0
	} else {
		if active.ID != r.activeID {
			fmt.Fprintln(r.out, titleStyle.Render(active.Title))
			r.activeID, r.printed = active.ID, 0
		}
		for _, msg := range active.Messages[min(r.printed, len(active.Messages)):] {
			fmt.Fprintln(r.out, formatMessage(msg))
		}
		r.printed = len(active.Messages)
	}

	if view.Status != r.lastStatus {
		style, ok := statusStyles[view.StatusKind]
		if !ok {
			style = statusStyles[""]
		}
		fmt.Fprintln(r.out, style.Render("· "+view.Status))
		r.lastStatus = view.Status
	}
	return nil
}

// reset forces the next render to reprint the active conversation.
func (r *termRenderer) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeID, r.printed = "", 0
}

func formatMessage(msg models.Message) string {
	at := metaStyle.Render(time.UnixMilli(msg.Timestamp).Format("15:04:05"))
	if msg.Sender == models.SenderUser {
		return fmt.Sprintf("%s %s %s", at, userStyle.Render("you"), msg.Content)
	}
	content := msg.Content
	if msg.Error {
		content = errorStyle.Render(content)
	}
	line := fmt.Sprintf("%s %s %s", at, aiStyle.Render("ai"), content)
	if len(msg.JSONData) > 0 {
		line += "\n" + dataStyle.Render(conversation.FormatPreview(msg.JSONData)) +
			"\n" + metaStyle.Render(fmt.Sprintf("  [%d] /preview /copy /apply", msg.Timestamp))
	}
	return line
}
