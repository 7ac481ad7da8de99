package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"formassist-backend/internal/aiconfig"
	"formassist-backend/internal/models"
	"formassist-backend/internal/pagecontext"
	"formassist-backend/internal/trigger"
)

const fetchTimeout = 30 * time.Second

var noticeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("42")).
	Bold(true)

// loadedPage is a page opened by the CLI. Doc is nil when the page could not
// be read, in which case Context is the unreachable-page fallback.
type loadedPage struct {
	Source     string
	Doc        *pagecontext.Document
	Activation *trigger.Activation
	Context    models.PageContext
}

// HeaderConfig returns the config carried by the opt-in header, if any.
func (p *loadedPage) HeaderConfig() *models.AiConfig {
	if p.Activation == nil {
		return nil
	}
	return p.Activation.Config
}

// PageContext re-reads the document so each message sees its current state.
func (p *loadedPage) PageContext(context.Context) (models.PageContext, error) {
	if p.Doc == nil {
		return p.Context, nil
	}
	return aiconfig.ApplyTo(p.Doc.Context(), p.HeaderConfig()), nil
}

// Page returns the document to apply replies to, or nil.
func (p *loadedPage) Page() pagecontext.Page {
	if p.Doc == nil {
		return nil
	}
	return p.Doc
}

// printNotifier shows trigger notifications on the terminal.
type printNotifier struct {
	out io.Writer
}

func (n printNotifier) Notify(_ context.Context, _ int, msg models.TriggerNotification) error {
	line := "AI assist enabled by " + msg.URL
	if msg.HeaderConfig != nil {
		line += fmt.Sprintf(" (header config: %d target(s))", len(msg.HeaderConfig.Targets))
	}
	fmt.Fprintln(n.out, noticeStyle.Render(line))
	return nil
}

// loadPage opens a local HTML file or fetches a URL. Fetched pages go through
// the header trigger exactly like a browser navigation would.
func loadPage(ctx context.Context, source string, out io.Writer, log zerolog.Logger) *loadedPage {
	if raw, err := os.ReadFile(source); err == nil {
		return fromBody(source, raw, nil)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	fetched, err := pagecontext.Fetch(fetchCtx, &http.Client{Timeout: fetchTimeout}, normalizeURL(source))
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("Page unreachable")
		return &loadedPage{Source: source, Context: pagecontext.Unreachable(source)}
	}

	detector := trigger.NewDetector(printNotifier{out: out}, trigger.DefaultRetryDelay, log)
	act, activated := detector.Inspect(ctx, trigger.Navigation{
		URL:       fetched.URL,
		FrameType: trigger.FrameMain,
		Headers:   trigger.HeadersFromHTTP(fetched.Header),
	})
	// Close waits for the notification so it prints before the prompt.
	detector.Close()

	var activation *trigger.Activation
	if activated {
		activation = &act
	}
	return fromBody(fetched.URL, fetched.Body, activation)
}

func fromBody(source string, body []byte, act *trigger.Activation) *loadedPage {
	p := &loadedPage{Source: source, Activation: act}
	doc, err := pagecontext.NewDocument(bytes.NewReader(body))
	if err != nil {
		p.Context = aiconfig.ApplyTo(pagecontext.Unreachable(source), p.HeaderConfig())
		return p
	}
	p.Doc = doc
	p.Context = aiconfig.ApplyTo(doc.Context(), p.HeaderConfig())
	return p
}

func normalizeURL(s string) string {
	if strings.Contains(s, "://") {
		return s
	}
	return "https://" + s
}
