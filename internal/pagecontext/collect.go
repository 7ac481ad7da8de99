// Package pagecontext reads the assistant-relevant parts of a page (title,
// description, labelled context blocks and the embedded AI config) and writes
// field values back into it.
package pagecontext

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"formassist-backend/internal/aiconfig"
	"formassist-backend/internal/models"
)

const (
	ContextAttr    = "data-ai-context"
	ConfigElement  = "#ai-config"
	UnknownPageTag = "Unknown page"
)

// Collect snapshots the page read from r. It never fails: unreadable input or
// a broken config element yields empty defaults for the affected parts.
func Collect(r io.Reader) models.PageContext {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return empty("")
	}
	return collect(doc)
}

// Unreachable is the snapshot used when the page cannot be read at all.
func Unreachable(tabTitle string) models.PageContext {
	if strings.TrimSpace(tabTitle) == "" {
		tabTitle = UnknownPageTag
	}
	return empty(tabTitle)
}

func empty(title string) models.PageContext {
	return models.PageContext{
		Title:         title,
		ContextBlocks: []models.ContextBlock{},
		Targets:       []models.TargetField{},
	}
}

func collect(doc *goquery.Document) models.PageContext {
	pc := empty(normalizeSpace(doc.Find("title").First().Text()))

	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		pc.Description = content
	}

	doc.Find("[" + ContextAttr + "]").Each(func(_ int, s *goquery.Selection) {
		label, _ := s.Attr(ContextAttr)
		pc.ContextBlocks = append(pc.ContextBlocks, models.ContextBlock{
			Label:   label,
			Content: strings.TrimSpace(s.Text()),
		})
	})

	if el := doc.Find(ConfigElement).First(); el.Length() > 0 {
		if cfg, err := aiconfig.ParsePage(el.Text()); err == nil {
			if cfg.Targets != nil {
				pc.Targets = cfg.Targets
			}
			pc.Prompt = cfg.Prompt
		}
	}
	return pc
}

// normalizeSpace mirrors how browsers expose document titles.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
