package pagecontext

import (
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"formassist-backend/internal/models"
)

// DispatchedEvent records an event fired on an element of a Document.
type DispatchedEvent struct {
	Selector string
	Event    string
}

// Document is a Page over static HTML. Writes change the parsed tree, so
// HTML renders the filled page.
type Document struct {
	doc *goquery.Document

	mu     sync.Mutex
	events []DispatchedEvent
}

func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// Context snapshots the document as Collect would.
func (d *Document) Context() models.PageContext {
	return collect(d.doc)
}

func (d *Document) Query(selector string) (Element, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return &docElement{doc: d, sel: sel, selector: selector}, true
}

// Find exposes the underlying selection for callers that inspect the tree.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Events returns the events dispatched so far, oldest first.
func (d *Document) Events() []DispatchedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DispatchedEvent, len(d.events))
	copy(out, d.events)
	return out
}

func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

type docElement struct {
	doc      *Document
	sel      *goquery.Selection
	selector string
}

func (e *docElement) Kind() string {
	tag := goquery.NodeName(e.sel)
	if tag != "input" {
		return tag
	}
	t, ok := e.sel.Attr("type")
	if !ok || t == "" {
		return "text"
	}
	return strings.ToLower(t)
}

func (e *docElement) SetValue(v string) {
	switch goquery.NodeName(e.sel) {
	case "textarea":
		e.sel.SetText(v)
	case "select":
		e.sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			val, ok := opt.Attr("value")
			if !ok {
				val = strings.TrimSpace(opt.Text())
			}
			if val == v {
				opt.SetAttr("selected", "selected")
			} else {
				opt.RemoveAttr("selected")
			}
		})
	default:
		e.sel.SetAttr("value", v)
	}
}

func (e *docElement) SetChecked(on bool) {
	if !on {
		e.sel.RemoveAttr("checked")
		return
	}
	if e.Kind() == "radio" {
		if name, ok := e.sel.Attr("name"); ok && name != "" {
			e.doc.doc.Find(`input[type="radio"]`).Each(func(_ int, r *goquery.Selection) {
				if n, _ := r.Attr("name"); n == name {
					r.RemoveAttr("checked")
				}
			})
		}
	}
	e.sel.SetAttr("checked", "checked")
}

func (e *docElement) Dispatch(event string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.doc.events = append(e.doc.events, DispatchedEvent{Selector: e.selector, Event: event})
}
