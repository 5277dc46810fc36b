package render

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Snapshot is a Document backed by a parsed copy of the rendered HTML.
// Queries never touch the browser, so a Snapshot stays usable even if the
// page navigates away after rendering.
type Snapshot struct {
	url    string
	title  string
	text   string
	markup string
	doc    *goquery.Document

	closeOnce sync.Once
	closeFn   func() error
	closeErr  error
}

// NewDocument parses markup into a Snapshot. text is the page's visible text
// as reported by the browser; when empty it is derived from the markup.
func NewDocument(pageURL, markup, title, text string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if text == "" {
		text = visibleText(doc)
	}
	return &Snapshot{
		url:    pageURL,
		title:  title,
		text:   text,
		markup: markup,
		doc:    doc,
	}, nil
}

// OnClose registers the function that releases the underlying session.
func (s *Snapshot) OnClose(fn func() error) {
	s.closeFn = fn
}

func (s *Snapshot) QueryText(selector string) (string, bool) {
	sel, ok := s.first(selector)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

func (s *Snapshot) QueryAttribute(selector, attr string) (string, bool) {
	sel, ok := s.first(selector)
	if !ok {
		return "", false
	}
	return sel.Attr(attr)
}

func (s *Snapshot) QueryAllText(selector string) []string {
	m, ok := compileSelector(selector)
	if !ok {
		return nil
	}
	var out []string
	s.doc.FindMatcher(m).Each(func(_ int, el *goquery.Selection) {
		out = append(out, el.Text())
	})
	return out
}

func (s *Snapshot) FullText() string   { return s.text }
func (s *Snapshot) FullMarkup() string { return s.markup }
func (s *Snapshot) PageTitle() string  { return s.title }
func (s *Snapshot) URL() string        { return s.url }

// Close runs the registered release function once.
func (s *Snapshot) Close() error {
	s.closeOnce.Do(func() {
		if s.closeFn != nil {
			s.closeErr = s.closeFn()
		}
	})
	return s.closeErr
}

func (s *Snapshot) first(selector string) (*goquery.Selection, bool) {
	m, ok := compileSelector(selector)
	if !ok {
		return nil, false
	}
	sel := s.doc.FindMatcher(m).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return sel, true
}

// selectorCache holds compiled selectors keyed by their source text.
// Invalid selectors are cached as nil so they fail fast on reuse.
var selectorCache sync.Map

func compileSelector(selector string) (cascadia.Selector, bool) {
	if v, ok := selectorCache.Load(selector); ok {
		m, _ := v.(cascadia.Selector)
		return m, m != nil
	}
	m, err := cascadia.Compile(selector)
	if err != nil {
		selectorCache.Store(selector, cascadia.Selector(nil))
		return nil, false
	}
	selectorCache.Store(selector, m)
	return m, true
}

// visibleText approximates innerText: body text without script, style and
// noscript content, whitespace collapsed.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	if body.Length() == 0 {
		return ""
	}
	body.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}
