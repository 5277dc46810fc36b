package extract

import (
	nurl "net/url"
	"time"

	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/render"
)

// Field locates one value on a page. An empty Attr means the element's text.
type Field struct {
	Selector string
	Attr     string
}

// SelectorSet lists where a retailer keeps its product fields.
type SelectorSet struct {
	Title Field
	Price Field
	Image Field

	// WaitFor is an element worth waiting for before reading the page,
	// for shops that render the product client-side.
	WaitFor     string
	WaitTimeout time.Duration
}

// platformSelectors is the per-retailer selector table. Platforms missing
// from the table have no platform-specific strategy.
var platformSelectors = map[models.Platform]SelectorSet{
	models.PlatformBigGo: {
		Title: Field{Selector: `meta[property="og:title"]`, Attr: "content"},
		Image: Field{Selector: `meta[property="og:image"]`, Attr: "content"},
	},
	models.PlatformMomo: {
		Title: Field{Selector: ".pTitleName"},
		Price: Field{Selector: ".price.text"},
		Image: Field{Selector: ".jqzoom", Attr: "src"},
	},
	models.PlatformPChome: {
		Title: Field{Selector: ".prod_name"},
		Price: Field{Selector: ".price .val"},
		Image: Field{Selector: ".prod_img img", Attr: "src"},
	},
	models.PlatformShopee: {
		Title:       Field{Selector: ".pdp-mod-product-badge-title"},
		Price:       Field{Selector: ".pdp-mod-product-price"},
		WaitFor:     ".pdp-mod-product-badge-title",
		WaitTimeout: 5 * time.Second,
	},
}

// selectorsFor returns the selector set of a platform.
func selectorsFor(p models.Platform) (SelectorSet, bool) {
	set, ok := platformSelectors[p]
	return set, ok
}

// read returns the field's value, or "" on a miss.
func (f Field) read(doc render.Document) string {
	if f.Selector == "" {
		return ""
	}
	if f.Attr == "" {
		text, _ := doc.QueryText(f.Selector)
		return text
	}
	value, _ := doc.QueryAttribute(f.Selector, f.Attr)
	return value
}

// selectorStrategy reads fields from retailer-specific markup.
type selectorStrategy struct {
	platform models.Platform
	set      SelectorSet
}

func newSelectorStrategy(p models.Platform) (Strategy, bool) {
	set, ok := selectorsFor(p)
	if !ok {
		return nil, false
	}
	return selectorStrategy{platform: p, set: set}, true
}

func (s selectorStrategy) Name() string { return "selector:" + string(s.platform) }

func (s selectorStrategy) Attempt(doc render.Document) Partial {
	return Partial{
		Title:    nonEmpty(s.set.Title.read(doc)),
		Price:    positive(NormalizePrice(s.set.Price.read(doc))),
		ImageURL: nonEmpty(resolveURL(doc.URL(), s.set.Image.read(doc))),
	}
}

// resolveURL makes ref absolute against base. Unparsable input is returned
// unchanged.
func resolveURL(base, ref string) string {
	if ref == "" || base == "" {
		return ref
	}
	b, err := nurl.Parse(base)
	if err != nil {
		return ref
	}
	r, err := nurl.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
