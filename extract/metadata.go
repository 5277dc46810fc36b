package extract

import (
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/use-agent/pricewatch/render"
)

// metadataStrategy runs readability over the page and keeps the metadata it
// collects (title and lead image, including twitter:image and similar).
type metadataStrategy struct{}

func (metadataStrategy) Name() string { return "metadata" }

func (metadataStrategy) Attempt(doc render.Document) Partial {
	parsedURL, err := nurl.Parse(doc.URL())
	if err != nil {
		return Partial{}
	}
	article, err := readability.FromReader(strings.NewReader(doc.FullMarkup()), parsedURL)
	if err != nil {
		return Partial{}
	}
	return Partial{
		Title:    nonEmpty(article.Title),
		ImageURL: nonEmpty(article.Image),
	}
}
