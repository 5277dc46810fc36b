package extract

import "github.com/use-agent/pricewatch/render"

// openGraphStrategy reads the og:title and og:image meta tags.
type openGraphStrategy struct{}

func (openGraphStrategy) Name() string { return "open_graph" }

func (openGraphStrategy) Attempt(doc render.Document) Partial {
	title, _ := doc.QueryAttribute(`meta[property="og:title"]`, "content")
	image, _ := doc.QueryAttribute(`meta[property="og:image"]`, "content")
	return Partial{
		Title:    nonEmpty(title),
		ImageURL: nonEmpty(image),
	}
}
