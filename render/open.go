package render

import (
	"fmt"
	"strings"

	"github.com/use-agent/pricewatch/config"
)

// Renderer names accepted by New.
const (
	KindBrowser = "browser"
	KindHTTP    = "http"
)

// New builds the renderer selected by browserCfg.Renderer. The returned
// function releases the renderer's resources (the browser process, if any).
func New(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (Renderer, func() error, error) {
	switch strings.ToLower(browserCfg.Renderer) {
	case KindBrowser, "":
		r, err := NewRodRenderer(browserCfg, scraperCfg)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case KindHTTP:
		return NewHTTPRenderer(scraperCfg.UserAgent), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("render: unknown renderer %q", browserCfg.Renderer)
	}
}
