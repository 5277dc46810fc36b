package render

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/pricewatch/models"
	"golang.org/x/net/html"
)

// maxBody caps how much of a response the HTTP renderer reads.
const maxBody = 10 << 20

// HTTPRenderer fetches pages without a browser. It is fast but runs no
// JavaScript, so it only suits shops that render prices server-side.
type HTTPRenderer struct {
	client    *http.Client
	userAgent string
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPRenderer creates an HTTPRenderer with a Chrome-like TLS fingerprint.
func NewHTTPRenderer(userAgent string) *HTTPRenderer {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_renderer: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return newHTTPRenderer(&http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}, userAgent)
}

func newHTTPRenderer(client *http.Client, userAgent string) *HTTPRenderer {
	return &HTTPRenderer{client: client, userAgent: userAgent}
}

func (r *HTTPRenderer) Name() string { return "http" }

// Load fetches url and parses the response. WaitSelector is ignored since
// nothing runs after the response arrives.
func (r *HTTPRenderer) Load(ctx context.Context, url string, opts LoadOptions) (Document, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeRenderFailure, "invalid product URL", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, categorizeError(err, "request to product page failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, categorizeError(err, "failed to read product page")
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return nil, models.NewScrapeError(
			models.ErrCodeRenderFailure,
			fmt.Sprintf("product page returned status %d (content-type: %s)", resp.StatusCode, ct),
			nil,
		)
	}

	markup := string(body)
	doc, err := NewDocument(resp.Request.URL.String(), markup, extractTitle(markup), "")
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeScrapeError, "failed to parse product page", err)
	}
	return doc, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
