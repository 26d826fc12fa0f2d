// Package fetch retrieves court-opinion pages for ingestion, reducing
// them to visible text.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/ksalter/deontica/internal/model"
)

// Result is a fetched page reduced to ingestable text
type Result struct {
	Text        string
	FinalURL    string
	StatusCode  int
	ContentType string
}

// Fetcher fetches a URL with size and redirect caps, honoring robots.txt
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
}

// NewFetcher creates a fetcher from the HTTP configuration
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	transport := &http.Transport{}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		robots:    NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
	}
}

// Fetch retrieves a URL. HTML responses are reduced to visible text;
// anything else is returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if allowed := f.robots.IsAllowed(ctx, rawURL); !allowed {
		return nil, fmt.Errorf("fetch %s: disallowed by robots.txt", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	text := string(body)
	if strings.Contains(contentType, "html") {
		text = visibleText(text)
	}

	return &Result{
		Text:        text,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
	}, nil
}

// visibleText extracts text nodes from HTML, skipping non-content tags.
// A parse failure falls back to the raw input rather than erroring.
func visibleText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String())
}
