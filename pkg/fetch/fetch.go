// Package fetch retrieves a URL and renders it as markdown: HTTPS-only for
// external hosts, same-domain redirects, binary content rejected, HTML
// stripped of non-content elements before conversion.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/skillet-sh/skillet/pkg/logger"
)

const maxRedirects = 10

// Result is the fetched document.
type Result struct {
	URL         string
	ContentType string
	Markdown    string
}

// Fetch retrieves the URL and converts HTML responses to markdown.
// Markdown and plain-text responses pass through unchanged.
func Fetch(ctx context.Context, rawURL string) (*Result, error) {
	body, contentType, err := fetchWithSameDomainRedirects(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	content := body
	if strings.Contains(contentType, "text/html") {
		content = ToMarkdown(ctx, body)
	}

	return &Result{URL: rawURL, ContentType: contentType, Markdown: content}, nil
}

func isLocalHost(hostname string) bool {
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" || hostname == "0.0.0.0" {
		return true
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

func validateScheme(u *url.URL) error {
	if u.Scheme == "https" {
		return nil
	}
	if u.Scheme == "http" && isLocalHost(u.Hostname()) {
		return nil
	}
	return errors.New("only HTTPS is supported for external domains; HTTP is allowed for localhost")
}

// fetchWithSameDomainRedirects follows redirects only within the original
// domain, up to maxRedirects.
func fetchWithSameDomainRedirects(ctx context.Context, rawURL string) (string, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Wrap(err, "invalid URL")
	}
	if err := validateScheme(parsed); err != nil {
		return "", "", err
	}
	originalDomain := parsed.Hostname()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.URL.Hostname() != originalDomain {
				return errors.Errorf("redirect to different domain not allowed: %s -> %s",
					originalDomain, req.URL.Hostname())
			}
			if len(via) >= maxRedirects {
				return errors.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", errors.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if isBinaryContentType(contentType) {
		return "", "", errors.Errorf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	return string(body), contentType, nil
}

func isBinaryContentType(contentType string) bool {
	for _, prefix := range []string{
		"application/octet-stream", "application/zip", "application/pdf",
		"image/", "audio/", "video/",
	} {
		if strings.Contains(contentType, prefix) {
			return true
		}
	}
	return false
}

// ToMarkdown converts HTML to markdown, first dropping elements that carry
// no content (scripts, styles, frames, navigation chrome). Conversion
// failures fall back to the raw HTML with a warning rather than failing
// the whole fetch.
func ToMarkdown(ctx context.Context, html string) string {
	cleaned := stripNonContent(html)

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(cleaned)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to convert HTML to markdown, returning raw HTML")
		return html
	}
	return strings.TrimSpace(markdown)
}

func stripNonContent(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript, iframe, svg, nav, header, footer").Remove()
	out, err := doc.Html()
	if err != nil {
		return html
	}
	return out
}
