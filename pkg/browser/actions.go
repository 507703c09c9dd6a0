package browser

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
)

// Each operation here is a single call against a resolved page handle. The
// wire protocol underneath is chromedp's business, not ours.

// NavigateResult reports where a navigation ended up after redirects.
type NavigateResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Navigate loads the URL in the given page and waits for the body to be ready.
func Navigate(ctx context.Context, s *Session, ref PageReference, rawURL string, timeout time.Duration) (*NavigateResult, error) {
	pageCtx, cancel := s.PageContext(ref)
	defer cancel()
	pageCtx, cancelTimeout := context.WithTimeout(pageCtx, timeout)
	defer cancelTimeout()

	var result NavigateResult
	err := chromedp.Run(pageCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Location(&result.URL),
		chromedp.Title(&result.Title),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "navigating to %s", rawURL)
	}
	return &result, nil
}

// Evaluate runs a JavaScript expression in the page and returns the raw
// JSON-encoded result.
func Evaluate(ctx context.Context, s *Session, ref PageReference, expression string, timeout time.Duration) (json.RawMessage, error) {
	pageCtx, cancel := s.PageContext(ref)
	defer cancel()
	pageCtx, cancelTimeout := context.WithTimeout(pageCtx, timeout)
	defer cancelTimeout()

	var raw json.RawMessage
	if err := chromedp.Run(pageCtx, chromedp.Evaluate(expression, &raw)); err != nil {
		return nil, errors.Wrap(err, "evaluating expression")
	}
	return raw, nil
}

// Screenshot captures the full page as PNG.
func Screenshot(ctx context.Context, s *Session, ref PageReference, timeout time.Duration) ([]byte, error) {
	pageCtx, cancel := s.PageContext(ref)
	defer cancel()
	pageCtx, cancelTimeout := context.WithTimeout(pageCtx, timeout)
	defer cancelTimeout()

	var buf []byte
	if err := chromedp.Run(pageCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, errors.Wrap(err, "capturing screenshot")
	}
	return buf, nil
}

// Cookie is one browser cookie, trimmed to the fields the CLI reports.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

// Cookies lists the cookies visible to the page, optionally filtered to a
// domain suffix.
func Cookies(ctx context.Context, s *Session, ref PageReference, domain string, timeout time.Duration) ([]Cookie, error) {
	pageCtx, cancel := s.PageContext(ref)
	defer cancel()
	pageCtx, cancelTimeout := context.WithTimeout(pageCtx, timeout)
	defer cancelTimeout()

	var cookies []Cookie
	err := chromedp.Run(pageCtx, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		all, err := network.GetCookies().Do(cdpCtx)
		if err != nil {
			return err
		}
		for _, c := range all {
			if domain != "" && !hasDomainSuffix(c.Domain, domain) {
				continue
			}
			cookies = append(cookies, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, errors.Wrap(err, "listing cookies")
	}
	return cookies, nil
}

func hasDomainSuffix(cookieDomain, want string) bool {
	if cookieDomain == want {
		return true
	}
	trimmed := cookieDomain
	if len(trimmed) > 0 && trimmed[0] == '.' {
		trimmed = trimmed[1:]
	}
	if trimmed == want {
		return true
	}
	return len(trimmed) > len(want) && trimmed[len(trimmed)-len(want)-1] == '.' && trimmed[len(trimmed)-len(want):] == want
}

// PageHTML returns the page's full outer HTML.
func PageHTML(ctx context.Context, s *Session, ref PageReference, timeout time.Duration) (string, error) {
	pageCtx, cancel := s.PageContext(ref)
	defer cancel()
	pageCtx, cancelTimeout := context.WithTimeout(pageCtx, timeout)
	defer cancelTimeout()

	var html string
	if err := chromedp.Run(pageCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", errors.Wrap(err, "reading page HTML")
	}
	return html, nil
}
