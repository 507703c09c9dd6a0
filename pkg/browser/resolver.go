package browser

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// PageReference is a handle to one browsing context within a session.
type PageReference struct {
	TargetID string
	URL      string
	Title    string
	TopLevel bool
}

// TargetInfo is one entry of the flat /json/list enumeration. Embedded
// iframes appear in the list alongside real tabs, distinguishable only by
// the Type field.
type TargetInfo struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	Title                string `json:"title"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// ResolvePage picks the "current" page of the session: the most recently
// opened top-level context. Recency is approximated by enumeration order
// (last wins); the protocol exposes no focus or activation signal, so this
// is a best-effort heuristic, not a guarantee.
func ResolvePage(ctx context.Context, s *Session) (PageReference, error) {
	infos, err := listTargets(ctx, s.Endpoint)
	if err != nil {
		return PageReference{}, err
	}
	return selectActivePage(infos)
}

// ListPages enumerates all targets of the session.
func ListPages(ctx context.Context, s *Session) ([]TargetInfo, error) {
	return listTargets(ctx, s.Endpoint)
}

// selectActivePage filters to top-level contexts and takes the last one.
// When filtering leaves nothing (some builds report every context as a
// frame), it falls back to the last entry of the unfiltered list.
func selectActivePage(infos []TargetInfo) (PageReference, error) {
	if len(infos) == 0 {
		return PageReference{}, errors.WithStack(ErrNoActivePage)
	}

	var pages []TargetInfo
	for _, info := range infos {
		if info.Type == "page" {
			pages = append(pages, info)
		}
	}

	if len(pages) > 0 {
		last := pages[len(pages)-1]
		return PageReference{TargetID: last.ID, URL: last.URL, Title: last.Title, TopLevel: true}, nil
	}

	last := infos[len(infos)-1]
	return PageReference{TargetID: last.ID, URL: last.URL, Title: last.Title}, nil
}

func listTargets(ctx context.Context, ep Endpoint) ([]TargetInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.ListURL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building target list request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, classifyDialError(ep, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrProtocol, "target list: endpoint %s answered HTTP %d", ep, resp.StatusCode)
	}

	var infos []TargetInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, errors.Wrapf(ErrProtocol, "target list: %v", err)
	}

	return infos, nil
}
