// Package browser manages remote-debugging sessions against a local
// Firefox instance: connecting to an already-running browser, spawning a
// fresh one (optionally headless, optionally with a copied user profile),
// resolving the active page, and tearing everything down deterministically.
package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/skillet-sh/skillet/pkg/osutil"
)

// DefaultPort is the well-known local remote-debugging port. The CLI layer
// may override it via flag or environment and threads the resolved value in
// as an Endpoint; nothing below the CLI reads ambient environment state.
const DefaultPort = 9222

// Endpoint identifies a local remote-debugging listener.
type Endpoint struct {
	Host string
	Port int
}

// DefaultEndpoint returns the loopback endpoint on the well-known port.
func DefaultEndpoint() Endpoint {
	return Endpoint{Host: "127.0.0.1", Port: DefaultPort}
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// VersionURL is the HTTP handshake URL of the debugging listener.
func (e Endpoint) VersionURL() string {
	return fmt.Sprintf("http://%s/json/version", e.String())
}

// ListURL enumerates open targets (tabs and frames) as a flat list.
func (e Endpoint) ListURL() string {
	return fmt.Sprintf("http://%s/json/list", e.String())
}

// Ownership records whether a session's browser process belongs to us.
type Ownership int

const (
	// OwnershipReused marks a session against a pre-existing browser.
	// Release closes the connection and leaves the browser running.
	OwnershipReused Ownership = iota
	// OwnershipSpawned marks a session whose browser this process started.
	// Release terminates the browser's process group.
	OwnershipSpawned
)

// Session is a live connection handle to a browser instance.
type Session struct {
	Endpoint  Endpoint
	Ownership Ownership

	allocCtx    context.Context
	allocCancel context.CancelFunc
	proc        *os.Process
}

// newSession builds a session over the browser-level WebSocket URL. The
// allocator is lazy: no connection is dialed until the first page action.
func newSession(ep Endpoint, wsURL string) *Session {
	allocCtx, cancel := chromedp.NewRemoteAllocator(context.Background(), wsURL, chromedp.NoModifyURL)
	return &Session{
		Endpoint:    ep,
		Ownership:   OwnershipReused,
		allocCtx:    allocCtx,
		allocCancel: cancel,
	}
}

// adopt marks the session as owning the given spawned process.
func (s *Session) adopt(proc *os.Process) {
	s.Ownership = OwnershipSpawned
	s.proc = proc
}

// Pid returns the owned process id, or 0 for reused sessions.
func (s *Session) Pid() int {
	if s.proc == nil {
		return 0
	}
	return s.proc.Pid
}

// Detach relinquishes ownership of the spawned process so that Release
// leaves the browser running. Used by `browser launch`, where the whole
// point is a browser that outlives the CLI invocation.
func (s *Session) Detach() {
	s.Ownership = OwnershipReused
	s.proc = nil
}

// PageContext returns a chromedp context attached to the given page.
// Cancel it when the operation completes.
func (s *Session) PageContext(ref PageReference) (context.Context, context.CancelFunc) {
	return chromedp.NewContext(s.allocCtx, chromedp.WithTargetID(target.ID(ref.TargetID)))
}

// close tears down the connection. For spawned sessions the whole process
// group is terminated as well; for reused sessions the browser keeps
// running. This distinction must hold on every exit path, so callers go
// through Manager.Release (or WithSession) rather than calling this ad hoc.
func (s *Session) close() error {
	var result *multierror.Error

	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}

	if s.Ownership == OwnershipSpawned && s.proc != nil {
		if err := osutil.KillProcessGroup(s.proc.Pid); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "terminating spawned browser"))
		}
		s.proc = nil
	}

	return result.ErrorOrNil()
}
