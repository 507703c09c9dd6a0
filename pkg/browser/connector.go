package browser

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Connector establishes sessions against a remote-debugging endpoint.
// Implementations never retry; bounded retry policy belongs to the Manager.
type Connector interface {
	Connect(ctx context.Context, ep Endpoint, timeout time.Duration) (*Session, error)
}

// HTTPConnector performs the standard handshake: fetch /json/version over
// HTTP and open a lazy allocator on the advertised WebSocket URL.
type HTTPConnector struct {
	client *http.Client
}

// NewConnector returns a Connector over a plain HTTP client.
func NewConnector() *HTTPConnector {
	return &HTTPConnector{client: &http.Client{}}
}

type versionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Connect attempts one bounded-time handshake against the endpoint.
// Failures are classified as ErrConnectionRefused (nothing listening),
// ErrTimeout (handshake exceeded the deadline), or ErrProtocol (listener
// present but the response was not a debugging endpoint).
func (c *HTTPConnector) Connect(ctx context.Context, ep Endpoint, timeout time.Duration) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.VersionURL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building handshake request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyDialError(ep, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrProtocol, "endpoint %s answered HTTP %d", ep, resp.StatusCode)
	}

	var info versionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrapf(ErrProtocol, "endpoint %s returned malformed handshake: %v", ep, err)
	}
	if info.WebSocketDebuggerURL == "" {
		return nil, errors.Wrapf(ErrProtocol, "endpoint %s advertises no debugger URL", ep)
	}

	return newSession(ep, info.WebSocketDebuggerURL), nil
}

func classifyDialError(ep Endpoint, err error) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return errors.Wrapf(ErrConnectionRefused, "endpoint %s", ep)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrapf(ErrTimeout, "endpoint %s", ep)
	}

	return errors.Wrapf(ErrProtocol, "endpoint %s: %v", ep, err)
}
