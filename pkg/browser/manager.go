package browser

import (
	"bufio"
	"context"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/skillet-sh/skillet/pkg/logger"
)

// Mode selects how a session is obtained.
type Mode int

const (
	// ReuseOnly connects to an already-running browser and fails with
	// ErrNoBrowserRunning when none is listening. No process is spawned.
	ReuseOnly Mode = iota
	// SpawnFresh reuses a running browser when one is listening, otherwise
	// spawns a new one and polls until it is reachable.
	SpawnFresh
	// SpawnHeadless spawns a single-shot headless browser with an
	// ephemeral profile and an announced (not pre-agreed) endpoint.
	SpawnHeadless
)

// LaunchRequest describes how to obtain a session. Ephemeral, never persisted.
type LaunchRequest struct {
	Mode        Mode
	CopyProfile bool   // copy the user's profile into the snapshot cache
	ProfileName string // named profile; empty means the default profile
	ProfileDir  string // explicit profile directory; overrides provisioning
	Headless    bool
	Binary      string // explicit browser executable
}

// Provisioner prepares a sanitized profile directory for a fresh launch.
// Implemented by pkg/profile; failures to find a source profile degrade to
// a fresh empty profile, not an abort.
type Provisioner interface {
	Provision(ctx context.Context, profileName string, copySource bool) (string, error)
}

// Manager is the session lifecycle controller. It owns all retry policy:
// the connector below it never retries, and every wait here is bounded.
type Manager struct {
	endpoint    Endpoint
	connector   Connector
	launcher    Launcher
	provisioner Provisioner

	connectTimeout time.Duration // single interactive handshake attempt
	pollInterval   time.Duration
	pollAttempts   uint
	launchWindow   time.Duration // headless announcement window
}

// Option configures a Manager.
type Option func(*Manager)

// WithConnector overrides the transport connector.
func WithConnector(c Connector) Option {
	return func(m *Manager) { m.connector = c }
}

// WithLauncher overrides the process launcher.
func WithLauncher(l Launcher) Option {
	return func(m *Manager) { m.launcher = l }
}

// WithProvisioner sets the profile provisioner used by spawn-fresh
// requests that ask for a profile copy.
func WithProvisioner(p Provisioner) Option {
	return func(m *Manager) { m.provisioner = p }
}

// WithConnectTimeout bounds a single handshake attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) { m.connectTimeout = d }
}

// WithPolling sets the fixed interval and bounded attempt count used while
// waiting for a spawned browser to come up.
func WithPolling(interval time.Duration, attempts uint) Option {
	return func(m *Manager) {
		m.pollInterval = interval
		m.pollAttempts = attempts
	}
}

// NewManager creates a lifecycle controller for the given endpoint.
func NewManager(ep Endpoint, opts ...Option) *Manager {
	m := &Manager{
		endpoint:       ep,
		connector:      NewConnector(),
		launcher:       NewLauncher(),
		connectTimeout: 3 * time.Second,
		pollInterval:   500 * time.Millisecond,
		pollAttempts:   30,
		launchWindow:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire obtains a session per the request. Every returned session must be
// handed to Release (or obtained through WithSession) so that spawned
// processes are terminated and connections closed on all exit paths.
func (m *Manager) Acquire(ctx context.Context, req LaunchRequest) (*Session, error) {
	switch req.Mode {
	case ReuseOnly:
		return m.acquireReuse(ctx)
	case SpawnFresh:
		return m.acquireSpawn(ctx, req)
	case SpawnHeadless:
		return m.acquireHeadless(ctx, req)
	default:
		return nil, errors.Errorf("unknown launch mode %d", req.Mode)
	}
}

// Release tears the session down: spawned browsers are terminated along
// with their process group, reused browsers keep running.
func (m *Manager) Release(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	if err := s.close(); err != nil {
		logger.G(ctx).WithError(err).Warn("session release was not fully clean")
		return err
	}
	return nil
}

// WithSession runs fn inside an acquire/release bracket. Release happens on
// every exit path, including when fn fails or panics.
func (m *Manager) WithSession(ctx context.Context, req LaunchRequest, fn func(*Session) error) (err error) {
	s, acquireErr := m.Acquire(ctx, req)
	if acquireErr != nil {
		return acquireErr
	}
	defer func() {
		if releaseErr := m.Release(ctx, s); releaseErr != nil {
			err = multierror.Append(err, releaseErr).ErrorOrNil()
		}
	}()
	return fn(s)
}

func (m *Manager) acquireReuse(ctx context.Context) (*Session, error) {
	s, err := m.connector.Connect(ctx, m.endpoint, m.connectTimeout)
	if err != nil {
		return nil, errors.Wrapf(ErrNoBrowserRunning,
			"no browser listening on %s (%v); start one with `skillet browser launch`", m.endpoint, err)
	}
	return s, nil
}

func (m *Manager) acquireSpawn(ctx context.Context, req LaunchRequest) (*Session, error) {
	log := logger.G(ctx)

	// Idempotent: a listener already present is a success, not a conflict.
	if s, err := m.connector.Connect(ctx, m.endpoint, m.connectTimeout); err == nil {
		log.WithField("endpoint", m.endpoint.String()).Debug("browser already running, reusing")
		return s, nil
	}

	profileDir, err := m.resolveProfileDir(ctx, req)
	if err != nil {
		return nil, err
	}

	proc, err := m.launcher.Start(ctx, LaunchSpec{
		Binary:     req.Binary,
		Endpoint:   m.endpoint,
		ProfileDir: profileDir,
		Headless:   req.Headless,
	})
	if err != nil {
		return nil, err
	}
	log.WithField("pid", proc.Pid()).Info("browser launched")

	var s *Session
	err = retry.Do(
		func() error {
			select {
			case code := <-proc.Done():
				return retry.Unrecoverable(&ProcessExitedError{Code: code})
			default:
			}
			var cerr error
			s, cerr = m.connector.Connect(ctx, m.endpoint, m.pollInterval)
			return cerr
		},
		retry.Attempts(m.pollAttempts),
		retry.Delay(m.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		_ = proc.Terminate()
		var exited *ProcessExitedError
		if errors.As(err, &exited) {
			return nil, exited
		}
		return nil, errors.Wrapf(ErrLaunchTimeout,
			"browser did not become reachable on %s after %d attempts", m.endpoint, m.pollAttempts)
	}

	s.adopt(proc.OSProcess())
	return s, nil
}

var announcementRe = regexp.MustCompile(`DevTools listening on (ws://\S+)`)

func (m *Manager) acquireHeadless(ctx context.Context, req LaunchRequest) (*Session, error) {
	profileDir, err := m.resolveProfileDir(ctx, req)
	if err != nil {
		return nil, err
	}

	proc, output, err := m.launcher.StartHeadless(ctx, LaunchSpec{
		Binary:     req.Binary,
		Endpoint:   Endpoint{Host: "127.0.0.1", Port: 0},
		ProfileDir: profileDir,
		Headless:   true,
	})
	if err != nil {
		return nil, err
	}

	wsURL, err := awaitAnnouncement(ctx, output, proc, m.launchWindow)
	if err != nil {
		_ = proc.Terminate()
		return nil, err
	}

	ep, err := endpointFromWSURL(wsURL)
	if err != nil {
		_ = proc.Terminate()
		return nil, err
	}

	s := newSession(ep, wsURL)
	s.adopt(proc.OSProcess())
	return s, nil
}

// awaitAnnouncement races three outcomes: the one-time "DevTools listening"
// line on the child's output stream, the child exiting first, and a bounded
// timer. Exactly one wins; the stream keeps draining afterwards so the
// child never blocks on a full pipe.
func awaitAnnouncement(ctx context.Context, output io.Reader, proc Process, window time.Duration) (string, error) {
	announced := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(output)
		for scanner.Scan() {
			if match := announcementRe.FindStringSubmatch(scanner.Text()); match != nil {
				select {
				case announced <- match[1]:
				default:
				}
			}
		}
	}()

	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case wsURL := <-announced:
		return wsURL, nil
	case code := <-proc.Done():
		return "", &ProcessExitedError{Code: code}
	case <-timer.C:
		return "", errors.Wrapf(ErrLaunchTimeout, "no endpoint announcement within %s", window)
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "waiting for endpoint announcement")
	}
}

func endpointFromWSURL(wsURL string) (Endpoint, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return Endpoint{}, errors.Wrapf(ErrProtocol, "announced endpoint %q is not a URL", wsURL)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil || u.Hostname() == "" || port == 0 {
		return Endpoint{}, errors.Wrapf(ErrProtocol, "announced endpoint %q has no host:port", wsURL)
	}
	return Endpoint{Host: u.Hostname(), Port: port}, nil
}

func (m *Manager) resolveProfileDir(ctx context.Context, req LaunchRequest) (string, error) {
	if req.ProfileDir != "" {
		return req.ProfileDir, nil
	}
	if m.provisioner == nil {
		return "", nil
	}
	dir, err := m.provisioner.Provision(ctx, req.ProfileName, req.CopyProfile)
	if err != nil {
		return "", err
	}
	return dir, nil
}
