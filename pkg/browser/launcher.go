package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/pkg/errors"

	"github.com/skillet-sh/skillet/pkg/osutil"
)

// LaunchSpec describes one browser process to start.
type LaunchSpec struct {
	Binary     string // resolved executable path; empty means auto-detect
	Endpoint   Endpoint
	ProfileDir string
	Headless   bool
}

// Process is an owned browser process handle with deterministic
// termination. The owner must call Terminate on every release path rather
// than relying on handle finalization.
type Process interface {
	Pid() int
	OSProcess() *os.Process
	Terminate() error
	// Done yields the process exit code once, when the process exits.
	Done() <-chan int
}

// Launcher starts browser processes. Split out as an interface so the
// Manager's acquire paths can be exercised without a real Firefox install.
type Launcher interface {
	// Start spawns a persistent browser in its own process group, detached
	// from the CLI's lifetime, listening on the spec's endpoint.
	Start(ctx context.Context, spec LaunchSpec) (Process, error)
	// StartHeadless spawns a single-shot headless browser with no
	// pre-agreed port; the returned reader carries the child's output
	// stream, on which the one-time endpoint announcement appears.
	StartHeadless(ctx context.Context, spec LaunchSpec) (Process, io.ReadCloser, error)
}

// FirefoxLauncher locates and spawns Firefox.
type FirefoxLauncher struct{}

// NewLauncher returns the default Firefox launcher.
func NewLauncher() *FirefoxLauncher {
	return &FirefoxLauncher{}
}

// FindFirefox locates the Firefox executable: PATH first, then the
// conventional install locations for the platform.
func FindFirefox() (string, error) {
	if path, err := exec.LookPath("firefox"); err == nil {
		return path, nil
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"/Applications/Firefox.app/Contents/MacOS/firefox"}
	case "windows":
		candidates = []string{
			filepath.Join(os.Getenv("ProgramFiles"), "Mozilla Firefox", "firefox.exe"),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "Mozilla Firefox", "firefox.exe"),
		}
	default:
		candidates = []string{"/usr/bin/firefox", "/usr/local/bin/firefox", "/snap/bin/firefox"}
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", errors.New("firefox executable not found; install Firefox or pass --browser-bin")
}

func buildArgs(spec LaunchSpec) []string {
	args := []string{
		"--remote-debugging-port", strconv.Itoa(spec.Endpoint.Port),
		"--no-remote",
	}
	if spec.ProfileDir != "" {
		args = append(args, "--profile", spec.ProfileDir)
	}
	if spec.Headless {
		args = append(args, "--headless")
	}
	return args
}

// Start spawns a persistent browser. The child runs in its own process
// group so the CLI can exit while the browser keeps running; the caller
// retains the handle for later termination.
func (l *FirefoxLauncher) Start(ctx context.Context, spec LaunchSpec) (Process, error) {
	binary, err := resolveBinary(spec)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binary, buildArgs(spec)...)
	cmd.SysProcAttr = &osutil.DetachSysProcAttr
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Cancel = func() error { return nil } // lifetime is ours, not the context's

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "launching %s", binary)
	}

	return newFirefoxProcess(cmd), nil
}

// StartHeadless spawns a headless single-shot browser and hands back its
// combined output stream. Port 0 lets the browser pick a free port, which
// it then announces on the stream.
func (l *FirefoxLauncher) StartHeadless(ctx context.Context, spec LaunchSpec) (Process, io.ReadCloser, error) {
	binary, err := resolveBinary(spec)
	if err != nil {
		return nil, nil, err
	}

	cmd := exec.CommandContext(ctx, binary, buildArgs(spec)...)
	cmd.SysProcAttr = &osutil.DetachSysProcAttr
	cmd.Cancel = func() error { return nil }

	// The "DevTools listening" announcement has moved between stderr and
	// stdout across releases; watch both through one pipe.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, nil, errors.Wrapf(err, "launching %s", binary)
	}

	proc := newFirefoxProcess(cmd)
	go func() {
		<-proc.Done()
		pw.Close()
	}()

	return proc, pr, nil
}

func resolveBinary(spec LaunchSpec) (string, error) {
	if spec.Binary != "" {
		return spec.Binary, nil
	}
	return FindFirefox()
}

type firefoxProcess struct {
	cmd  *exec.Cmd
	done chan int
}

func newFirefoxProcess(cmd *exec.Cmd) *firefoxProcess {
	p := &firefoxProcess{cmd: cmd, done: make(chan int, 1)}
	go func() {
		err := cmd.Wait()
		code := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else if err != nil {
			code = -1
		}
		p.done <- code
		close(p.done)
	}()
	return p
}

func (p *firefoxProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *firefoxProcess) OSProcess() *os.Process {
	return p.cmd.Process
}

func (p *firefoxProcess) Terminate() error {
	if err := osutil.KillProcessGroup(p.cmd.Process.Pid); err != nil {
		return errors.Wrap(err, fmt.Sprintf("terminating browser pid %d", p.cmd.Process.Pid))
	}
	return nil
}

func (p *firefoxProcess) Done() <-chan int {
	return p.done
}
