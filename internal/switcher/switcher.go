// Package switcher repoints the active PHP symlink and verifies the switch.
//
// The symlink at <bindir>/php is the sole "currently active" state. It is
// swapped by creating the new link at a temporary name and renaming it over
// the old one: a concurrent reader always observes either the old or the new
// target, never a missing or half-written link.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"phpswitcher/internal/registry"
	"phpswitcher/internal/scan"
	"phpswitcher/internal/version"
)

const defaultVerifyTimeout = 5 * time.Second

// LinkName is the stable command name users invoke.
const LinkName = "php"

// LinkError reports a failed symlink creation or swap.
type LinkError struct {
	Target string
	Err    error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("cannot point active link at %s: %v", e.Target, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// VerifyError reports a post-switch verification that did not confirm the
// expected version. The symlink swap already succeeded and is NOT rolled
// back; reverting could race with the user's own follow-up action, so the
// failure is surfaced instead.
type VerifyError struct {
	Link string
	Want version.Version
	Got  version.Version
	Err  error
}

func (e *VerifyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("switched, but verification through %s failed: %v", e.Link, e.Err)
	}
	return fmt.Sprintf("switched, but %s reports %s instead of %s", e.Link, e.Got, e.Want)
}

func (e *VerifyError) Unwrap() error { return e.Err }

// Report describes a completed switch.
type Report struct {
	// Previous is the old active target, empty if never switched before.
	Previous string
	Target   string
	Verified version.Version
	PathHint string
}

// Switcher swaps the active link inside BinDir and verifies through it.
type Switcher struct {
	BinDir string
	Probe  scan.Probe
	// Timeout bounds the verification probe.
	Timeout time.Duration
}

// New returns a Switcher over the default bin directory with an exec-backed
// probe.
func New() (*Switcher, error) {
	bin, err := registry.BinDir()
	if err != nil {
		return nil, err
	}
	return &Switcher{BinDir: bin, Probe: scan.ExecProbe{}}, nil
}

// Active returns the current target of the active link, or "" if the link
// does not exist (never switched).
func (s *Switcher) Active() (string, error) {
	target, err := os.Readlink(filepath.Join(s.BinDir, LinkName))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return target, nil
}

// SwitchTo atomically repoints the active link at rec's binary and verifies
// the new link reports rec's version. SwitchTo is idempotent.
func (s *Switcher) SwitchTo(ctx context.Context, rec registry.Record) (Report, error) {
	if err := os.MkdirAll(s.BinDir, 0o755); err != nil {
		return Report{}, &LinkError{Target: rec.Path, Err: err}
	}

	active := filepath.Join(s.BinDir, LinkName)
	previous, _ := os.Readlink(active)

	tmp := filepath.Join(s.BinDir, fmt.Sprintf(".%s.tmp-%d", LinkName, os.Getpid()))
	_ = os.Remove(tmp)
	if err := os.Symlink(rec.Path, tmp); err != nil {
		return Report{}, &LinkError{Target: rec.Path, Err: err}
	}
	// The rename is the atomicity boundary.
	if err := os.Rename(tmp, active); err != nil {
		_ = os.Remove(tmp)
		return Report{}, &LinkError{Target: rec.Path, Err: err}
	}

	report := Report{
		Previous: previous,
		Target:   rec.Path,
		PathHint: fmt.Sprintf(`export PATH="%s:$PATH"`, s.BinDir),
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Verify through the link itself, not the raw target: this exercises the
	// path a user's shell will take.
	got, err := s.Probe.Version(verifyCtx, active)
	if err != nil {
		return report, &VerifyError{Link: active, Want: rec.Version, Err: err}
	}
	if !version.Equal(got, rec.Version) {
		return report, &VerifyError{Link: active, Want: rec.Version, Got: got}
	}
	report.Verified = got
	return report, nil
}
