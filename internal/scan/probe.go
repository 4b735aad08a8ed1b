package scan

import (
	"context"
	"fmt"
	"os/exec"

	"phpswitcher/internal/version"
)

// Probe determines the exact version of a candidate PHP binary. Probing
// spawns a child process in production, so the scanner and the switcher take
// it as a capability interface and tests substitute a fake.
type Probe interface {
	Version(ctx context.Context, path string) (version.Version, error)
}

// ExecProbe runs `<path> -v` and parses the reported version.
type ExecProbe struct{}

func (ExecProbe) Version(ctx context.Context, path string) (version.Version, error) {
	cmd := exec.CommandContext(ctx, path, "-v")
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return version.Version{}, fmt.Errorf("probe %s: %w", path, ctx.Err())
		}
		return version.Version{}, fmt.Errorf("probe %s: %w", path, err)
	}
	v, err := version.FromOutput(string(out))
	if err != nil {
		return version.Version{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return v, nil
}

var _ Probe = ExecProbe{}
