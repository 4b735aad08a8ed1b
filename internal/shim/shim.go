// Package shim redirects PHP tool scripts with hardcoded interpreter
// shebangs through the active link, so composer and friends always run under
// whatever version is currently switched in.
package shim

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a tool's shebang line.
type Kind string

const (
	// KindHardcoded is a shebang naming an absolute interpreter path; the
	// tool is pinned to one installation and needs a shim.
	KindHardcoded Kind = "hardcoded"
	// KindPathAware is a shebang going through env; the tool already honors
	// PATH and is left untouched.
	KindPathAware Kind = "path-aware"
	// KindOther is anything else (no shebang, non-PHP interpreter).
	KindOther Kind = "other"
)

// DefaultToolNames are the PHP tools looked for on PATH.
var DefaultToolNames = []string{
	"composer",
	"phpunit",
	"psalm",
	"phpstan",
	"rector",
	"php-cs-fixer",
	"phpize",
	"php-config",
}

// ErrDisabled is returned by scan/generate while the feature is switched off.
var ErrDisabled = errors.New("tool shims are disabled; run 'phpswitcher tools enable' first")

// WriteError reports a shim that could not be materialized.
type WriteError struct {
	Tool string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write shim for %s: %v", e.Tool, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Tool is one discovered PHP tool script.
type Tool struct {
	Name         string
	OriginalPath string
	Shebang      string
	Kind         Kind
	// ShimPath is set once a shim has been materialized.
	ShimPath string
}

// Manager scans for PHP tools and maintains their shims.
type Manager struct {
	// ShimDir is where shim scripts are written; it sits next to the active
	// link on the user's PATH.
	ShimDir string
	// ActiveLink is the stable interpreter path shims delegate to.
	ActiveLink string
	// Names are the tool names searched for.
	Names []string
	// Enabled gates scanning and generation.
	Enabled bool
}

// Classify inspects a single shebang line. Pure function of the line's bytes.
func Classify(line string) Kind {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "#!") {
		return KindOther
	}
	fields := strings.Fields(line[2:])
	if len(fields) == 0 {
		return KindOther
	}
	interp := fields[0]
	if filepath.Base(interp) == "env" {
		return KindPathAware
	}
	if filepath.IsAbs(interp) && strings.HasPrefix(filepath.Base(interp), "php") {
		return KindHardcoded
	}
	return KindOther
}

// ReadShebang returns the first line of the file at path.
func ReadShebang(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read shebang of %s: %w", path, err)
		}
		return "", fmt.Errorf("read shebang of %s: empty file", path)
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// ScanTools searches pathDirs for the configured tool names and classifies
// each hit. The first directory containing a tool wins, mirroring PATH
// lookup. The scan is a pure read; nothing is written.
func (m *Manager) ScanTools(pathDirs []string) ([]Tool, error) {
	if !m.Enabled {
		return nil, ErrDisabled
	}
	names := m.Names
	if len(names) == 0 {
		names = DefaultToolNames
	}

	var tools []Tool
	for _, name := range names {
		for _, dir := range pathDirs {
			path := filepath.Join(dir, name)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			shebang, err := ReadShebang(path)
			if err != nil {
				continue
			}
			tools = append(tools, Tool{
				Name:         name,
				OriginalPath: path,
				Shebang:      shebang,
				Kind:         Classify(shebang),
			})
			break
		}
	}
	return tools, nil
}

// PathDirs splits the given PATH value into its directories, skipping the
// shim directory itself so shims never shadow their own originals.
func (m *Manager) PathDirs(pathEnv string) []string {
	var dirs []string
	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" || dir == m.ShimDir {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// GenerateShim materializes the wrapper for a hardcoded-interpreter tool and
// returns its path. Tools of any other kind are a no-op. Regeneration is
// idempotent: same tool, same content.
func (m *Manager) GenerateShim(tool Tool) (string, error) {
	if !m.Enabled {
		return "", ErrDisabled
	}
	if tool.Kind != KindHardcoded {
		return "", nil
	}
	if err := os.MkdirAll(m.ShimDir, 0o755); err != nil {
		return "", &WriteError{Tool: tool.Name, Err: err}
	}

	body := fmt.Sprintf(`#!/bin/sh
# Shim for %s, generated by phpswitcher.
# Original: %s
exec "%s" "%s" "$@"
`, tool.Name, tool.OriginalPath, m.ActiveLink, tool.OriginalPath)

	shimPath := filepath.Join(m.ShimDir, tool.Name)
	if err := os.WriteFile(shimPath, []byte(body), 0o755); err != nil {
		return "", &WriteError{Tool: tool.Name, Err: err}
	}
	return shimPath, nil
}
