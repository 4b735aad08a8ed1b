// Package registry persists the set of discovered PHP installations and the
// user's settings at ~/.phpswitcher/config.toml.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"phpswitcher/internal/version"
)

// Source identifies which kind of installation root produced a record.
type Source string

const (
	SourceSystem   Source = "system"
	SourceHomebrew Source = "homebrew"
	SourcePhpbrew  Source = "phpbrew"
	SourcePhpenv   Source = "phpenv"
	SourceManual   Source = "manual"
	SourceAuto     Source = "auto"
)

// Record is one discovered PHP binary. Path is the identity key: a single
// path maps to exactly one record and re-scanning overwrites in place.
type Record struct {
	Version      version.Version
	Path         string
	Source       Source
	DiscoveredAt time.Time
}

// Settings are the user-level knobs stored alongside the records.
type Settings struct {
	LastScan       time.Time
	DefaultVersion string
	ToolsEnabled   bool
}

// ToolEntry is a persisted PHP tool discovered by the shim scanner.
type ToolEntry struct {
	Name         string
	OriginalPath string
	ShimPath     string
	Shebang      string
	Kind         string
}

// Registry is the in-memory view of the cache file.
type Registry struct {
	Settings Settings
	Tools    []ToolEntry

	records map[string]Record
	path    string
}

// SaveError reports a failed cache write. The in-memory state is untouched.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("cannot persist registry to %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// ── On-disk schema ────────────────────────────────────────────────────────────

type cacheFile struct {
	Settings cacheSettings `toml:"settings"`
	Versions []cacheEntry  `toml:"versions,omitempty"`
	Tools    []cacheTool   `toml:"tools,omitempty"`
}

type cacheSettings struct {
	LastScan       time.Time `toml:"last_scan,omitempty"`
	DefaultVersion string    `toml:"default_version,omitempty"`
	ToolsEnabled   bool      `toml:"tools_enabled"`
}

type cacheEntry struct {
	Version      string    `toml:"version"`
	Path         string    `toml:"path"`
	Source       string    `toml:"source"`
	DiscoveredAt time.Time `toml:"discovered_at,omitempty"`
}

type cacheTool struct {
	Name         string `toml:"name"`
	OriginalPath string `toml:"original_path"`
	ShimPath     string `toml:"shim_path,omitempty"`
	Shebang      string `toml:"shebang"`
	Kind         string `toml:"kind"`
}

// ── Paths ─────────────────────────────────────────────────────────────────────

// Dir returns the absolute path to ~/.phpswitcher/.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".phpswitcher"), nil
}

// ConfigPath returns the absolute path to ~/.phpswitcher/config.toml.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// BinDir returns the directory holding the active symlink and tool shims.
// This is the directory users prepend to PATH.
func BinDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bin"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// ── Load / Save ───────────────────────────────────────────────────────────────

// Load reads the registry from the default cache location. A missing file
// yields an empty registry, not an error.
func Load() (*Registry, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the registry from an explicit cache path.
func LoadFrom(path string) (*Registry, error) {
	r := &Registry{records: make(map[string]Record), path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read cache %s: %w", path, err)
	}

	var file cacheFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid TOML in %s: %w", path, err)
	}

	r.Settings = Settings{
		LastScan:       file.Settings.LastScan,
		DefaultVersion: file.Settings.DefaultVersion,
		ToolsEnabled:   file.Settings.ToolsEnabled,
	}
	for _, t := range file.Tools {
		r.Tools = append(r.Tools, ToolEntry(t))
	}
	for _, e := range file.Versions {
		v, err := version.Parse(e.Version)
		if err != nil {
			// A hand-edited or stale entry must not take the whole cache down.
			continue
		}
		r.records[e.Path] = Record{
			Version:      v,
			Path:         e.Path,
			Source:       Source(e.Source),
			DiscoveredAt: e.DiscoveredAt,
		}
	}
	return r, nil
}

// Save writes the registry back to its cache path. The write is guarded by a
// file lock so two racing mutating invocations fail loudly instead of
// interleaving. On failure the in-memory state is left intact.
func (r *Registry) Save() error {
	if r.path == "" {
		path, err := ConfigPath()
		if err != nil {
			return err
		}
		r.path = path
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return &SaveError{Path: r.path, Err: err}
	}

	unlock, err := acquireLock(r.path+".lock", 2*time.Second)
	if err != nil {
		return &SaveError{Path: r.path, Err: err}
	}
	defer unlock()

	file := cacheFile{
		Settings: cacheSettings{
			LastScan:       r.Settings.LastScan,
			DefaultVersion: r.Settings.DefaultVersion,
			ToolsEnabled:   r.Settings.ToolsEnabled,
		},
	}
	for _, rec := range r.All() {
		file.Versions = append(file.Versions, cacheEntry{
			Version:      rec.Version.String(),
			Path:         rec.Path,
			Source:       string(rec.Source),
			DiscoveredAt: rec.DiscoveredAt,
		})
	}
	for _, t := range r.Tools {
		file.Tools = append(file.Tools, cacheTool(t))
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return &SaveError{Path: r.path, Err: err}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return &SaveError{Path: r.path, Err: err}
	}
	return nil
}

// acquireLock obtains the cache write lock, retrying until timeout.
func acquireLock(lockPath string, timeout time.Duration) (func(), error) {
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire cache lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("another phpswitcher command is writing (lock: %s)", lockPath)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// ── Record access ─────────────────────────────────────────────────────────────

// Upsert inserts rec, overwriting any existing record at the same path.
func (r *Registry) Upsert(rec Record) {
	if r.records == nil {
		r.records = make(map[string]Record)
	}
	r.records[rec.Path] = rec
}

// GetByPath returns the record at path, if any.
func (r *Registry) GetByPath(path string) (Record, bool) {
	rec, ok := r.records[path]
	return rec, ok
}

// All returns the records ordered by version descending; records with equal
// versions are ordered by path for stable output.
func (r *Registry) All() []Record {
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := version.Compare(out[i].Version, out[j].Version); c != 0 {
			return c > 0
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int { return len(r.records) }

// Prune removes records whose path is absent from current, returning how many
// were dropped. It is only called explicitly (scan --prune); resolve and
// switch never prune.
func (r *Registry) Prune(current map[string]bool) int {
	dropped := 0
	for path := range r.records {
		if !current[path] {
			delete(r.records, path)
			dropped++
		}
	}
	return dropped
}
