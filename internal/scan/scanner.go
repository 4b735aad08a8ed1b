// Package scan discovers installed PHP binaries across heterogeneous
// installation layouts and determines each one's exact version.
//
// Detection is best-effort: a candidate whose probe fails (non-zero exit,
// timeout, unparseable output) is dropped and counted, never fatal. Results
// are collected in memory before any registry mutation, so a partial scan can
// never partially overwrite the cache.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"phpswitcher/internal/logx"
	"phpswitcher/internal/registry"
)

const (
	defaultConcurrency = 8
	defaultTimeout     = 5 * time.Second
)

// candidateNameRe matches the runtime name optionally followed by a version
// suffix: php, php8, php82, php8.2, php-8.2. Helper binaries like php-config
// or phpize do not match.
var candidateNameRe = regexp.MustCompile(`^php(?:-?\d+(?:\.\d+)*)?$`)

// Scanner walks candidate roots and probes every surviving binary.
type Scanner struct {
	Probe Probe
	Roots []Root
	// Concurrency bounds the probe fan-out; probes spawn child processes
	// and hundreds at once would be antisocial.
	Concurrency int
	// Timeout bounds a single probe so one stuck binary cannot hang the scan.
	Timeout time.Duration
}

// Result is what a scan produced: the records that probed successfully and
// the number of candidates that were skipped.
type Result struct {
	Records []registry.Record
	Skipped int
}

// New returns a Scanner over the default platform roots with an exec-backed
// probe.
func New() *Scanner {
	return &Scanner{Probe: ExecProbe{}, Roots: DefaultRoots()}
}

// Scan discovers all PHP installations visible through the scanner's roots.
// It never fails as a whole; a scan that finds nothing is a valid result.
func (s *Scanner) Scan(ctx context.Context) Result {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	candidates := s.gather()

	var (
		mu      sync.Mutex
		records []registry.Record
		skipped int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, c := range candidates {
		c := c
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			v, err := s.Probe.Version(probeCtx, c.path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logx.Logger.Debug("skipping candidate", "path", c.path, "err", err)
				skipped++
				return nil
			}
			records = append(records, registry.Record{
				Version:      v,
				Path:         c.path,
				Source:       c.source,
				DiscoveredAt: time.Now(),
			})
			return nil
		})
	}
	_ = g.Wait() // probe errors are absorbed per candidate

	return Result{Records: records, Skipped: skipped}
}

type candidate struct {
	path   string
	source registry.Source
}

// gather builds the de-duplicated candidate list. Paths are canonicalized to
// drop duplicates that resolve through symlinks, but the original discovered
// path is what ends up in the record: it is the user-visible entry point.
func (s *Scanner) gather() []candidate {
	seen := make(map[string]bool)
	var out []candidate

	for _, root := range s.Roots {
		entries, err := os.ReadDir(root.Dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !candidateNameRe.MatchString(e.Name()) {
				continue
			}
			path := filepath.Join(root.Dir, e.Name())
			if !isExecutable(path) {
				continue
			}
			canonical, err := filepath.EvalSymlinks(path)
			if err != nil {
				continue // dangling symlink
			}
			if seen[canonical] {
				continue
			}
			seen[canonical] = true
			out = append(out, candidate{path: path, source: root.Source})
		}
	}
	return out
}

func isExecutable(path string) bool {
	return unix.Access(path, unix.X_OK) == nil
}
