package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"phpswitcher/internal/registry"
	"phpswitcher/internal/version"
)

// fakeProbe maps paths to versions; unknown paths fail.
type fakeProbe struct {
	versions map[string]string
}

func (p fakeProbe) Version(_ context.Context, path string) (version.Version, error) {
	if s, ok := p.versions[path]; ok {
		return version.Parse(s)
	}
	return version.Version{}, errors.New("not a php binary")
}

// hangingProbe blocks until the per-probe timeout fires.
type hangingProbe struct {
	inner fakeProbe
	hang  string
}

func (p hangingProbe) Version(ctx context.Context, path string) (version.Version, error) {
	if path == p.hang {
		<-ctx.Done()
		return version.Version{}, ctx.Err()
	}
	return p.inner.Version(ctx, path)
}

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestScanFindsCandidates(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, filepath.Join(dir, "php8.2"))
	writeExecutable(t, filepath.Join(dir, "php7.4"))
	writeExecutable(t, filepath.Join(dir, "not-php"))

	s := &Scanner{
		Probe: fakeProbe{versions: map[string]string{
			filepath.Join(dir, "php8.2"): "8.2.12",
			filepath.Join(dir, "php7.4"): "7.4.33",
		}},
		Roots: []Root{{Dir: dir, Source: registry.SourceSystem}},
	}

	res := s.Scan(context.Background())
	if len(res.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(res.Records))
	}
	if res.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", res.Skipped)
	}
	for _, rec := range res.Records {
		if rec.Source != registry.SourceSystem {
			t.Errorf("record %s tagged %s, want system", rec.Path, rec.Source)
		}
		if rec.DiscoveredAt.IsZero() {
			t.Errorf("record %s has zero discovery timestamp", rec.Path)
		}
	}
}

func TestScanToleratesBrokenCandidate(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, filepath.Join(dir, "php8.2"))
	writeExecutable(t, filepath.Join(dir, "php8.1")) // probe will fail

	s := &Scanner{
		Probe: fakeProbe{versions: map[string]string{
			filepath.Join(dir, "php8.2"): "8.2.12",
		}},
		Roots: []Root{{Dir: dir, Source: registry.SourceSystem}},
	}

	res := s.Scan(context.Background())
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1 (broken candidate must not abort the scan)", len(res.Records))
	}
	if res.Records[0].Path != filepath.Join(dir, "php8.2") {
		t.Errorf("surviving record = %s", res.Records[0].Path)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
}

func TestScanToleratesHangingCandidate(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, filepath.Join(dir, "php8.2"))
	writeExecutable(t, filepath.Join(dir, "php8.3"))
	hang := filepath.Join(dir, "php8.3")

	s := &Scanner{
		Probe: hangingProbe{
			inner: fakeProbe{versions: map[string]string{
				filepath.Join(dir, "php8.2"): "8.2.12",
			}},
			hang: hang,
		},
		Roots:   []Root{{Dir: dir, Source: registry.SourceSystem}},
		Timeout: 50 * time.Millisecond,
	}

	res := s.Scan(context.Background())
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (timed-out candidate)", res.Skipped)
	}
}

func TestScanDeduplicatesThroughSymlinks(t *testing.T) {
	real := t.TempDir()
	alias := t.TempDir()
	target := filepath.Join(real, "php8.2")
	writeExecutable(t, target)
	link := filepath.Join(alias, "php")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	probe := fakeProbe{versions: map[string]string{
		target: "8.2.12",
		link:   "8.2.12",
	}}
	s := &Scanner{
		Probe: probe,
		Roots: []Root{
			{Dir: alias, Source: registry.SourceManual},
			{Dir: real, Source: registry.SourceSystem},
		},
	}

	res := s.Scan(context.Background())
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1 after symlink dedup", len(res.Records))
	}
	// The first discovered path wins and is kept verbatim, not canonicalized.
	if res.Records[0].Path != link {
		t.Errorf("record path = %s, want original discovered path %s", res.Records[0].Path, link)
	}
}

func TestScanEmptyRootsIsValid(t *testing.T) {
	s := &Scanner{
		Probe: fakeProbe{},
		Roots: []Root{{Dir: filepath.Join(t.TempDir(), "missing"), Source: registry.SourceSystem}},
	}
	res := s.Scan(context.Background())
	if len(res.Records) != 0 || res.Skipped != 0 {
		t.Errorf("empty scan should return zero records and zero skips, got %+v", res)
	}
}

func TestCandidateNames(t *testing.T) {
	accept := []string{"php", "php8", "php82", "php8.2", "php-8.2"}
	reject := []string{"php-config", "phpize", "php-cgi", "php-fpm", "phpx", "composer"}
	for _, n := range accept {
		if !candidateNameRe.MatchString(n) {
			t.Errorf("%q should be a candidate", n)
		}
	}
	for _, n := range reject {
		if candidateNameRe.MatchString(n) {
			t.Errorf("%q should not be a candidate", n)
		}
	}
}
