package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"phpswitcher/internal/version"
)

func rec(t *testing.T, ver, path string, src Source) Record {
	t.Helper()
	v, err := version.Parse(ver)
	if err != nil {
		t.Fatal(err)
	}
	return Record{Version: v, Path: path, Source: src, DiscoveredAt: time.Now().Round(time.Second)}
}

func TestLoadMissingFile(t *testing.T) {
	r, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("missing cache should not error: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d records", r.Len())
	}
	if r.Settings.ToolsEnabled {
		t.Error("tools_enabled should default to false")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	r, _ := LoadFrom(path)
	r.Settings.DefaultVersion = "8.2"
	r.Settings.ToolsEnabled = true
	r.Settings.LastScan = time.Now().Round(time.Second)
	r.Upsert(rec(t, "8.2.12", "/usr/bin/php8.2", SourceSystem))
	r.Upsert(rec(t, "7.4.33", "/usr/bin/php7.4", SourceHomebrew))
	r.Tools = append(r.Tools, ToolEntry{
		Name:         "composer",
		OriginalPath: "/usr/bin/composer",
		Shebang:      "#!/usr/bin/php",
		Kind:         "hardcoded",
	})

	if err := r.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded %d records, want 2", loaded.Len())
	}
	if loaded.Settings.DefaultVersion != "8.2" || !loaded.Settings.ToolsEnabled {
		t.Errorf("settings not preserved: %+v", loaded.Settings)
	}
	got, ok := loaded.GetByPath("/usr/bin/php8.2")
	if !ok {
		t.Fatal("record for /usr/bin/php8.2 missing after reload")
	}
	if got.Version.String() != "8.2.12" || got.Source != SourceSystem {
		t.Errorf("record mangled: %+v", got)
	}
	if len(loaded.Tools) != 1 || loaded.Tools[0].Name != "composer" {
		t.Errorf("tools not preserved: %+v", loaded.Tools)
	}
}

func TestCacheFileIsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	r, _ := LoadFrom(path)
	r.Upsert(rec(t, "8.2.12", "/usr/bin/php8.2", SourceSystem))
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, "[settings]") || !strings.Contains(s, "[[versions]]") {
		t.Errorf("unexpected cache layout:\n%s", s)
	}
}

func TestUpsertOverwritesSamePath(t *testing.T) {
	r, _ := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	r.Upsert(rec(t, "8.2.11", "/usr/bin/php", SourceSystem))
	r.Upsert(rec(t, "8.2.12", "/usr/bin/php", SourceSystem))

	if r.Len() != 1 {
		t.Fatalf("expected 1 record after overwrite, got %d", r.Len())
	}
	got, _ := r.GetByPath("/usr/bin/php")
	if got.Version.String() != "8.2.12" {
		t.Errorf("version = %s, want 8.2.12", got.Version)
	}
}

func TestAllOrdersVersionDescending(t *testing.T) {
	r, _ := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	r.Upsert(rec(t, "7.4.33", "/a/php7.4", SourceSystem))
	r.Upsert(rec(t, "8.4.13", "/a/php8.4", SourceSystem))
	r.Upsert(rec(t, "8.2.12", "/a/php8.2", SourceSystem))

	all := r.All()
	want := []string{"8.4.13", "8.2.12", "7.4.33"}
	for i, w := range want {
		if all[i].Version.String() != w {
			t.Errorf("All()[%d] = %s, want %s", i, all[i].Version, w)
		}
	}
}

func TestPrune(t *testing.T) {
	r, _ := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	r.Upsert(rec(t, "8.2.12", "/a/php8.2", SourceSystem))
	r.Upsert(rec(t, "7.4.33", "/a/php7.4", SourceSystem))

	dropped := r.Prune(map[string]bool{"/a/php8.2": true})
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if _, ok := r.GetByPath("/a/php7.4"); ok {
		t.Error("/a/php7.4 should have been pruned")
	}
	if _, ok := r.GetByPath("/a/php8.2"); !ok {
		t.Error("/a/php8.2 should have survived")
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	dir := t.TempDir()
	// Make the cache path unwritable by pointing it inside a file.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, _ := LoadFrom(filepath.Join(blocker, "config.toml"))
	r.Upsert(rec(t, "8.2.12", "/a/php", SourceSystem))

	err := r.Save()
	if err == nil {
		t.Fatal("save into a file-as-directory should fail")
	}
	var se *SaveError
	if !errors.As(err, &se) {
		t.Errorf("error is %T, want *SaveError", err)
	}
	if r.Len() != 1 {
		t.Error("in-memory records must survive a failed save")
	}
}

func TestLoadSkipsMalformedEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[settings]
tools_enabled = false

[[versions]]
version = "not-a-version"
path = "/a/bad"
source = "system"

[[versions]]
version = "8.2.12"
path = "/a/php8.2"
source = "system"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected the malformed entry to be skipped, got %d records", r.Len())
	}
}
