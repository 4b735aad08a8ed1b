package scan

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"phpswitcher/internal/registry"
)

// Root is one directory searched for PHP binaries, tagged with the source
// that directory implies.
type Root struct {
	Dir    string
	Source registry.Source
}

// DefaultRoots builds the candidate-root list for the current machine:
// standard bin directories, Homebrew cellars, and version-manager homes.
// Roots that do not exist are filtered later by the directory walk, so this
// only expands the layouts that need enumeration (cellar and manager trees).
func DefaultRoots() []Root {
	var roots []Root

	for _, dir := range systemBinDirs() {
		roots = append(roots, Root{Dir: dir, Source: registry.SourceSystem})
	}

	// Homebrew cellar: <cellar>/php[@X.Y]/<version>/bin/php
	for _, cellar := range []string{"/usr/local/Cellar", "/opt/homebrew/Cellar"} {
		roots = append(roots, expandCellar(cellar)...)
	}

	if home, err := os.UserHomeDir(); err == nil {
		// phpbrew: ~/.phpbrew/php/<build>/bin/php
		roots = append(roots, expandVersionDirs(filepath.Join(home, ".phpbrew", "php"), registry.SourcePhpbrew)...)
		// phpenv: ~/.phpenv/versions/<version>/bin/php
		roots = append(roots, expandVersionDirs(filepath.Join(home, ".phpenv", "versions"), registry.SourcePhpenv)...)
	}

	return roots
}

func systemBinDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/usr/bin", "/usr/local/bin", "/opt/homebrew/bin"}
	default:
		return []string{"/usr/bin", "/usr/local/bin", "/opt/php/bin"}
	}
}

// expandCellar lists <cellar>/php*/<version>/bin as homebrew roots.
func expandCellar(cellar string) []Root {
	formulas, err := os.ReadDir(cellar)
	if err != nil {
		return nil
	}
	var roots []Root
	for _, f := range formulas {
		if !strings.HasPrefix(f.Name(), "php") {
			continue
		}
		versions, err := os.ReadDir(filepath.Join(cellar, f.Name()))
		if err != nil {
			continue
		}
		for _, v := range versions {
			roots = append(roots, Root{
				Dir:    filepath.Join(cellar, f.Name(), v.Name(), "bin"),
				Source: registry.SourceHomebrew,
			})
		}
	}
	return roots
}

// expandVersionDirs lists <base>/<entry>/bin for version-manager layouts.
func expandVersionDirs(base string, src registry.Source) []Root {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	var roots []Root
	for _, e := range entries {
		roots = append(roots, Root{Dir: filepath.Join(base, e.Name(), "bin"), Source: src})
	}
	return roots
}
