// Package hints suggests how to install a PHP version that was not found.
// Suggestions are deliberately generic to keep the maintenance burden low.
package hints

import (
	"fmt"
	"runtime"
	"strings"
)

// Install returns per-platform installation suggestions for the requested
// version, one line each.
func Install(query string) []string {
	var lines []string
	switch runtime.GOOS {
	case "darwin":
		lines = append(lines,
			"Using Homebrew:",
			fmt.Sprintf("  brew install php@%s", query),
			"If the formula is not found, try:",
			"  brew tap shivammathur/php",
			fmt.Sprintf("  brew install shivammathur/php/php@%s", query),
		)
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		compact := strings.ReplaceAll(query, ".", "")
		lines = append(lines,
			"Using pkg:",
			fmt.Sprintf("  pkg search php%s", compact),
			fmt.Sprintf("  pkg install php%s", compact),
			"Or check your BSD's ports collection.",
		)
	case "linux":
		lines = append(lines,
			"Search your package manager:",
			fmt.Sprintf("  apt search php%s", query),
			fmt.Sprintf("  dnf search php%s php%s", query, strings.ReplaceAll(query, ".", "")),
			"Popular third-party repositories:",
			"  Remi (RHEL/Fedora/CentOS): https://rpms.remirepo.net/",
			"  Ondrej PPA (Ubuntu/Debian): https://launchpad.net/~ondrej/+archive/ubuntu/php",
		)
	default:
		lines = append(lines,
			fmt.Sprintf("Check your system's package manager for PHP %s.", query),
		)
	}
	lines = append(lines, "Detailed instructions: https://www.php.net/manual/en/install.php")
	return lines
}
