package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"phpswitcher/internal/registry"
	"phpswitcher/internal/shim"
	"phpswitcher/internal/switcher"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Manage shims for PHP tools (composer, phpunit, ...)",
	Long: `PHP tools whose shebang hardcodes an interpreter path ignore version
switches. phpswitcher can wrap them in shims that resolve through the
active symlink instead.`,
}

var toolsEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable tool scanning and shim generation",
	Args:  cobra.NoArgs,
	RunE:  func(*cobra.Command, []string) error { return setToolsEnabled(true) },
}

var toolsDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable tool scanning and shim generation",
	Args:  cobra.NoArgs,
	RunE:  func(*cobra.Command, []string) error { return setToolsEnabled(false) },
}

var toolsScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan PATH for PHP tools and record their shebang kind",
	Args:  cobra.NoArgs,
	RunE:  runToolsScan,
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List detected PHP tools and their shim status",
	Args:  cobra.NoArgs,
	RunE:  runToolsList,
}

func init() {
	toolsCmd.AddCommand(toolsEnableCmd, toolsDisableCmd, toolsScanCmd, toolsListCmd)
	rootCmd.AddCommand(toolsCmd)
}

func newShimManager(reg *registry.Registry) (*shim.Manager, error) {
	bin, err := registry.BinDir()
	if err != nil {
		return nil, err
	}
	return &shim.Manager{
		ShimDir:    bin,
		ActiveLink: filepath.Join(bin, switcher.LinkName),
		Enabled:    reg.Settings.ToolsEnabled,
	}, nil
}

func setToolsEnabled(enabled bool) error {
	reg, err := registry.Load()
	if err != nil {
		return err
	}
	reg.Settings.ToolsEnabled = enabled
	if err := reg.Save(); err != nil {
		return err
	}
	if enabled {
		printOK("", "tool scanning enabled")
		fmt.Println("\nNext steps:")
		fmt.Println("  1. phpswitcher tools scan")
		fmt.Println("  2. switch a version to (re)generate shims")
	} else {
		printOK("", "tool scanning disabled")
	}
	return nil
}

func runToolsScan(*cobra.Command, []string) error {
	reg, err := registry.Load()
	if err != nil {
		return err
	}
	mgr, err := newShimManager(reg)
	if err != nil {
		return err
	}

	tools, err := mgr.ScanTools(mgr.PathDirs(os.Getenv("PATH")))
	if errors.Is(err, shim.ErrDisabled) {
		printSkip("", "tool scanning is disabled; enable it with 'phpswitcher tools enable'")
		return nil
	}
	if err != nil {
		return err
	}
	if len(tools) == 0 {
		printSkip("", "no PHP tools found on PATH")
		return nil
	}

	printSection("Tools")
	reg.Tools = reg.Tools[:0]
	for _, tool := range tools {
		reg.Tools = append(reg.Tools, registry.ToolEntry{
			Name:         tool.Name,
			OriginalPath: tool.OriginalPath,
			Shebang:      tool.Shebang,
			Kind:         string(tool.Kind),
		})
		switch tool.Kind {
		case shim.KindHardcoded:
			printOK(tool.Name, fmt.Sprintf("%s %s", styleDim.Render(tool.OriginalPath), "(needs shim)"))
		case shim.KindPathAware:
			printSkip(tool.Name, fmt.Sprintf("%s %s", styleDim.Render(tool.OriginalPath), "(uses env, left alone)"))
		default:
			printSkip(tool.Name, fmt.Sprintf("%s %s", styleDim.Render(tool.OriginalPath), "(not a PHP script)"))
		}
	}
	if err := reg.Save(); err != nil {
		return err
	}
	printInfo("", "shims are (re)generated on the next 'phpswitcher use'")
	return nil
}

func runToolsList(*cobra.Command, []string) error {
	reg, err := registry.Load()
	if err != nil {
		return err
	}

	printSection("Tools")
	state := "disabled"
	if reg.Settings.ToolsEnabled {
		state = "enabled"
	}
	printInfo("", fmt.Sprintf("scanning: %s", state))

	if len(reg.Tools) == 0 {
		printSkip("", "no tools detected yet; run 'phpswitcher tools scan'")
		return nil
	}
	for _, entry := range reg.Tools {
		status := "○"
		if entry.ShimPath != "" {
			status = "✓"
		}
		fmt.Printf("  %s  %s  %s\n", status, entry.Name, styleDim.Render(entry.OriginalPath))
		fmt.Printf("      shebang: %s\n", styleDim.Render(entry.Shebang))
	}
	return nil
}

// refreshShims regenerates shims for every recorded hardcoded tool. Called
// after a successful switch; silently a no-op when the feature is off or
// nothing was scanned yet.
func refreshShims(reg *registry.Registry) {
	if !reg.Settings.ToolsEnabled || len(reg.Tools) == 0 {
		return
	}
	mgr, err := newShimManager(reg)
	if err != nil {
		printWarn("", err.Error())
		return
	}

	count := 0
	for i, entry := range reg.Tools {
		tool := shim.Tool{
			Name:         entry.Name,
			OriginalPath: entry.OriginalPath,
			Shebang:      entry.Shebang,
			Kind:         shim.Kind(entry.Kind),
		}
		path, err := mgr.GenerateShim(tool)
		if err != nil {
			printWarn(entry.Name, err.Error())
			continue
		}
		if path != "" {
			reg.Tools[i].ShimPath = path
			count++
		}
	}
	if count > 0 {
		printOK("", fmt.Sprintf("%d tool shim(s) refreshed", count))
	}
}
