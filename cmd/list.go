package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"phpswitcher/internal/registry"
	"phpswitcher/internal/switcher"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed PHP versions and the active one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listVersions(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listVersions(ctx context.Context) error {
	reg, err := registry.Load()
	if err != nil {
		return err
	}

	if reg.Len() == 0 {
		printInfo("", "cache is empty, scanning system...")
		scanAndStore(ctx, reg)
		if err := reg.Save(); err != nil {
			printWarn("", err.Error())
		}
	}

	if reg.Len() == 0 {
		printSkip("", "no PHP installations found")
		fmt.Println("\nYou can:")
		fmt.Println("  - install PHP using your package manager")
		fmt.Println("  - run 'phpswitcher scan' to re-scan")
		return nil
	}

	sw, err := switcher.New()
	if err != nil {
		return err
	}
	active, err := sw.Active()
	if err != nil {
		printWarn("", fmt.Sprintf("cannot read active link: %v", err))
	}

	printSection("PHP Versions")
	for _, rec := range reg.All() {
		line := fmt.Sprintf("%s  %s  (%s)", rec.Version, styleDim.Render(rec.Path), rec.Source)
		if active != "" && rec.Path == active {
			fmt.Printf("  %s  %s %s\n", styleActive.Render("●"), line, styleActive.Render("[ACTIVE]"))
		} else {
			fmt.Printf("  ○  %s\n", line)
		}
	}
	if def := reg.Settings.DefaultVersion; def != "" {
		printInfo("", fmt.Sprintf("default version: %s", def))
	}
	fmt.Println(styleDim.Render("\nUse 'phpswitcher use <version>' to switch."))
	return nil
}
