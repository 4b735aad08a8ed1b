package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"phpswitcher/internal/registry"
	"phpswitcher/internal/scan"
)

var scanPrune bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the system for PHP installations",
	Long: `Walk the standard bin directories, Homebrew cellars and version-manager
homes, probe every candidate binary, and cache what was found.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanPrune, "prune", false, "Drop cached entries whose binary vanished")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	reg, err := registry.Load()
	if err != nil {
		return err
	}

	printSection("Scan")
	res := scanAndStore(cmd.Context(), reg)

	if len(res.Records) == 0 {
		printSkip("", "no PHP installations found")
	}
	for _, rec := range reg.All() {
		printOK("", fmt.Sprintf("%s  %s  (%s)", rec.Version, styleDim.Render(rec.Path), rec.Source))
	}
	if res.Skipped > 0 {
		printInfo("", fmt.Sprintf("%d candidate(s) skipped (probe failed or timed out)", res.Skipped))
	}

	if scanPrune {
		current := make(map[string]bool, len(res.Records))
		for _, rec := range res.Records {
			current[rec.Path] = true
		}
		if dropped := reg.Prune(current); dropped > 0 {
			printInfo("", fmt.Sprintf("%d stale entr%s pruned", dropped, plural(dropped, "y", "ies")))
		}
	}

	if err := reg.Save(); err != nil {
		return err
	}
	printOK("", "cache updated")
	return nil
}

// scanAndStore runs a full scan and merges every surviving record into reg.
// The registry is only touched after all probes have completed, so a partial
// scan never partially overwrites it.
func scanAndStore(ctx context.Context, reg *registry.Registry) scan.Result {
	res := scan.New().Scan(ctx)
	for _, rec := range res.Records {
		reg.Upsert(rec)
	}
	reg.Settings.LastScan = time.Now().UTC()
	return res
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
