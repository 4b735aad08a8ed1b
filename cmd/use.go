package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"phpswitcher/internal/hints"
	"phpswitcher/internal/registry"
	"phpswitcher/internal/resolve"
	"phpswitcher/internal/switcher"
)

var useDefault bool

var useCmd = &cobra.Command{
	Use:   "use <version>",
	Short: "Switch the active PHP version",
	Long: `Resolve the version fragment against the installed versions and repoint
the active symlink at the winner. A fragment like "8" or "8.2" picks the
greatest matching version.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchVersion(cmd.Context(), args[0], useDefault)
	},
}

func init() {
	useCmd.Flags().BoolVar(&useDefault, "default", false, "Also make this the default version")
	rootCmd.AddCommand(useCmd)
}

func switchVersion(ctx context.Context, query string, setDefault bool) error {
	reg, err := registry.Load()
	if err != nil {
		return err
	}

	scanned := false
	if reg.Len() == 0 {
		printInfo("", "cache is empty, scanning system...")
		scanAndStore(ctx, reg)
		scanned = true
	}

	rec, err := resolve.Resolve(reg, query)

	// Not in the cache: rescan once in case the installation is new.
	var noMatch *resolve.NoMatchError
	if errors.As(err, &noMatch) && !scanned {
		printInfo("", fmt.Sprintf("PHP %s not in cache, scanning system...", query))
		scanAndStore(ctx, reg)
		scanned = true
		rec, err = resolve.Resolve(reg, query)
	}
	if scanned {
		if saveErr := reg.Save(); saveErr != nil {
			printWarn("", saveErr.Error())
		}
	}

	if err != nil {
		reportResolveFailure(query, err)
		return err
	}

	sw, err := switcher.New()
	if err != nil {
		return err
	}
	report, err := sw.SwitchTo(ctx, rec)
	if err != nil {
		var verify *switcher.VerifyError
		if errors.As(err, &verify) {
			// The swap already happened and is not rolled back; make that
			// visible so the user can retry or inspect.
			printWarn("", fmt.Sprintf("active link now points at %s", report.Target))
		}
		return err
	}

	if report.Previous != "" && report.Previous != report.Target {
		printInfo("", fmt.Sprintf("was %s", styleDim.Render(report.Previous)))
	}
	printOK("", fmt.Sprintf("php → %s", report.Target))
	printOK("", fmt.Sprintf("verified: %s", styleActive.Render(report.Verified.String())))

	refreshShims(reg)

	if setDefault {
		reg.Settings.DefaultVersion = rec.Version.String()
		printInfo("", fmt.Sprintf("default version set to %s", reg.Settings.DefaultVersion))
	}
	// The switch itself succeeded; a cache write failure is reported, not
	// escalated.
	if err := reg.Save(); err != nil {
		printWarn("", err.Error())
	}

	fmt.Printf("\nEnsure the switcher bin directory is first in your PATH:\n")
	fmt.Printf("  %s\n", report.PathHint)
	return nil
}

func reportResolveFailure(query string, err error) {
	var noMatch *resolve.NoMatchError
	if errors.As(err, &noMatch) {
		if len(noMatch.Candidates) > 0 {
			printBullet("Installed versions:")
			for _, rec := range noMatch.Candidates {
				printSkip("", fmt.Sprintf("%s  %s", rec.Version, styleDim.Render(rec.Path)))
			}
		}
		printBullet(fmt.Sprintf("To install PHP %s:", query))
		for _, line := range hints.Install(query) {
			fmt.Printf("  %s\n", line)
		}
		return
	}

	var ambiguous *resolve.AmbiguousError
	if errors.As(err, &ambiguous) {
		printBullet("Matching installations:")
		for _, rec := range ambiguous.Matches {
			printSkip("", fmt.Sprintf("%s  %s  (%s)", rec.Version, rec.Path, rec.Source))
		}
	}
}
