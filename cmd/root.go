package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phpswitcher/internal/logx"
	"phpswitcher/internal/resolve"
	"phpswitcher/internal/switcher"
	"phpswitcher/internal/version"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "phpswitcher [version]",
	Short:        "phpswitcher — switch the active PHP version via a stable symlink",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `phpswitcher discovers the PHP interpreters installed on this machine and
repoints a stable symlink at ~/.phpswitcher/bin/php to the one you pick,
without touching any system installation.

  phpswitcher            List installed versions
  phpswitcher 8.2        Shorthand for 'phpswitcher use 8.2'`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logx.SetVerbose()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare `phpswitcher 8.2` is shorthand for `use`.
		if len(args) == 1 {
			return switchVersion(cmd.Context(), args[0], false)
		}
		return listVersions(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

// Exit-code families, so scripts can branch on failure class.
const (
	exitGeneric          = 1
	exitMalformedVersion = 2
	exitNoMatch          = 3
	exitLinkFailed       = 4
	exitVerifyFailed     = 5
)

func exitCodeFor(err error) int {
	var (
		parseErr  *version.ParseError
		noMatch   *resolve.NoMatchError
		ambiguous *resolve.AmbiguousError
		linkErr   *switcher.LinkError
		verifyErr *switcher.VerifyError
	)
	switch {
	case errors.As(err, &parseErr):
		return exitMalformedVersion
	case errors.As(err, &noMatch), errors.As(err, &ambiguous):
		return exitNoMatch
	case errors.As(err, &linkErr):
		return exitLinkFailed
	case errors.As(err, &verifyErr):
		return exitVerifyFailed
	}
	return exitGeneric
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
