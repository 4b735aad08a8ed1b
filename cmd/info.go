package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"phpswitcher/internal/registry"
	"phpswitcher/internal/resolve"
	"phpswitcher/internal/switcher"
)

var infoCmd = &cobra.Command{
	Use:   "info [version]",
	Short: "Show details for an installed version, or general status",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 1 {
			return showVersionInfo(args[0])
		}
		return showGeneralInfo()
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func showVersionInfo(query string) error {
	reg, err := registry.Load()
	if err != nil {
		return err
	}
	rec, err := resolve.Resolve(reg, query)
	if err != nil {
		reportResolveFailure(query, err)
		return err
	}

	printSection("PHP Installation")
	printInfo("", fmt.Sprintf("version:       %s", rec.Version))
	printInfo("", fmt.Sprintf("short version: %s", rec.Version.Short()))
	printInfo("", fmt.Sprintf("path:          %s", rec.Path))
	printInfo("", fmt.Sprintf("source:        %s", rec.Source))
	if !rec.DiscoveredAt.IsZero() {
		printInfo("", fmt.Sprintf("discovered:    %s", rec.DiscoveredAt.Format("2006-01-02 15:04:05")))
	}
	return nil
}

func showGeneralInfo() error {
	reg, err := registry.Load()
	if err != nil {
		return err
	}
	configPath, err := registry.ConfigPath()
	if err != nil {
		return err
	}
	sw, err := switcher.New()
	if err != nil {
		return err
	}
	active, _ := sw.Active()

	printSection("phpswitcher")
	printInfo("", fmt.Sprintf("version:          %s", buildVersion))
	printInfo("", fmt.Sprintf("config file:      %s", configPath))
	printInfo("", fmt.Sprintf("tracked versions: %d", reg.Len()))
	if !reg.Settings.LastScan.IsZero() {
		printInfo("", fmt.Sprintf("last scan:        %s", reg.Settings.LastScan.Format("2006-01-02 15:04:05")))
	}
	if active != "" {
		printInfo("", fmt.Sprintf("active:           %s", active))
	} else {
		printSkip("", "no version switched yet")
	}
	state := "disabled"
	if reg.Settings.ToolsEnabled {
		state = "enabled"
	}
	printInfo("", fmt.Sprintf("tool shims:       %s", state))
	return nil
}
