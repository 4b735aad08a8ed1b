// Package logx holds the shared application logger.
package logx

import (
	"os"

	clog "github.com/charmbracelet/log"
)

// Logger writes diagnostics to stderr so command output on stdout stays
// script-friendly. Default level hides debug chatter; SetVerbose opens it up.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: false,
	Level:           clog.WarnLevel,
})

// SetVerbose lowers the level to debug for --verbose runs.
func SetVerbose() {
	Logger.SetLevel(clog.DebugLevel)
}
