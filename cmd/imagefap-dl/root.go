package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/patrickkfkan/imagefap-dl/pkg/ui"
	"github.com/spf13/cobra"
)

var (
	// Version information, overridden at build time via -ldflags
	version   = "1.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	logFile       string
	noColor       bool
	quiet         bool
	notifications bool
)

// rootCmd represents the base command. Running it with URLs as arguments
// behaves exactly like the download command.
var rootCmd = &cobra.Command{
	Use:   "imagefap-dl [flags] <url>...",
	Short: "Download galleries from imagefap.com",
	Long: `imagefap-dl downloads galleries from imagefap.com.

Give it one or more URLs and it works out what they point at and downloads
every image reachable from them:

  - a single gallery, or a single photo (resolved to its gallery)
  - a user's galleries overview, or one gallery folder
  - a user's favorites overview, or one favorites folder

Images land in a directory tree mirroring the uploader / folder / gallery
hierarchy, next to a JSON record and the raw HTML of each gallery page.
Interrupted runs can simply be started again: images already on disk are
skipped unless --overwrite is given.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Quiet mode also kicks in when logging is errors-only
		if quiet || logLevel == "error" {
			ui.SetQuiet(true)
		}
		if noColor {
			ui.SetNoColor(true)
		}

		// Don't show the banner for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintBanner()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		runDownload(cmd, args)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.imagefap-dl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when the run finishes")

	// Version template
	rootCmd.SetVersionTemplate(`imagefap-dl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
