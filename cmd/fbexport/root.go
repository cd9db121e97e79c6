package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"fbexport/pkg/config"
	"fbexport/pkg/logger"
	"fbexport/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile    string
	logLevel      string
	notifications bool
	quiet         bool
)

var rootCmd = &cobra.Command{
	Use:   "fbexport",
	Short: "Export a Facebook timeline through the Graph API",
	Long: `fbexport walks the Graph API endpoints of the access token's owner
(feed, statuses, checkins, links, notes and videos), classifies every item,
downloads the attached photos and writes the merged posts to JSON or SQLite.

Access tokens are kept in the system keychain or an encrypted file, see
'fbexport auth login'.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			logLevel = "error"
		}
		if !quiet && cmd.Name() == "export" {
			ui.PrintLogo()
		}
	},
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .fbexport.yaml or ~/.config/fbexport/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when an export ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")

	rootCmd.SetVersionTemplate(`fbexport {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the config file, environment and flags, then sets up
// the process logger from the result.
func loadConfig(flags map[string]interface{}) (*config.Config, logger.Logger) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err)
		os.Exit(1)
	}
	return cfg, logger.GetLogger()
}
