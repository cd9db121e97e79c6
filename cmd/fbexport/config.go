package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"fbexport/pkg/auth"
	"fbexport/pkg/config"
	"fbexport/pkg/ui"
)

const defaultConfigPath = ".fbexport.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage fbexport configuration.

Values are resolved in this order, highest first:
  - command line flags
  - environment variables (FBEXPORT_*) and .env files
  - the configuration file
  - defaults`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with every default",
	Long: `Write the default configuration to .fbexport.yaml, or to the path given
with --config. Existing files are never overwritten.`,
	Run: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("Configuration file already exists", path)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		ui.PrintError("Failed to create configuration file", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'fbexport auth login' to store an access token")
	fmt.Println("2. Adjust crawl.endpoints and archive paths in the file")
	fmt.Println("3. Run 'fbexport export --since 2013-01-01 --until 2012-01-01'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, _ := loadConfig(nil)

	display := *cfg
	if display.Graph.AccessToken != "" {
		display.Graph.AccessToken = auth.MaskToken(display.Graph.AccessToken)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err)
		os.Exit(1)
	}
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Configuration file is unreadable", err)
		os.Exit(1)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		ui.PrintError("Environment is invalid", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration has errors")
		fmt.Println(err)
		os.Exit(1)
	}

	threshold, _ := cfg.Crawl.Threshold()
	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Endpoints", fmt.Sprint(cfg.Crawl.Endpoints))
	if !threshold.IsZero() {
		ui.PrintInfo("Supplementary endpoints before", threshold.Format("2006-01-02"))
	}
	ui.PrintInfo("Retries", fmt.Sprintf("%d every %s", cfg.Retry.MaxRetries, cfg.Retry.RetryDelay))
	ui.PrintInfo("Photo size", cfg.Photos.Size)
}
