package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"

	"fbexport/pkg/archive"
	"fbexport/pkg/auth"
	"fbexport/pkg/config"
	"fbexport/pkg/exporter"
	"fbexport/pkg/graph"
	"fbexport/pkg/logger"
	"fbexport/pkg/models"
	"fbexport/pkg/storage"
	"fbexport/pkg/ui"
)

const defaultJSONPath = "fbexport.json"

var (
	sinceFlag     string
	untilFlag     string
	photoSize     string
	jsonPath      string
	sqlitePath    string
	endpointsFlag []string
	accessToken   string
	accountName   string
	tempDir       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export posts between two dates",
	Long: `Export every post of the token owner created between --until (older)
and --since (newer). Without --until the export covers the last day.

The feed endpoint is crawled first. Supplementary endpoints only contribute
history older than crawl.multi_endpoint_since.

A failed export still writes the posts merged before the failure, and the
command exits non-zero.`,
	Example: `  # Everything from the last day into fbexport.json
  fbexport export

  # One year into SQLite, medium sized photos
  fbexport export --since 2013-01-01 --until 2012-01-01 --sqlite timeline.db --photo-size medium

  # Only statuses and links, with a token from the environment
  FBEXPORT_ACCESS_TOKEN=EAAB... fbexport export --endpoints feed,statuses,links`,
	Args: cobra.NoArgs,
	Run:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&sinceFlag, "since", "", "newest creation time to export (default now)")
	exportCmd.Flags().StringVar(&untilFlag, "until", "", "oldest creation time to export (default one day before now)")
	exportCmd.Flags().StringVar(&photoSize, "photo-size", "", "photo rendition to download: maximum or medium")
	exportCmd.Flags().StringVar(&jsonPath, "json", "", "write the result as JSON to this path")
	exportCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "write the result into this SQLite database")
	exportCmd.Flags().StringSliceVar(&endpointsFlag, "endpoints", nil, "endpoints to crawl, in order")
	exportCmd.Flags().StringVar(&accessToken, "access-token", "", "Graph API access token")
	exportCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a stored account")
	exportCmd.Flags().StringVar(&tempDir, "temp-dir", "", "directory for downloaded photos")
}

func runExport(cmd *cobra.Command, args []string) {
	flags := map[string]interface{}{
		"access-token": accessToken,
		"endpoints":    endpointsFlag,
		"photo-size":   photoSize,
		"json":         jsonPath,
		"sqlite":       sqlitePath,
		"temp-dir":     tempDir,
	}
	cfg, log := loadConfig(flags)

	window, err := parseWindow(sinceFlag, untilFlag, time.Now())
	if err != nil {
		ui.PrintError("Invalid export window", err)
		os.Exit(1)
	}

	var creds tokenSource
	if m, err := newCredentialManager(); err == nil {
		creds = m
	} else {
		log.WithError(err).Warn("Credential store unavailable")
	}
	token, source, err := resolveToken(cfg, creds, accountName)
	if err != nil {
		ui.PrintError("No access token found", err)
		fmt.Println("\nStore one with:")
		fmt.Println("  fbexport auth login")
		fmt.Printf("\nor set %s.\n", auth.TokenEnv)
		os.Exit(1)
	}
	log.WithField("source", source).Info("Using access token")

	sinks, err := openSinks(cfg, log)
	if err != nil {
		ui.PrintError("Failed to open output", err)
		os.Exit(1)
	}

	photoDir, err := os.MkdirTemp(cfg.Photos.TempDir, "fbexport-")
	if err != nil {
		ui.PrintError("Failed to create photo directory", err)
		os.Exit(1)
	}
	photos, err := storage.NewManager(photoDir)
	if err != nil {
		ui.PrintError("Failed to initialize photo storage", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := graph.NewClient(cfg.Graph.BaseURL, token, cfg.Graph.Timeout, log)
	exp := exporter.New(client, cfg, photos, log)

	progress := ui.NewCrawlProgress(os.Stdout, len(cfg.Crawl.Ordered()))
	if !quiet {
		exp.SetProgress(progress)
		ui.PrintInfo("Window", fmt.Sprintf("%s → %s", window.Since.Format(time.RFC3339), formatUntil(window.Until)))
		ui.PrintInfo("Photos", photoDir)
	}

	res := exp.GetData(ctx, window, cfg.Photos.Size)

	// Partial results are written on failure too.
	writeErr := sinks.Write(context.Background(), res)
	if err := sinks.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		log.WithError(writeErr).Error("Failed to write export")
		ui.PrintError("Failed to write export", writeErr)
		os.Exit(1)
	}

	log.InfoWithFields("Export finished", map[string]interface{}{
		"posts":  res.Count,
		"photos": len(photos.Saved()),
		"code":   res.Code.String(),
	})
	if !quiet {
		progress.Summary(res.Count, res.Code)
	}
	if notifications {
		notify(res)
	}
	if !res.Code.Terminal() {
		os.Exit(1)
	}
}

// parseWindow reads the --since/--until pair. since defaults to now and an
// empty until is left zero for the exporter's lookback default.
func parseWindow(since, until string, now time.Time) (models.Window, error) {
	var w models.Window

	newer, err := parseWhen(since, now)
	if err != nil {
		return w, fmt.Errorf("--since: %w", err)
	}
	if newer.IsZero() {
		newer = now
	}
	w.Since = newer

	if w.Until, err = parseWhen(until, now); err != nil {
		return w, fmt.Errorf("--until: %w", err)
	}

	return w, w.Validate()
}

func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return time.Time{}, nil
	case "now":
		return now, nil
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	return dateparse.ParseIn(s, time.Local)
}

func formatUntil(t time.Time) string {
	if t.IsZero() {
		return "last day"
	}
	return t.Format(time.RFC3339)
}

type tokenSource interface {
	Retrieve(name string) (*auth.Account, error)
	RetrieveDefault() (*auth.Account, error)
}

// resolveToken picks the access token: a named stored account, then the
// flag/environment/config value, then the default stored account. The
// second return names where the token came from.
func resolveToken(cfg *config.Config, creds tokenSource, account string) (string, string, error) {
	if account != "" {
		if creds == nil {
			return "", "", auth.ErrStoreUnavailable
		}
		acc, err := creds.Retrieve(account)
		if err != nil {
			return "", "", err
		}
		return acc.AccessToken, "account " + acc.Name, nil
	}

	if cfg.Graph.AccessToken != "" {
		return cfg.Graph.AccessToken, "configuration", nil
	}

	if creds != nil {
		if acc, err := creds.RetrieveDefault(); err == nil {
			return acc.AccessToken, "account " + acc.Name, nil
		}
	}
	return "", "", auth.ErrCredentialsNotFound
}

// openSinks opens every configured output. Without any, the result goes to
// fbexport.json in the working directory.
func openSinks(cfg *config.Config, log logger.Logger) (archive.Multi, error) {
	var sinks archive.Multi

	if cfg.Archive.SQLitePath != "" {
		db, err := archive.OpenSQLite(cfg.Archive.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, db)
	}

	if cfg.Archive.JSONPath != "" || len(sinks) == 0 {
		path := cfg.Archive.JSONPath
		if path == "" {
			path = defaultJSONPath
		}
		sinks = append(sinks, archive.NewJSONSink(path, log))
	}
	return sinks, nil
}

func notify(res *models.Result) {
	n := ui.NewNotifier(os.Stdout)
	if res.Code.Terminal() {
		n.SendSuccess("Export complete", fmt.Sprintf("%d posts exported", res.Count))
		return
	}
	n.SendError("Export failed", fmt.Sprintf("%s after %d posts", res.Code, res.Count))
}
