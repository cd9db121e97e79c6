package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"fbexport/pkg/graph"
	"fbexport/pkg/likes"
	"fbexport/pkg/ui"
)

var likesOutput string

var likesCmd = &cobra.Command{
	Use:   "likes",
	Short: "List the URLs the token owner has liked",
	Long: `List every URL the token owner has liked, one per line. The listing is
fetched in batches of likes.batch_size.`,
	Example: `  fbexport likes
  fbexport likes --output likes.txt --account personal`,
	Args: cobra.NoArgs,
	Run:  runLikes,
}

func init() {
	rootCmd.AddCommand(likesCmd)

	likesCmd.Flags().StringVarP(&likesOutput, "output", "o", "", "write the URLs to this file instead of stdout")
	likesCmd.Flags().StringVar(&accessToken, "access-token", "", "Graph API access token")
	likesCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a stored account")
}

func runLikes(cmd *cobra.Command, args []string) {
	cfg, log := loadConfig(map[string]interface{}{"access-token": accessToken})

	var creds tokenSource
	if m, err := newCredentialManager(); err == nil {
		creds = m
	}
	token, _, err := resolveToken(cfg, creds, accountName)
	if err != nil {
		ui.PrintError("No access token found", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if likesOutput != "" {
		f, err := os.Create(likesOutput)
		if err != nil {
			ui.PrintError("Failed to create output file", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := graph.NewClient(cfg.Graph.BaseURL, token, cfg.Graph.Timeout, log)
	n, err := writeLikes(ctx, likes.NewIterator(client, cfg, log), out)
	if err != nil {
		log.WithError(err).Error("Likes listing stopped early")
		ui.PrintError(fmt.Sprintf("Likes listing stopped after %d URLs", n), err)
		os.Exit(1)
	}
	if likesOutput != "" {
		ui.PrintSuccess(fmt.Sprintf("%d liked URLs written to %s", n, likesOutput))
	}
}

type urlIterator interface {
	Next(ctx context.Context) (string, bool)
	Err() error
}

func writeLikes(ctx context.Context, it urlIterator, out io.Writer) (int, error) {
	w := bufio.NewWriter(out)
	n := 0
	for {
		u, ok := it.Next(ctx)
		if !ok {
			break
		}
		if _, err := fmt.Fprintln(w, u); err != nil {
			return n, err
		}
		n++
	}
	if err := w.Flush(); err != nil {
		return n, err
	}
	return n, it.Err()
}
