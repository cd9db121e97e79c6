package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fbexport/pkg/auth"
	"fbexport/pkg/errors"
	"fbexport/pkg/exporter"
	"fbexport/pkg/graph"
	"fbexport/pkg/ui"
)

var newCredentialManager = auth.NewManager

var (
	skipVerify bool
	logoutAll  bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored access tokens",
	Long: `Manage Graph API access tokens.

Tokens are stored in:
  - the system keychain, when available
  - an encrypted file under the fbexport config directory
  - FBEXPORT_ACCESS_TOKEN, read only`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store an access token",
	Long: `Store a Graph API user access token under a name. The token is read
without echo and checked against /me/permissions before it is saved.`,
	Example: `  fbexport auth login
  fbexport auth login personal --skip-verify`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored access token",
	Args:  cobra.MaximumNArgs(1),
	Run:   runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)

	loginCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store the token without checking it")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
}

func runLogin(cmd *cobra.Command, args []string) {
	cfg, log := loadConfig(nil)

	manager, err := newCredentialManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == "" {
		fmt.Print("Account name [default]: ")
		input, _ := reader.ReadString('\n')
		name = strings.TrimSpace(input)
		if name == "" {
			name = "default"
		}
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Account '%s' already exists. Replace its token? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	auth.WriteTokenGuide(os.Stdout, cfg.Graph.RequiredPermissions)

	var token string
	for {
		fmt.Print("Access token: ")
		token, err = readSecret(reader)
		fmt.Println()
		if err != nil {
			ui.PrintError("Failed to read token", err)
			os.Exit(1)
		}
		if looksLikeToken(token) {
			break
		}
		ui.PrintWarning("That does not look like a Graph API access token")
		auth.WriteQuickGuide(os.Stdout, cfg.Graph.RequiredPermissions)
	}

	account := &auth.Account{Name: name, AccessToken: token}

	if !skipVerify {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Graph.Timeout)
		defer cancel()

		client := graph.NewClient(cfg.Graph.BaseURL, token, cfg.Graph.Timeout, log)
		exp := exporter.New(client, cfg, nil, log)
		if code := exp.ValidateToken(ctx); code != errors.Ok {
			ui.PrintError("Token rejected", code)
			os.Exit(1)
		}
		if id, code := exp.Owner(ctx); code == errors.Ok {
			account.UserID = id
		}
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store token", err)
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Token stored for account '%s'", name))
	if account.UserID != "" {
		ui.PrintInfo("User", account.UserID)
	}
	fmt.Printf("\nExport with:\n  fbexport export --account %s\n", name)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := newCredentialManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove accounts", err)
			os.Exit(1)
		}
		ui.PrintSuccess("All stored accounts removed")
		return
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		accounts, _ := manager.List()
		if len(accounts) != 1 {
			ui.PrintError("Name the account to remove, or pass --all")
			os.Exit(1)
		}
		name = accounts[0].Name
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove account", err)
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Account '%s' removed", name))
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := newCredentialManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err)
		os.Exit(1)
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Run 'fbexport auth login' to add one.")
		return
	}

	for i, acc := range accounts {
		clean := auth.SanitizeAccount(acc)
		marker := " "
		if i == 0 {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-16s %s", marker, clean.Name, clean.AccessToken)
		if clean.UserID != "" {
			line += "  user " + clean.UserID
		}
		if !clean.LastModified.IsZero() {
			line += "  " + ui.Dim(clean.LastModified.Format(time.DateTime))
		}
		fmt.Println(line)
	}
	fmt.Println(ui.Dim("\n* used when no --account is given"))
}

// readSecret reads without echo on a terminal and falls back to a plain
// line read when stdin is piped.
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		return strings.TrimSpace(line), err
	}
	b, err := term.ReadPassword(fd)
	return strings.TrimSpace(string(b)), err
}

// looksLikeToken rejects pasted cookies, URLs and other obvious mistakes.
// Graph tokens are long and URL safe.
func looksLikeToken(s string) bool {
	if len(s) < 32 {
		return false
	}
	return !strings.ContainsAny(s, " \t=;/:")
}
