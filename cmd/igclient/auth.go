package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igclient/pkg/auth"
	"igclient/pkg/instagram"
	"igclient/pkg/ui"
)

var verifyLogin bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Instagram accounts",
	Long: `Manage stored Instagram credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your credentials or config files!`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store credentials for an account",
	Example: `  # Interactive login
  igclient auth login

  # Store and check the credentials against the API
  igclient auth login myusername --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthLogout,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE:  runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authListCmd)

	authLoginCmd.Flags().BoolVar(&verifyLogin, "verify", false, "log in once before storing the credentials")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.ErrOrStderr()

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Fprint(out, "Instagram username: ")
		if username, err = readLine(reader); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	fmt.Fprint(out, "Password: ")
	password, err := readSecret(cmd, reader)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	fmt.Fprint(out, "TOTP secret (press Enter to skip): ")
	totpSecret, err := readSecret(cmd, reader)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read TOTP secret: %w", err)
	}

	account := &auth.Account{
		Username:     username,
		Password:     password,
		TOTPSecret:   totpSecret,
		LastModified: time.Now(),
	}

	if verifyLogin {
		if err := verifyAccount(cmd, account); err != nil {
			return err
		}
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Account saved: " + username)
	return nil
}

// verifyAccount performs a real login and logout with the given credentials
func verifyAccount(cmd *cobra.Command, account *auth.Account) error {
	opts := instagram.OptionsFromConfig(cfg, log)
	opts.Username = account.Username
	opts.Password = account.Password
	opts.TOTPSecret = account.TOTPSecret

	client, err := instagram.NewClient(opts, log)
	if err != nil {
		return err
	}
	if res := client.Connect(cmd.Context()); !res.Succeeded {
		return fmt.Errorf("credentials were rejected: %w", res.Err())
	}
	closeSession(client)

	ui.PrintSuccess("Login verified")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + args[0])
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	format, err := resultFormat()
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts found. Run 'igclient auth login' to add one.")
		return nil
	}

	sanitized := make([]*auth.Account, 0, len(accounts))
	for _, account := range accounts {
		sanitized = append(sanitized, auth.SanitizeAccount(account))
	}
	return ui.RenderResult(sanitized, format)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads without echo when input comes from a terminal
func readSecret(cmd *cobra.Command, reader *bufio.Reader) (string, error) {
	fd := int(syscall.Stdin)
	if cmd.InOrStdin() == os.Stdin && reader.Buffered() == 0 && term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return readLine(reader)
}
