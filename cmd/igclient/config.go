package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igclient/pkg/config"
	"igclient/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igclient configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGCLIENT_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as '.igclient.yaml' unless a
different path is given with --config.`,
	// The file to create need not exist yet, so nothing is loaded.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetNoColor(noColor)
		ui.SetQuietMode(quiet)
		return nil
	},
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. Secrets are masked.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)
}

const exampleConfig = `# igclient configuration file
#
# Every option can also be set with an environment variable prefixed with
# IGCLIENT_, for example IGCLIENT_USERNAME or IGCLIENT_REQUESTS_PER_MINUTE.

instagram:
  # Account to log in with. Prefer password_file or 'igclient auth login'
  # over a password in this file.
  username: ""
  password_file: ""

  # User agent sent with every request (optional)
  user_agent: "%s"

  # API base URL
  base_url: "%s"

  # Per request timeout, 0 for none
  timeout: 0s

pagination:
  # Upper bound on pages fetched by likers, comments and user media
  max_pages: %d

rate_limit:
  # Requests per minute, 0 for unlimited
  requests_per_minute: 0

  # token_bucket refills the whole budget every minute, sliding_window
  # spreads it over any 60 second span
  strategy: "token_bucket"

retry:
  # Retry failed read requests with exponential backoff
  enabled: false
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s

logging:
  # debug, info, warn, error or disabled
  level: "info"

  # Log file path, empty logs to stderr
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".igclient.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	defaults := config.DefaultConfig()
	content := fmt.Sprintf(exampleConfig,
		defaults.Instagram.UserAgent,
		defaults.Instagram.BaseURL,
		defaults.Pagination.MaxPages,
	)

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := resultFormat()
	if err != nil {
		return err
	}

	shown := *cfg
	shown.Instagram.Password = mask(shown.Instagram.Password)
	shown.Instagram.TOTPSecret = mask(shown.Instagram.TOTPSecret)

	return ui.RenderResult(&shown, format)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Load already validated; a failure never reaches this point.
	ui.PrintSuccess("Configuration is valid")
	if cfg.Instagram.Username == "" {
		ui.PrintWarning("No username configured, stored accounts will be used")
	}
	if cfg.Instagram.Username != "" && cfg.Instagram.Password == "" {
		ui.PrintWarning("No password configured for " + cfg.Instagram.Username)
	}
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
