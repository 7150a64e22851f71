package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igclient/pkg/config"
	"igclient/pkg/logger"
	"igclient/pkg/ui"
)

var (
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	outputFormat string
	jsonOutput   bool
	noColor      bool
	quiet        bool
	accountName  string
	baseURL      string
	timeout      time.Duration
	maxPages     int
	rateLimit    int
	rateStrategy string
	retryReads   bool

	// Loaded in PersistentPreRunE
	cfg *config.Config
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "igclient",
	Short: "Read and manage Instagram media from the command line",
	Long: `igclient logs in to an Instagram account and works with media through the
private API: fetch posts, likers and comments, list a user's media, post and
delete comments, edit captions and delete posts.

Credentials come from the configuration (IGCLIENT_USERNAME, IGCLIENT_PASSWORD
or a password file) or from accounts saved with 'igclient auth login'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetNoColor(noColor)
		ui.SetQuietMode(quiet)

		loaded, err := config.Load(configFile, changedFlags(cmd))
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = logger.GetLogger()
		log.DebugWithFields("configuration loaded", map[string]interface{}{
			"command":  cmd.CommandPath(),
			"base_url": cfg.Instagram.BaseURL,
		})
		return nil
	},
}

// Execute runs the root command, cancelling on SIGINT or SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("Error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is ./.igclient.yaml or ~/.config/igclient/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.StringVarP(&outputFormat, "output", "o", "yaml", "output format (yaml, json)")
	flags.BoolVar(&jsonOutput, "json", false, "shorthand for --output json")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress everything except results and errors")
	flags.StringVarP(&accountName, "account", "a", "", "use a stored account")
	flags.StringVar(&baseURL, "base-url", "", "API base URL")
	flags.DurationVar(&timeout, "timeout", 0, "per request timeout (0 means none)")
	flags.IntVar(&maxPages, "max-pages", 0, "maximum pages fetched by listing commands")
	flags.IntVar(&rateLimit, "rate-limit", 0, "maximum requests per minute (0 means unlimited)")
	flags.StringVar(&rateStrategy, "rate-limit-strategy", "", "rate limit strategy (token_bucket, sliding_window)")
	flags.BoolVar(&retryReads, "retry", false, "retry failed read requests with backoff")

	rootCmd.SetVersionTemplate(`igclient {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// changedFlags collects the global flags given on the command line in the
// form config.MergeCommandLineFlags expects
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags()

	if set.Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if set.Changed("base-url") {
		flags["base-url"] = baseURL
	}
	if set.Changed("timeout") {
		flags["timeout"] = timeout
	}
	if set.Changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if set.Changed("rate-limit-strategy") {
		flags["rate-limit-strategy"] = rateStrategy
	}
	if set.Changed("retry") {
		flags["retry"] = retryReads
	}
	if set.Changed("max-pages") {
		flags["max-pages"] = maxPages
	}
	return flags
}

// resultFormat resolves --output and --json
func resultFormat() (ui.Format, error) {
	if jsonOutput {
		return ui.FormatJSON, nil
	}
	return ui.ParseFormat(outputFormat)
}
