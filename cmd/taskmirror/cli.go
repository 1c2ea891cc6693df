package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arthur-debert/taskmirror/internal/validation"
	"github.com/arthur-debert/taskmirror/mirror"
	"github.com/arthur-debert/taskmirror/mirror/storage"
)

// configEnvVar points at an explicit config file
const configEnvVar = "TASKMIRROR_CONFIG"

// CLI wires the cobra command tree to a viper instance and, once a command
// runs, to an open cache.
type CLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
	configErr error

	cache   *mirror.Cache
	logger  *slog.Logger
	logFile io.Closer
}

// NewCLI creates a new CLI with its own viper configuration
func NewCLI() *CLI {
	cli := &CLI{
		viperInst: viper.New(),
	}

	cli.setupViperConfig()
	cli.rootCmd = cli.createRootCommand()
	cli.addCommands()

	return cli
}

// setupViperConfig loads .env, then discovers the config file and env vars
func (c *CLI) setupViperConfig() {
	// A missing .env is the common case
	_ = godotenv.Load(".env")

	if configFile := os.Getenv(configEnvVar); configFile != "" {
		c.viperInst.SetConfigFile(configFile)
	} else {
		c.viperInst.SetConfigName("taskmirror")
		c.viperInst.AddConfigPath(".")
		c.viperInst.AddConfigPath("$HOME/.taskmirror")
	}

	c.viperInst.SetEnvPrefix("TASKMIRROR")
	c.viperInst.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.viperInst.AutomaticEnv()

	c.viperInst.SetDefault("backend", storage.TypeJSON)
	c.viperInst.SetDefault("format", "table")
	c.viperInst.SetDefault("log-level", "warn")
	c.viperInst.SetDefault("ttl", mirror.DefaultTTL)
	c.viperInst.SetDefault("policy", mirror.LastWriteWins.String())

	if err := c.viperInst.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			c.configErr = err
		}
	}
}

// createRootCommand creates the root command with global flags
func (c *CLI) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskmirror",
		Short: "Inspect and edit the local task mirror",
		Long: `taskmirror manages the on-device mirror of a task tracker account.

The mirror holds each user's tasks and projects, merges fresh server data
with local edits and renders project boards without a network connection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.openCache(cmd)
		},
	}

	c.addGlobalFlags(rootCmd)
	return rootCmd
}

// addGlobalFlags adds persistent flags and binds them to viper
func (c *CLI) addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("backend", storage.TypeJSON, "storage backend (json|sqlite|memory)")
	flags.String("path", "", "cache file path (defaults to the XDG cache directory)")
	flags.StringP("user", "u", "", "user whose partition to use")
	flags.StringP("format", "f", "table", "output format (table|json|yaml)")
	flags.String("log-level", "warn", "log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "also write logs to stderr")
	flags.Duration("ttl", mirror.DefaultTTL, "how long a sync stays fresh")
	flags.String("policy", mirror.LastWriteWins.String(), "merge policy (last-write-wins|server-authority)")

	for _, name := range []string{"backend", "path", "user", "format", "log-level", "verbose", "ttl", "policy"} {
		_ = c.viperInst.BindPFlag(name, flags.Lookup(name))
	}
}

// Config returns the resolved configuration
func (c *CLI) Config() validation.Config {
	backend := strings.ToLower(c.viperInst.GetString("backend"))
	return validation.Config{
		Backend: backend,
		Path:    c.resolvePath(backend),
		User:    strings.TrimSpace(c.viperInst.GetString("user")),
		Format:  strings.ToLower(c.viperInst.GetString("format")),
		TTL:     c.viperInst.GetDuration("ttl"),
		Policy:  c.viperInst.GetString("policy"),
	}
}

// resolvePath applies the per-backend default location
func (c *CLI) resolvePath(backend string) string {
	if path := c.viperInst.GetString("path"); path != "" {
		return path
	}
	switch backend {
	case storage.TypeJSON:
		return filepath.Join(getXDGCacheDir(), "mirror.json")
	case storage.TypeSQLite:
		return filepath.Join(getXDGCacheDir(), "mirror.db")
	}
	return ""
}

// openCache sets up logging and opens the configured backend
func (c *CLI) openCache(cmd *cobra.Command) error {
	if c.configErr != nil {
		return NewConfigError("load configuration", c.configErr.Error(), CommonSuggestions.CheckConfig)
	}

	logger, logFile, err := initLogging(c.viperInst.GetString("log-level"), c.viperInst.GetBool("verbose"), cmd.ErrOrStderr())
	if err != nil {
		return NewConfigError("initialize logging", err.Error(), CommonSuggestions.CheckPerms)
	}
	c.logger = logger
	c.logFile = logFile
	slog.SetDefault(logger)

	cfg := c.Config()
	if err := validation.Validate(cfg); err != nil {
		return NewConfigError("validate configuration", err.Error(), CommonSuggestions.CheckConfig)
	}

	policy, err := mirror.ParseMergePolicy(cfg.Policy)
	if err != nil {
		return NewConfigError("validate configuration", err.Error(), CommonSuggestions.CheckConfig)
	}

	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return NewStoreError("open cache", err, CommonSuggestions.CheckPerms)
		}
	}

	backend, err := storage.Open(cfg.Backend, cfg.Path)
	if err != nil {
		return NewStoreError("open cache", err, CommonSuggestions.CheckPath)
	}

	c.cache = mirror.New(backend,
		mirror.WithLogger(logger),
		mirror.WithTTL(cfg.TTL),
		mirror.WithMergePolicy(policy),
	)

	logger.Debug("cache opened",
		"backend", cfg.Backend,
		"path", cfg.Path,
		"ttl", cfg.TTL.String(),
		"policy", policy.String())
	return nil
}

// requireUser returns the configured user or a validation error
func (c *CLI) requireUser(operation string) (string, error) {
	user := c.Config().User
	if err := validation.UserID(user); err != nil {
		return "", NewValidationError(operation, "user", user, CommonSuggestions.CheckUser)
	}
	return user, nil
}

// close releases the cache and the log file
func (c *CLI) close() {
	if c.cache != nil {
		if err := c.cache.Close(); err != nil && c.logger != nil {
			c.logger.Error("failed to close cache", "error", err)
		}
		c.cache = nil
	}
	if c.logFile != nil {
		_ = c.logFile.Close()
		c.logFile = nil
	}
}

// Execute runs the CLI
func (c *CLI) Execute() error {
	defer c.close()
	return c.rootCmd.Execute()
}

// GetRootCommand returns the root command for testing
func (c *CLI) GetRootCommand() *cobra.Command {
	return c.rootCmd
}

// now is the clock used for local edits
var now = time.Now
