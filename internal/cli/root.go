package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/duke1swd/Voting/internal/ballot"
	"github.com/duke1swd/Voting/internal/model"
)

// Version is set at build time with -ldflags "-X"
var Version = "v0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ranked",
	Short: "Ranked - Condorcet and Ranked Pairs ballot tallies",
	Long: `Ranked tallies ranked-ballot elections.

Every candidate gets a place. Candidates who beat (or lose to) everyone
still in contention are placed first (or last). Whatever those Condorcet
rounds cannot decide is settled by Tideman's Ranked Pairs.

Ballots are CSV: the first column lists the candidates and every other
column is one voter.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit status.
// Invalid ballots exit with 2, everything else with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var verr *ballot.ValidationError
	if errors.As(err, &verr) {
		return 2
	}
	return 1
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of ranked.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ranked %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ranked/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// configDir returns $HOME/.ranked
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ranked"), nil
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// RANKED_TALLY_LOSER_RULE overrides tally.loser_rule
	viper.SetEnvPrefix("RANKED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: could not read config: %v\n", err)
		}
	} else if viper.GetBool("output.verbose") {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so env variables and Unmarshal see them
func setDefaults(cfg *model.Config) {
	viper.SetDefault("input.mode", string(cfg.Input.Mode))
	viper.SetDefault("tally.loser_rule", string(cfg.Tally.LoserRule))
	viper.SetDefault("output.format", cfg.Output.Format)
	viper.SetDefault("output.rounds", cfg.Output.Rounds)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("output.debug", cfg.Output.Debug)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	viper.SetDefault("http.timeout", cfg.HTTP.Timeout)
	viper.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	viper.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	viper.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	viper.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)
	viper.SetDefault("http.no_proxy", cfg.HTTP.NoProxy)
	viper.SetDefault("http.insecure_tls", cfg.HTTP.InsecureTLS)
	viper.SetDefault("http.rate_limit", cfg.HTTP.RateLimit)
	viper.SetDefault("http.burst", cfg.HTTP.Burst)
}

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger: warnings by default, info with
// --verbose and everything with --debug
func newLogger(out model.OutputConfig) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case out.Debug:
		level = slog.LevelDebug
	case out.Verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
