package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/duke1swd/Voting/internal/model"
	"github.com/duke1swd/Voting/internal/pipeline"
)

var (
	outPath string
	noCache bool
	timeout time.Duration
)

// tallyCmd represents the tally command
var tallyCmd = &cobra.Command{
	Use:   "tally <source>...",
	Short: "Tally one or more ballot files",
	Long: `Tally reads each ballot source and prints the full ranking:
- Candidates nobody ranked share the bottom places
- Condorcet winners and losers are placed from the outside in
- Ranked Pairs orders whatever is left
- Rows whose order depends on a tie are flagged

A source is a file path, "-" for stdin, or an http(s) URL.

Example:
  ranked tally board.csv
  ranked tally --mode numeric --format json scores.csv
  ranked tally https://example.org/votes.csv --rounds
  cat votes.csv | ranked tally -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTally,
}

// flagKeys maps shared flags to config keys
var flagKeys = map[string]string{
	"mode":        "input.mode",
	"loser-rule":  "tally.loser_rule",
	"format":      "output.format",
	"rounds":      "output.rounds",
	"debug":       "output.debug",
	"ua":          "http.user_agent",
	"max-bytes":   "http.max_body_bytes",
	"http-proxy":  "http.http_proxy",
	"https-proxy": "http.https_proxy",
	"no-proxy":    "http.no_proxy",
	"insecure":    "http.insecure_tls",
	"rate-limit":  "http.rate_limit",
}

// addTallyFlags registers the flags shared by tally and batch
func addTallyFlags(flags *pflag.FlagSet) {
	defaults := model.DefaultConfig()

	flags.String("mode", string(defaults.Input.Mode), "ballot layout: ballot (names in order) or numeric (rank per candidate)")
	flags.String("loser-rule", string(defaults.Tally.LoserRule), "Condorcet loser rule: preserved or classic")
	flags.String("format", defaults.Output.Format, "output format: text, json, yaml, markdown, cbor")
	flags.Bool("rounds", false, "include the per-phase round log in text and markdown output")
	flags.Bool("debug", false, "log every tally step")
	flags.String("ua", defaults.HTTP.UserAgent, "HTTP User-Agent for URL sources")
	flags.Int64("max-bytes", defaults.HTTP.MaxBodyBytes, "max ballot file size in bytes")
	flags.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	flags.String("no-proxy", "", "hosts that bypass the proxy (overrides NO_PROXY env var)")
	flags.Bool("insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	flags.Float64("rate-limit", defaults.HTTP.RateLimit, "max requests per second to one host")
	flags.BoolVar(&noCache, "no-cache", false, "disable the report cache")
	flags.DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
}

// bindTallyFlags binds cmd's shared flags to viper. Binding happens at run
// time because tally and batch both define the same flags.
func bindTallyFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(tallyCmd)

	addTallyFlags(tallyCmd.Flags())
	tallyCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the report to a file instead of stdout (single source only)")
}

// commandConfig loads the effective configuration for a tally-style command
func commandConfig(cmd *cobra.Command) (*model.Config, error) {
	if err := bindTallyFlags(cmd); err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

func runTally(cmd *cobra.Command, args []string) error {
	if outPath != "" && len(args) > 1 {
		return fmt.Errorf("--out needs a single source, got %d", len(args))
	}

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	format, err := pipeline.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	logger := newLogger(cfg.Output)
	p := pipeline.NewPipeline(cfg, cmd.InOrStdin(), logger)
	renderer := pipeline.NewRenderer(format, cfg.Output.Rounds)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Mode: %s\n", cfg.Input.Mode)
		fmt.Fprintf(os.Stderr, "Loser rule: %s\n", cfg.Tally.LoserRule)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	for i, source := range args {
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Tallying %s...\n", source)
		}

		result, err := p.Run(ctx, source)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		reportProgress(result, cfg.Output.Verbose)

		if outPath != "" {
			if err := renderer.RenderFile(outPath, source, result.Report); err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
			if cfg.Output.Verbose {
				fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outPath)
			}
			continue
		}

		out := cmd.OutOrStdout()
		if i > 0 && format == pipeline.FormatText {
			_, _ = io.WriteString(out, "\n")
		}
		if err := renderer.Render(out, source, result.Report); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	return nil
}

// reportProgress prints the progress lines for one result
func reportProgress(result *pipeline.Result, verbose bool) {
	if !verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "✓ Parsed %d candidates and %d voters\n", result.Matrix.NumCandidates(), result.Matrix.NumVoters())
	if result.Cached {
		fmt.Fprintf(os.Stderr, "✓ Report loaded from cache\n")
	} else {
		fmt.Fprintf(os.Stderr, "✓ Tallied in %d phases\n", len(result.Report.Rounds))
	}
	if result.Report.HasTie() {
		fmt.Fprintf(os.Stderr, "⚠️  Some places depend on a tie\n")
	}
	fmt.Fprintln(os.Stderr)
}
