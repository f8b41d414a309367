package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duke1swd/Voting/internal/pipeline"
)

var outputDir string

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Tally every ballot source listed in a file",
	Long: `Batch tallies a list of elections one after another:
- Read sources from the input file (one per line, # for comments)
- Tally each source with the same settings
- Write one report per source into the output directory
- Keep going when a source fails and summarise at the end

Example:
  ranked batch elections.txt
  ranked batch elections.txt --output-dir ./results --format markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addTallyFlags(batchCmd.Flags())
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./ranked-reports", "output directory for reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	format, err := pipeline.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	sources, err := pipeline.ReadSources(file)
	if err != nil {
		return fmt.Errorf("read sources: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources in %s", file)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, cmd.InOrStdin(), newLogger(cfg.Output))
	renderer := pipeline.NewRenderer(format, cfg.Output.Rounds)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Sources:      %d\n", len(sources))
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	failures := 0
	used := make(map[string]int)
	for _, source := range sources {
		result, err := p.Run(ctx, source)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", source, err)
			continue
		}

		name := uniqueName(used, sanitizeFilename(sourceName(source)))
		outFile := filepath.Join(outputDir, name+format.Extension())
		if err := renderer.RenderFile(outFile, source, result.Report); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write report: %v\n", source, err)
			continue
		}

		winner := "-"
		if w := result.Report.Winners(); len(w) > 0 {
			winner = w[0].Name
			if len(w) > 1 {
				winner += fmt.Sprintf(" (+%d tied)", len(w)-1)
			}
		}
		fmt.Fprintf(os.Stderr, "✓ %s → %s (winner: %s)\n", source, outFile, winner)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d\n", len(sources))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", len(sources)-failures)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "\n")

	if failures > 0 {
		return fmt.Errorf("%d of %d elections failed", failures, len(sources))
	}
	return nil
}

// sourceName returns the base name of a path or URL without extension
func sourceName(source string) string {
	if source == pipeline.StdinSource {
		return "stdin"
	}
	base := filepath.Base(source)
	if pipeline.IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			base = path.Base(u.Path)
			if base == "/" || base == "." {
				return u.Host
			}
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sanitizeFilename keeps a name safe for every common file system
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(s)
	if s == "" {
		s = "election"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// uniqueName appends a counter to names already handed out
func uniqueName(used map[string]int, name string) string {
	used[name]++
	if n := used[name]; n > 1 {
		return fmt.Sprintf("%s-%d", name, n)
	}
	return name
}
