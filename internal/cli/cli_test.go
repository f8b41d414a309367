package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/duke1swd/Voting/internal/ballot"
	"github.com/duke1swd/Voting/internal/model"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"validation", &ballot.ValidationError{Problems: []string{"x"}}, 2},
		{"wrapped validation", fmt.Errorf("votes.csv: parse ballots: %w", &ballot.ValidationError{}), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("Expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSourceName(t *testing.T) {
	tests := map[string]string{
		"board.csv":                          "board",
		"/data/2024/officers.csv":            "officers",
		"-":                                  "stdin",
		"https://example.org/votes/club.csv": "club",
		"https://example.org/":               "example.org",
	}
	for source, want := range tests {
		if got := sourceName(source); got != want {
			t.Errorf("sourceName(%q) = %q, want %q", source, got, want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename(`a b:c|d`); got != "a-b_c_d" {
		t.Errorf("Unexpected name: %s", got)
	}
	if got := sanitizeFilename(""); got != "election" {
		t.Errorf("Expected fallback name, got %q", got)
	}
	if got := sanitizeFilename(strings.Repeat("x", 150)); len(got) != 100 {
		t.Errorf("Expected name truncated to 100, got %d", len(got))
	}
}

func TestUniqueName(t *testing.T) {
	used := make(map[string]int)
	got := []string{uniqueName(used, "votes"), uniqueName(used, "votes"), uniqueName(used, "other")}
	want := []string{"votes", "votes-2", "other"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ranked", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Tally.LoserRule != model.LoserRulePreserved {
		t.Errorf("Expected loser rule preserved, got %q", cfg.Tally.LoserRule)
	}
	if !strings.HasPrefix(string(data), "# ranked configuration file") {
		t.Error("Expected a comment header")
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected an error when the file already exists")
	}
}

// execute runs the root command with args in an isolated home directory
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetOut(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestTallyCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votes.csv")
	if err := os.WriteFile(path, []byte("A,A,A,B\nB,B,C,A\nC,C,B,C\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "tally", "--no-cache", "--format", "json", "--loser-rule", "classic", path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a JSON report: %v\n%s", err, out)
	}
	if report.LoserRule != "classic" {
		t.Errorf("Expected loser rule from flag, got %q", report.LoserRule)
	}
	if len(report.Rows) != 3 || report.Rows[0].Name != "A" {
		t.Errorf("Unexpected ranking: %+v", report.Rows)
	}
}

func TestTallyCommand_InvalidBallots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("A,A,Zed\nB,B,\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "tally", "--no-cache", path)
	if err == nil {
		t.Fatal("Expected an error for invalid ballots")
	}
	if code := ExitCode(err); code != 2 {
		t.Errorf("Expected exit code 2, got %d (%v)", code, err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "ranked "+Version) {
		t.Errorf("Unexpected version output: %q", out)
	}
}
