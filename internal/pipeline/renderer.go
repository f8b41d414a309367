package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/duke1swd/Voting/internal/codec"
	"github.com/duke1swd/Voting/internal/model"
)

// Format is an output format for reports
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatCBOR     Format = "cbor"
)

// Formats lists every supported output format
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatCBOR}

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want text, json, yaml, markdown or cbor)", name)
}

// Extension returns the file extension used for format in batch output
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return "." + string(f)
	}
}

// Renderer writes reports in one format
type Renderer struct {
	format Format
	rounds bool
}

// NewRenderer creates a renderer. rounds adds the round log to text and
// markdown output; the structured formats always carry it.
func NewRenderer(format Format, rounds bool) *Renderer {
	if format == "" {
		format = FormatText
	}
	return &Renderer{format: format, rounds: rounds}
}

// Render writes report to w. title names the election, usually its source.
func (r *Renderer) Render(w io.Writer, title string, report *model.Report) error {
	switch r.format {
	case FormatText:
		return r.renderText(w, title, report)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		return r.renderMarkdown(w, title, report)
	case FormatCBOR:
		return codec.NewEncoder(w).Encode(report)
	default:
		return fmt.Errorf("unknown output format %q", r.format)
	}
}

// RenderFile writes report to path
func (r *Renderer) RenderFile(path, title string, report *model.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", closeErr)
		}
	}()
	return r.Render(f, title, report)
}

func tieMark(tie bool) string {
	if tie {
		return "yes"
	}
	return ""
}

func (r *Renderer) renderText(w io.Writer, title string, report *model.Report) error {
	lg := lipgloss.NewRenderer(w)
	heading := lg.NewStyle().Bold(true)
	header := lg.NewStyle().Bold(true).Padding(0, 1)
	cell := lg.NewStyle().Padding(0, 1)
	tied := cell.Foreground(lipgloss.Color("214"))

	var b strings.Builder
	if title != "" {
		b.WriteString(heading.Render("Election: "+title) + "\n")
	}
	fmt.Fprintf(&b, "%d candidates and %d voters found.\n", report.Candidates, report.Voters)
	if report.TiedPairs > 0 {
		fmt.Fprintf(&b, "Warning: %d tied pairings were found.\n", report.TiedPairs)
	}
	b.WriteString("\n")

	rows := make([][]string, len(report.Rows))
	for i, row := range report.Rows {
		rows[i] = []string{
			strconv.Itoa(row.Rank),
			row.Name,
			tieMark(row.Tie),
			strconv.Itoa(row.Phase),
			row.Source.Label(),
		}
	}
	ranking := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Rank", "Candidate", "Tie", "Phase", "Decided by").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if row >= 0 && row < len(report.Rows) && report.Rows[row].Tie {
				return tied
			}
			return cell
		})
	b.WriteString(ranking.String() + "\n")

	if r.rounds && len(report.Rounds) > 0 {
		roundRows := make([][]string, len(report.Rounds))
		for i, round := range report.Rounds {
			roundRows[i] = []string{
				strconv.Itoa(round.Phase),
				string(round.Kind),
				strings.Join(round.Decided, ", "),
				strconv.Itoa(round.Locked),
				strconv.Itoa(round.Unlocked),
				tieMark(round.Tie),
			}
		}
		rounds := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Phase", "Round", "Decided", "Locked", "Not locked", "Tie").
			Rows(roundRows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return cell
			})
		b.WriteString("\n" + rounds.String() + "\n")
	}

	b.WriteString("\n" + summaryLine(report) + "\n")
	if report.PriorityTies > 0 {
		fmt.Fprintf(&b, "Warning: %d ties were found while ordering pairings.\n", report.PriorityTies)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// summaryLine names the winner, or the candidates tied for first
func summaryLine(report *model.Report) string {
	winners := report.Winners()
	switch len(winners) {
	case 0:
		return "No candidates."
	case 1:
		if winners[0].Tie {
			return "Winner: " + winners[0].Name + " (order not uniquely determined)"
		}
		return "Winner: " + winners[0].Name
	default:
		names := make([]string, len(winners))
		for i, w := range winners {
			names[i] = w.Name
		}
		return "Tied for first: " + strings.Join(names, ", ")
	}
}

func (r *Renderer) renderMarkdown(w io.Writer, title string, report *model.Report) error {
	var b strings.Builder

	if title == "" {
		title = "Election results"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%d candidates, %d voters, loser rule `%s`.\n\n", report.Candidates, report.Voters, report.LoserRule)

	b.WriteString("| Rank | Candidate | Tie | Phase | Decided by |\n")
	b.WriteString("|---:|---|:---:|---:|---|\n")
	for _, row := range report.Rows {
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %s |\n",
			row.Rank, escapeMarkdown(row.Name), tieMark(row.Tie), row.Phase, row.Source.Label())
	}

	if r.rounds && len(report.Rounds) > 0 {
		b.WriteString("\n## Rounds\n\n")
		b.WriteString("| Phase | Round | Decided | Locked | Not locked | Tie |\n")
		b.WriteString("|---:|---|---|---:|---:|:---:|\n")
		for _, round := range report.Rounds {
			decided := make([]string, len(round.Decided))
			for i, name := range round.Decided {
				decided[i] = escapeMarkdown(name)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %d | %d | %s |\n",
				round.Phase, round.Kind, strings.Join(decided, ", "), round.Locked, round.Unlocked, tieMark(round.Tie))
		}
	}

	b.WriteString("\n**" + summaryLine(report) + "**\n")
	if report.TiedPairs > 0 || report.PriorityTies > 0 {
		fmt.Fprintf(&b, "\n> %d tied pairings, %d ties while ordering pairings.\n", report.TiedPairs, report.PriorityTies)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
