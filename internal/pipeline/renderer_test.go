package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/duke1swd/Voting/internal/codec"
	"github.com/duke1swd/Voting/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Candidates:   3,
		Voters:       4,
		TiedPairs:    1,
		PriorityTies: 0,
		LoserRule:    "preserved",
		Rows: []model.Row{
			{Name: "Apple", Rank: 1, Phase: 1, Source: model.SourceCondorcetWinner},
			{Name: "Banana", Rank: 2, Tie: true, Phase: 2, Source: model.SourceRankedPairsWinner},
			{Name: "Cherry|Pie", Rank: 2, Tie: true, Phase: 2, Source: model.SourceRankedPairsWinner},
		},
		Rounds: []model.Round{
			{Phase: 1, Kind: model.RoundCondorcet, Decided: []string{"Apple"}},
			{Phase: 2, Kind: model.RoundRankedPairs, Decided: []string{"Banana", "Cherry|Pie"}, Locked: 1, Tie: true},
		},
	}
}

func render(t *testing.T, format Format, rounds bool) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(format, rounds).Render(&buf, "board.csv", sampleReport()))
	return buf.String()
}

func TestRenderText(t *testing.T) {
	out := render(t, FormatText, false)

	assert.Contains(t, out, "Election: board.csv")
	assert.Contains(t, out, "3 candidates and 4 voters found.")
	assert.Contains(t, out, "Warning: 1 tied pairings were found.")
	assert.Contains(t, out, "Decided by")
	assert.Contains(t, out, "Condorcet winner")
	assert.Contains(t, out, "Ranked pairs winner")
	assert.Contains(t, out, "Winner: Apple")
	assert.NotContains(t, out, "Not locked", "round table is opt-in")
	assert.NotContains(t, out, "\x1b[", "no escape codes when writing to a buffer")
}

func TestRenderText_Rounds(t *testing.T) {
	out := render(t, FormatText, true)
	assert.Contains(t, out, "Not locked")
	assert.Contains(t, out, "ranked_pairs")
	assert.Contains(t, out, "Banana, Cherry|Pie")
}

func TestRenderJSON(t *testing.T) {
	out := render(t, FormatJSON, false)

	var decoded model.Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, sampleReport(), &decoded)
	assert.Contains(t, out, `"source": "ranked_pairs_winner"`)
}

func TestRenderYAML(t *testing.T) {
	out := render(t, FormatYAML, false)

	assert.Contains(t, out, "source: condorcet_winner")
	var decoded model.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, sampleReport().Rows, decoded.Rows)
}

func TestRenderMarkdown(t *testing.T) {
	out := render(t, FormatMarkdown, true)

	assert.True(t, strings.HasPrefix(out, "# board.csv\n"))
	assert.Contains(t, out, "| 1 | Apple |  | 1 | Condorcet winner |")
	assert.Contains(t, out, `| 2 | Cherry\|Pie | yes | 2 | Ranked pairs winner |`)
	assert.Contains(t, out, "## Rounds")
	assert.Contains(t, out, "**Winner: Apple**")
}

func TestRenderCBOR(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(FormatCBOR, false).Render(&buf, "", sampleReport()))

	var decoded model.Report
	require.NoError(t, codec.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleReport(), &decoded)
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, NewRenderer(FormatJSON, false).RenderFile(path, "", sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"loser_rule": "preserved"`)
}

func TestSummaryLine(t *testing.T) {
	tied := &model.Report{Rows: []model.Row{
		{Name: "A", Rank: 1, Tie: true},
		{Name: "B", Rank: 1, Tie: true},
		{Name: "C", Rank: 3},
	}}
	assert.Equal(t, "Tied for first: A, B", summaryLine(tied))

	ambiguous := &model.Report{Rows: []model.Row{{Name: "A", Rank: 1, Tie: true}}}
	assert.Equal(t, "Winner: A (order not uniquely determined)", summaryLine(ambiguous))

	assert.Equal(t, "No candidates.", summaryLine(&model.Report{}))
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "JSON", " yaml ", "markdown", "md", "cbor"} {
		_, err := ParseFormat(name)
		assert.NoError(t, err, name)
	}
	f, _ := ParseFormat("md")
	assert.Equal(t, FormatMarkdown, f)
	assert.Equal(t, ".md", f.Extension())
	assert.Equal(t, ".cbor", FormatCBOR.Extension())

	_, err := ParseFormat("html")
	assert.Error(t, err)
}
