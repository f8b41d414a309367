package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duke1swd/Voting/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Candidates: 2,
		Voters:     3,
		LoserRule:  "preserved",
		Rows: []model.Row{
			{Name: "Apple", Rank: 1, Phase: 1, Source: model.SourceCondorcetWinner},
			{Name: "Banana", Rank: 2, Phase: 2, Source: model.SourceRankedPairsLoser},
		},
		Rounds: []model.Round{
			{Phase: 1, Kind: model.RoundCondorcet, Decided: []string{"Apple"}},
		},
	}
}

func TestReportRoundtrip(t *testing.T) {
	original := sampleReport()

	data, err := Marshal(original)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var decoded model.Report
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, original, &decoded)
}

func TestMarshalDeterministic(t *testing.T) {
	m := &model.VoteMatrix{
		Candidates: []string{"A", "B"},
		Ranks:      [][]int{{1, 2}, {2, 1}},
	}

	first, err := Marshal(m)
	require.NoError(t, err)
	second, err := Marshal(&model.VoteMatrix{
		Candidates: []string{"A", "B"},
		Ranks:      [][]int{{1, 2}, {2, 1}},
	})
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second), "deterministic encoding violated: %x != %x", first, second)
}

func TestSourceEncodesAsName(t *testing.T) {
	data, err := Marshal(model.Row{Name: "A", Rank: 1, Source: model.SourceNoRankings})
	require.NoError(t, err)

	// Text strings are stored verbatim after their header byte
	assert.True(t, bytes.Contains(data, []byte("no_rankings")), "encoding %x lacks source name", data)

	var fields map[string]any
	require.NoError(t, Unmarshal(data, &fields))
	assert.Equal(t, "no_rankings", fields["source"])
}

func TestEncoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(sampleReport()))

	single, err := Marshal(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, single, buf.Bytes())
}
