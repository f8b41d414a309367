package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duke1swd/Voting/internal/ballot"
	"github.com/duke1swd/Voting/internal/model"
)

const cycleBallots = `candidates,v1,v2,v3
A,A,B,C
B,B,C,A
C,C,A,B
`

const clearWinner = `A,A,A,B
B,B,C,A
C,C,B,C
`

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Dir = t.TempDir()
	cfg.HTTP.RateLimit = 0
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPipeline_RunFile(t *testing.T) {
	path := writeFile(t, "votes.csv", clearWinner)
	p := NewPipeline(testConfig(t), nil, nil)

	result, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, result.Source)
	assert.False(t, result.Cached)
	require.Len(t, result.Report.Rows, 3)
	assert.Equal(t, "A", result.Report.Rows[0].Name)
	assert.Equal(t, model.SourceCondorcetWinner, result.Report.Rows[0].Source)
	assert.Equal(t, 3, result.Report.Voters)
}

func TestPipeline_RunStdin(t *testing.T) {
	p := NewPipeline(testConfig(t), strings.NewReader(cycleBallots), nil)

	result, err := p.Run(context.Background(), StdinSource)
	require.NoError(t, err)

	for _, row := range result.Report.Rows {
		assert.NotEqual(t, model.SourceCondorcetWinner, row.Source, "a cycle has no Condorcet winner")
	}
	assert.Equal(t, []string{"v1", "v2", "v3"}, result.Matrix.Voters)
}

func TestPipeline_RunURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = fmt.Fprint(w, clearWinner)
	}))
	defer server.Close()

	p := NewPipeline(testConfig(t), nil, nil)
	result, err := p.Run(context.Background(), server.URL+"/votes.csv")
	require.NoError(t, err)
	assert.Equal(t, "A", result.Report.Winners()[0].Name)
}

func TestPipeline_NumericMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.Mode = model.ModeNumeric
	path := writeFile(t, "numeric.csv", "A,1,1\nB,2,1\n")

	result, err := NewPipeline(cfg, nil, nil).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "A", result.Report.Rows[0].Name)
}

func TestPipeline_ValidationError(t *testing.T) {
	path := writeFile(t, "bad.csv", "A,A,Nobody\nB,B,\n")
	p := NewPipeline(testConfig(t), nil, nil)

	_, err := p.Run(context.Background(), path)
	require.Error(t, err)

	var verr *ballot.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, err.Error(), "parse ballots")
	assert.Equal(t, []string{"voter 2 ranked nonexistent candidate Nobody"}, verr.Problems)
}

func TestPipeline_MissingFile(t *testing.T) {
	p := NewPipeline(testConfig(t), nil, nil)
	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "load ballots")
}

func TestPipeline_UsesCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	path := writeFile(t, "votes.csv", clearWinner)

	first, err := NewPipeline(cfg, nil, nil).Run(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// A new pipeline shares only the disk layer
	second, err := NewPipeline(cfg, nil, nil).Run(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Report, second.Report)

	cfg.Tally.LoserRule = model.LoserRuleClassic
	third, err := NewPipeline(cfg, nil, nil).Run(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, third.Cached, "a different loser rule must miss the cache")
	assert.Equal(t, "classic", third.Report.LoserRule)
}

func TestLoader_StdinLimit(t *testing.T) {
	l := NewLoader(nil, strings.NewReader("A,A\nB,B\n"), 4)
	_, err := l.Load(context.Background(), StdinSource)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 4 bytes")

	l = NewLoader(nil, nil, 0)
	_, err = l.Load(context.Background(), StdinSource)
	require.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.org/votes.csv"))
	assert.True(t, IsURL("HTTP://example.org/votes.csv"))
	assert.False(t, IsURL("votes.csv"))
	assert.False(t, IsURL("ftp://example.org/votes.csv"))
	assert.False(t, IsURL(StdinSource))
}

func TestReadSources(t *testing.T) {
	path := writeFile(t, "sources.txt", `# board elections
board-2024.csv

https://example.org/board-2025.csv
board-2024.csv
  officers.csv  
`)

	sources, err := ReadSources(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"board-2024.csv", "https://example.org/board-2025.csv", "officers.csv"}, sources)

	_, err = ReadSources(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
