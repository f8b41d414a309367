// Package ballot reads CSV ballot files into a vote matrix.
//
// The first column lists the candidates, one per row. An optional header row
// whose first cell is "candidates" labels the voters. Every other column is
// one voter's ballot.
package ballot

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/duke1swd/Voting/internal/model"
)

// Parser converts CSV ballots to a vote matrix
type Parser struct {
	mode model.InputMode
}

// NewParser creates a parser for the given input mode.
// An empty mode means ballot order.
func NewParser(mode model.InputMode) *Parser {
	if mode == "" {
		mode = model.ModeBallot
	}
	return &Parser{mode: mode}
}

// grid is the trimmed cell table of a ballot file
type grid struct {
	candidates []string
	labels     []string   // Voter labels from the header row, may be short
	cells      [][]string // cells[row][voter]
	voters     int
}

// Parse reads the whole of r and validates it.
// Validation failures are returned as a *ValidationError.
func (p *Parser) Parse(r io.Reader) (*model.VoteMatrix, error) {
	switch p.mode {
	case model.ModeBallot, model.ModeNumeric:
	default:
		return nil, fmt.Errorf("unknown input mode %q", p.mode)
	}

	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	var probs problems
	g := buildGrid(records, &probs)
	if len(g.candidates) == 0 {
		probs.addf("no candidates found")
		return nil, probs.err()
	}

	m := &model.VoteMatrix{
		Candidates: g.candidates,
		Ranks:      make([][]int, g.voters),
	}
	if len(g.labels) > 0 {
		m.Voters = make([]string, g.voters)
		copy(m.Voters, g.labels)
	}

	index := make(map[string]int, len(g.candidates))
	for c, name := range g.candidates {
		key := strings.ToLower(name)
		if _, dup := index[key]; name != "" && !dup {
			index[key] = c
		}
	}

	for v := 0; v < g.voters; v++ {
		column := make([]string, len(g.candidates))
		for row := range g.candidates {
			column[row] = g.cell(row, v)
		}
		label := m.VoterLabel(v)
		if p.mode == model.ModeNumeric {
			m.Ranks[v] = parseNumeric(label, column, g.candidates, &probs)
		} else {
			m.Ranks[v] = parseOrder(label, column, g.candidates, index, &probs)
		}
	}

	if err := probs.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	for _, rec := range records {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}
	return records, nil
}

// buildGrid splits records into candidates, voter labels and ballot cells,
// dropping trailing blank rows and voter columns.
func buildGrid(records [][]string, probs *problems) *grid {
	g := &grid{}

	if len(records) > 0 && len(records[0]) > 0 && strings.EqualFold(records[0][0], "candidates") {
		g.labels = records[0][1:]
		records = records[1:]
	}

	for len(records) > 0 && blank(records[len(records)-1]) {
		records = records[:len(records)-1]
	}

	seen := make(map[string]int)
	for i, rec := range records {
		name := ""
		if len(rec) > 0 {
			name = rec[0]
		}
		if name == "" {
			probs.addf("row %d: blank candidate", i+1)
		} else if first, dup := seen[strings.ToLower(name)]; dup {
			probs.addf("row %d: candidate %s duplicates row %d", i+1, name, first+1)
		} else {
			seen[strings.ToLower(name)] = i
		}
		g.candidates = append(g.candidates, name)

		var votes []string
		if len(rec) > 1 {
			votes = rec[1:]
		}
		g.cells = append(g.cells, votes)
		g.voters = max(g.voters, len(votes))
	}

	for g.voters > 0 && g.blankColumn(g.voters-1) {
		g.voters--
	}
	if len(g.labels) > g.voters {
		g.labels = g.labels[:g.voters]
	}
	for v := 0; v < g.voters; v++ {
		if g.blankColumn(v) {
			probs.addf("voter column %d is blank", v+1)
		}
	}
	return g
}

func (g *grid) cell(row, voter int) string {
	if voter < len(g.cells[row]) {
		return g.cells[row][voter]
	}
	return ""
}

func (g *grid) blankColumn(voter int) bool {
	for row := range g.cells {
		if g.cell(row, voter) != "" {
			return false
		}
	}
	return true
}

func blank(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}

// parseOrder reads a column whose j-th cell names the voter's j-th choice
func parseOrder(label string, column, candidates []string, index map[string]int, probs *problems) []int {
	ranks := make([]int, len(candidates))
	gap := false
	for j, name := range column {
		if name == "" {
			gap = true
			continue
		}
		if gap {
			probs.addf("gap in %s rankings", label)
			gap = false
		}
		c, ok := index[strings.ToLower(name)]
		if !ok {
			probs.addf("%s ranked nonexistent candidate %s", label, name)
			continue
		}
		if ranks[c] != 0 {
			probs.addf("%s ranked candidate %s more than once", label, candidates[c])
			continue
		}
		ranks[c] = j + 1
	}
	return ranks
}

// parseNumeric reads a column whose j-th cell is the rank given to candidate j
func parseNumeric(label string, column, candidates []string, probs *problems) []int {
	ranks := make([]int, len(candidates))
	for c, cell := range column {
		if cell == "" {
			continue
		}
		rank, err := strconv.Atoi(cell)
		if err != nil {
			probs.addf("%s gave %s a rank %q that is not an integer", label, candidates[c], cell)
			continue
		}
		if rank < 1 || rank > len(candidates) {
			probs.addf("%s gave %s rank %d, outside 1..%d", label, candidates[c], rank, len(candidates))
			continue
		}
		ranks[c] = rank
	}
	return ranks
}
