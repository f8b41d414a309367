package model

import "fmt"

// VoteMatrix is the validated input of a tally.
// Ranks[v][c] is the rank voter v gave candidate c: 1 is best, 0 means unranked
// (tied for last on that ballot).
type VoteMatrix struct {
	Candidates []string `json:"candidates" yaml:"candidates" cbor:"1,keyasint"`
	Voters     []string `json:"voters,omitempty" yaml:"voters,omitempty" cbor:"2,keyasint,omitempty"`
	Ranks      [][]int  `json:"ranks" yaml:"ranks" cbor:"3,keyasint"`
}

// NumCandidates returns the number of candidates
func (m *VoteMatrix) NumCandidates() int {
	return len(m.Candidates)
}

// NumVoters returns the number of ballots
func (m *VoteMatrix) NumVoters() int {
	return len(m.Ranks)
}

// Rank returns the rank voter v gave candidate c (0 if unranked)
func (m *VoteMatrix) Rank(v, c int) int {
	return m.Ranks[v][c]
}

// VoterLabel returns a human-readable label for voter v
func (m *VoteMatrix) VoterLabel(v int) string {
	if v < len(m.Voters) && m.Voters[v] != "" {
		return m.Voters[v]
	}
	return fmt.Sprintf("voter %d", v+1)
}

// CheckShape verifies that every ballot row has one entry per candidate and that
// no rank is negative. It does not check ballot semantics; that is the parser's job.
func (m *VoteMatrix) CheckShape() error {
	n := len(m.Candidates)
	for v, row := range m.Ranks {
		if len(row) != n {
			return fmt.Errorf("%s has %d ranks, expected %d", m.VoterLabel(v), len(row), n)
		}
		for c, r := range row {
			if r < 0 {
				return fmt.Errorf("%s gave %s a negative rank %d", m.VoterLabel(v), m.Candidates[c], r)
			}
		}
	}
	return nil
}
