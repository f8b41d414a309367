package model

import (
	"fmt"
	"strings"
)

// Report is the complete result of one tally
type Report struct {
	Candidates   int    `json:"candidates" yaml:"candidates" cbor:"candidates"`
	Voters       int    `json:"voters" yaml:"voters" cbor:"voters"`
	TiedPairs    int    `json:"tied_pairs" yaml:"tied_pairs" cbor:"tied_pairs"`          // Zero-margin pairings at build time
	PriorityTies int    `json:"priority_ties" yaml:"priority_ties" cbor:"priority_ties"` // Incomparable neighbours seen while sorting pairings
	LoserRule    string `json:"loser_rule" yaml:"loser_rule" cbor:"loser_rule"`

	Rows   []Row   `json:"rows" yaml:"rows" cbor:"rows"`
	Rounds []Round `json:"rounds,omitempty" yaml:"rounds,omitempty" cbor:"rounds,omitempty"`
}

// Row is one line of the final ranking
type Row struct {
	Name   string `json:"name" yaml:"name" cbor:"name"`
	Rank   int    `json:"rank" yaml:"rank" cbor:"rank"` // 1-based
	Tie    bool   `json:"tie" yaml:"tie" cbor:"tie"`    // Order from here down is not uniquely determined
	Phase  int    `json:"phase" yaml:"phase" cbor:"phase"`
	Source Source `json:"source" yaml:"source" cbor:"source"`
}

// Round records what happened in one phase of the tally
type Round struct {
	Phase    int       `json:"phase" yaml:"phase" cbor:"phase"`
	Kind     RoundKind `json:"kind" yaml:"kind" cbor:"kind"`
	Decided  []string  `json:"decided,omitempty" yaml:"decided,omitempty" cbor:"decided,omitempty"`
	Locked   int       `json:"locked,omitempty" yaml:"locked,omitempty" cbor:"locked,omitempty"`
	Unlocked int       `json:"unlocked,omitempty" yaml:"unlocked,omitempty" cbor:"unlocked,omitempty"`
	Tie      bool      `json:"tie,omitempty" yaml:"tie,omitempty" cbor:"tie,omitempty"`
}

// RoundKind classifies a round
type RoundKind string

const (
	RoundUnranked    RoundKind = "unranked"
	RoundCondorcet   RoundKind = "condorcet"
	RoundRankedPairs RoundKind = "ranked_pairs"
	RoundFinal       RoundKind = "final"
)

// Source records which rule decided a candidate's rank
type Source int

const (
	SourceNone Source = iota
	SourceCondorcetWinner
	SourceCondorcetLoser
	SourceRankedPairsWinner
	SourceRankedPairsLoser
	SourceNoRankings
)

var sourceNames = map[Source]string{
	SourceNone:              "none",
	SourceCondorcetWinner:   "condorcet_winner",
	SourceCondorcetLoser:    "condorcet_loser",
	SourceRankedPairsWinner: "ranked_pairs_winner",
	SourceRankedPairsLoser:  "ranked_pairs_loser",
	SourceNoRankings:        "no_rankings",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Label returns the display form used in tables
func (s Source) Label() string {
	switch s {
	case SourceCondorcetWinner:
		return "Condorcet winner"
	case SourceCondorcetLoser:
		return "Condorcet loser"
	case SourceRankedPairsWinner:
		return "Ranked pairs winner"
	case SourceRankedPairsLoser:
		return "Ranked pairs loser"
	case SourceNoRankings:
		return "No rankings"
	default:
		return "-"
	}
}

// MarshalText encodes the source by name (used by json, yaml and cbor)
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a source name
func (s *Source) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for src, n := range sourceNames {
		if n == name {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("unknown source %q", string(text))
}

// Winners returns the rows that share the best rank
func (r *Report) Winners() []Row {
	if len(r.Rows) == 0 {
		return nil
	}
	best := r.Rows[0].Rank
	var winners []Row
	for _, row := range r.Rows {
		if row.Rank != best {
			break
		}
		winners = append(winners, row)
	}
	return winners
}

// HasTie reports whether any row carries the tie flag
func (r *Report) HasTie() bool {
	for _, row := range r.Rows {
		if row.Tie {
			return true
		}
	}
	return false
}
