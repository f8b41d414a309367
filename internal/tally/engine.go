// Package tally turns a validated vote matrix into a single ranking of the
// candidates: Condorcet winners and losers are peeled off first, and whatever
// the Condorcet rounds cannot decide is settled by Tideman's Ranked Pairs.
package tally

import (
	"fmt"
	"log/slog"

	"github.com/duke1swd/Voting/internal/model"
)

// Engine runs tallies. It holds configuration only; every call to Tally works
// on a fresh state, so one Engine can serve several goroutines.
type Engine struct {
	loserRule model.LoserRule
	logger    *slog.Logger
}

// NewEngine creates a tally engine. A nil logger discards all output.
func NewEngine(cfg model.TallyConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rule := cfg.LoserRule
	if rule == "" {
		rule = model.LoserRulePreserved
	}
	return &Engine{
		loserRule: rule,
		logger:    logger,
	}
}

// stage is a state of the tally loop
type stage int

const (
	stageBuild stage = iota
	stageUnranked
	stageCondorcet
	stageRankedPairs
	stageAssemble
)

// Tally ranks the candidates of m. The matrix is never modified.
func (e *Engine) Tally(m *model.VoteMatrix) (*model.Report, error) {
	switch e.loserRule {
	case model.LoserRulePreserved, model.LoserRuleClassic:
	default:
		return nil, fmt.Errorf("unknown loser rule %q", e.loserRule)
	}
	if err := m.CheckShape(); err != nil {
		return nil, fmt.Errorf("vote matrix: %w", err)
	}

	s := newState(m, e.logger)
	condorcetRounds := 0

	for st := stageBuild; ; {
		switch st {
		case stageBuild:
			s.buildMajorities()
			st = stageUnranked

		case stageUnranked:
			s.extractUnranked()
			st = stageCondorcet

		case stageCondorcet:
			found, err := s.condorcetRound(e.loserRule)
			if err != nil {
				return nil, err
			}
			if !found {
				st = stageRankedPairs
				continue
			}
			// Every productive round decides at least one candidate
			condorcetRounds++
			if condorcetRounds > len(s.candidates) {
				return nil, s.invariantf("condorcet extraction", nil, nil,
					"no fixpoint after %d rounds", condorcetRounds)
			}

		case stageRankedPairs:
			if len(s.majorities) == 0 {
				st = stageAssemble
				continue
			}
			if err := s.rankedPairsRound(); err != nil {
				return nil, err
			}

		case stageAssemble:
			report, err := s.assemble()
			if err != nil {
				return nil, err
			}
			report.LoserRule = string(e.loserRule)
			return report, nil
		}
	}
}

// candidate is one candidate's working record for a single tally
type candidate struct {
	name   string
	index  int
	rank   int // 0-based
	phase  int
	source model.Source

	// Reset at the start of every Condorcet round
	winsPair  bool
	losesPair bool
	ties      bool
}

func (c *candidate) decided() bool {
	return c.source != model.SourceNone
}

// majority is the pairwise comparison of two surviving candidates.
// After normalization winner never has fewer preferences than loser.
type majority struct {
	winner   int
	loser    int
	strength int
	locked   bool
}

func (m majority) involves(c int) bool {
	return m.winner == c || m.loser == c
}

// state is the working set of one tally
type state struct {
	matrix     *model.VoteMatrix
	candidates []candidate
	majorities []majority

	nextWinner int
	nextLoser  int
	phase      int
	tiePhase   int // First phase whose outcome is not uniquely determined, 0 if none

	tiedPairs    int
	priorityTies int
	rounds       []model.Round

	logger *slog.Logger
}

func newState(m *model.VoteMatrix, logger *slog.Logger) *state {
	n := m.NumCandidates()
	s := &state{
		matrix:     m,
		candidates: make([]candidate, n),
		nextWinner: 0,
		nextLoser:  n - 1,
		phase:      1,
		logger:     logger,
	}
	for i, name := range m.Candidates {
		s.candidates[i] = candidate{name: name, index: i}
	}
	return s
}

// undecided returns the number of candidates without a rank
func (s *state) undecided() int {
	k := 0
	for i := range s.candidates {
		if !s.candidates[i].decided() {
			k++
		}
	}
	return k
}

// reserveTop hands out count ranks from the top of the table and returns the
// first one. It reports false if the winner and loser counters would cross.
func (s *state) reserveTop(count int) (int, bool) {
	if s.nextWinner+count-1 > s.nextLoser {
		return 0, false
	}
	rank := s.nextWinner
	s.nextWinner += count
	return rank, true
}

// reserveBottom hands out count ranks from the bottom of the table and
// returns the best of them.
func (s *state) reserveBottom(count int) (int, bool) {
	if s.nextLoser-count+1 < s.nextWinner {
		return 0, false
	}
	s.nextLoser -= count
	return s.nextLoser + 1, true
}

// collapse ties every undecided candidate at the middle of the remaining
// rank range. It is the way out when the rank counters would cross.
func (s *state) collapse(reason string) {
	lo, hi := s.nextWinner, s.nextLoser
	if hi < lo {
		lo, hi = hi, lo
	}
	mid := lo + (hi-lo)/2

	var tied []int
	for i := range s.candidates {
		if !s.candidates[i].decided() {
			tied = append(tied, i)
		}
	}
	s.logger.Warn("rank counters crossed, remaining candidates tied",
		"reason", reason, "candidates", len(tied), "rank", mid+1)

	s.assign(tied, mid, model.SourceRankedPairsWinner)
	s.markTie()
	// Anything still paired involves a candidate decided in this step
	s.majorities = s.majorities[:0]
	s.record(model.RoundRankedPairs, tied, 0, 0)
	s.nextWinner = s.nextLoser + 1
	s.phase++
}

// assign gives every candidate in ids the same rank in the current phase
func (s *state) assign(ids []int, rank int, source model.Source) {
	for _, c := range ids {
		cand := &s.candidates[c]
		cand.rank = rank
		cand.phase = s.phase
		cand.source = source
	}
}

// markTie remembers the current phase as ambiguous if none was seen before
func (s *state) markTie() {
	if s.tiePhase == 0 {
		s.tiePhase = s.phase
	}
}

// retire drops every pairing that involves one of ids, keeping the order of
// the rest.
func (s *state) retire(ids ...int) {
	if len(ids) == 0 {
		return
	}
	gone := make(map[int]bool, len(ids))
	for _, c := range ids {
		gone[c] = true
	}

	kept := s.majorities[:0]
	for _, m := range s.majorities {
		if gone[m.winner] || gone[m.loser] {
			continue
		}
		kept = append(kept, m)
	}
	pulled := len(s.majorities) - len(kept)
	s.majorities = kept

	s.logger.Debug("pulled pairings", "candidates", s.names(ids), "pairings", pulled, "remaining", len(kept))
}

// record appends an entry to the round log
func (s *state) record(kind model.RoundKind, ids []int, locked, unlocked int) {
	s.rounds = append(s.rounds, model.Round{
		Phase:    s.phase,
		Kind:     kind,
		Decided:  s.names(ids),
		Locked:   locked,
		Unlocked: unlocked,
		Tie:      s.tiePhase == s.phase,
	})
}

func (s *state) names(ids []int) []string {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, len(ids))
	for i, c := range ids {
		names[i] = s.candidates[c].name
	}
	return names
}

func (s *state) describe(m majority) string {
	return fmt.Sprintf("%s > %s (%d)", s.candidates[m.winner].name, s.candidates[m.loser].name, m.strength)
}
