package tally

import "github.com/duke1swd/Voting/internal/model"

// rankedPairsRound sorts and locks the surviving pairings, then ranks every
// candidate that no locked arc points at. Several such candidates share the
// rank and make the phase ambiguous, as do incomparable neighbours in the
// sorted pairings and a winner that holds a locked tie.
func (s *state) rankedPairsRound() error {
	p := newPrioritizer(s)
	if err := p.sort(s.majorities); err != nil {
		return err
	}
	ties, err := p.adjacentTies(s.majorities)
	if err != nil {
		return err
	}
	if ties > 0 {
		s.priorityTies += ties
		s.logger.Warn("pairings could not be strictly ordered", "phase", s.phase, "ties", ties)
	}

	_, locked, unlocked := s.lockMajorities()

	mentioned := make([]bool, len(s.candidates))
	beaten := make([]bool, len(s.candidates))
	coinFlip := make([]bool, len(s.candidates))
	for _, m := range s.majorities {
		mentioned[m.winner] = true
		mentioned[m.loser] = true
		if m.locked {
			beaten[m.loser] = true
			if m.strength == 0 {
				coinFlip[m.winner] = true
			}
		}
	}

	var winners []int
	arbitrary := ties > 0
	for c := range s.candidates {
		if mentioned[c] && !beaten[c] {
			winners = append(winners, c)
			// A locked zero-margin arc only reflects the nominal orientation of a tie
			arbitrary = arbitrary || coinFlip[c]
		}
	}
	if len(winners) == 0 {
		return s.invariantf("ranked pairs extraction", nil, s.majorities,
			"locked graph has no undefeated candidate")
	}

	rank, ok := s.reserveTop(len(winners))
	if !ok {
		s.collapse("ranked pairs winners")
		return nil
	}
	s.assign(winners, rank, model.SourceRankedPairsWinner)
	if arbitrary || len(winners) > 1 {
		s.markTie()
	}
	s.retire(winners...)
	s.record(model.RoundRankedPairs, winners, locked, unlocked)
	s.logger.Debug("ranked pairs yielded winners", "phase", s.phase, "winners", s.names(winners))
	s.phase++
	return nil
}
