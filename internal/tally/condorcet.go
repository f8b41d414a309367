package tally

import "github.com/duke1swd/Voting/internal/model"

// condorcetRound pulls out a Condorcet winner and/or loser of the surviving
// pairings. It reports whether anyone was ranked; false is the normal way the
// Condorcet stage ends.
func (s *state) condorcetRound(rule model.LoserRule) (bool, error) {
	s.markPairs()

	winner := s.unique(func(c *candidate) bool {
		return c.winsPair && !c.losesPair && !c.ties
	})
	loser := s.unique(func(c *candidate) bool {
		return isCondorcetLoser(c, rule)
	})
	if winner < 0 && loser < 0 {
		return false, nil
	}

	var decided []int
	if winner >= 0 {
		rank, ok := s.reserveTop(1)
		if !ok {
			s.collapse("condorcet winner")
			return true, nil
		}
		s.assign([]int{winner}, rank, model.SourceCondorcetWinner)
		decided = append(decided, winner)
	}
	if loser >= 0 {
		rank, ok := s.reserveBottom(1)
		if !ok {
			s.collapse("condorcet loser")
			return true, nil
		}
		s.assign([]int{loser}, rank, model.SourceCondorcetLoser)
		decided = append(decided, loser)
	}

	s.retire(decided...)
	s.record(model.RoundCondorcet, decided, 0, 0)
	s.logger.Debug("condorcet round", "phase", s.phase, "decided", s.names(decided))
	s.phase++
	return true, nil
}

// markPairs recomputes the per-round flags of the surviving candidates.
// Zero-strength pairings only count as ties.
func (s *state) markPairs() {
	for i := range s.candidates {
		c := &s.candidates[i]
		c.winsPair, c.losesPair, c.ties = false, false, false
	}
	for _, m := range s.majorities {
		if m.strength == 0 {
			s.candidates[m.winner].ties = true
			s.candidates[m.loser].ties = true
			continue
		}
		s.candidates[m.winner].winsPair = true
		s.candidates[m.loser].losesPair = true
	}
}

// unique returns the only undecided candidate matching pred, or -1
func (s *state) unique(pred func(*candidate) bool) int {
	found := -1
	for i := range s.candidates {
		c := &s.candidates[i]
		if c.decided() || !pred(c) {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}
	return found
}

// isCondorcetLoser applies the configured loser predicate.
// The preserved rule is not the mirror image of the winner rule: the loser
// must also be party to a tied pairing.
func isCondorcetLoser(c *candidate, rule model.LoserRule) bool {
	if !c.losesPair || c.winsPair {
		return false
	}
	if rule == model.LoserRuleClassic {
		return !c.ties
	}
	return c.ties
}
