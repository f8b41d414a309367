package tally

import "github.com/duke1swd/Voting/internal/model"

// buildMajorities creates one pairing per unordered pair of candidates
func (s *state) buildMajorities() {
	n := len(s.candidates)
	s.majorities = make([]majority, 0, n*(n-1)/2)
	for x := 0; x < n-1; x++ {
		for y := x + 1; y < n; y++ {
			s.majorities = append(s.majorities, pairMargin(s.matrix, x, y))
		}
	}

	s.tiedPairs = 0
	for _, m := range s.majorities {
		if m.strength == 0 {
			s.tiedPairs++
		}
	}
	if s.tiedPairs > 0 {
		s.logger.Warn("tied pairings found", "count", s.tiedPairs)
	}
	s.logger.Debug("built pairings", "candidates", n, "voters", s.matrix.NumVoters(), "pairings", len(s.majorities))
}

// pairMargin scans every ballot for the preference between x and y.
// An unranked candidate is tied for last, so any ranked candidate beats it.
// The result is oriented so that strength is never negative; a tie keeps x
// as the nominal winner.
func pairMargin(m *model.VoteMatrix, x, y int) majority {
	strength := 0
	for v := 0; v < m.NumVoters(); v++ {
		rx, ry := m.Rank(v, x), m.Rank(v, y)
		switch {
		case rx != 0 && ry != 0:
			if rx < ry {
				strength++
			} else if rx > ry {
				strength--
			}
		case rx != 0:
			strength++
		case ry != 0:
			strength--
		}
	}

	if strength < 0 {
		return majority{winner: y, loser: x, strength: -strength}
	}
	return majority{winner: x, loser: y, strength: strength}
}
