package tally

import "github.com/duke1swd/Voting/internal/model"

// extractUnranked gives candidates that no voter ranked the bottom block of
// ranks, all tied, before any preference round runs.
func (s *state) extractUnranked() {
	var unranked []int
	for c := range s.candidates {
		if !s.everRanked(c) {
			unranked = append(unranked, c)
		}
	}
	if len(unranked) == 0 {
		return
	}

	rank, ok := s.reserveBottom(len(unranked))
	if !ok {
		s.collapse("unranked block")
		return
	}
	s.assign(unranked, rank, model.SourceNoRankings)
	s.retire(unranked...)
	s.record(model.RoundUnranked, unranked, 0, 0)
	s.logger.Info("candidates without rankings", "candidates", s.names(unranked), "rank", rank+1)
	s.phase++
}

func (s *state) everRanked(c int) bool {
	for v := 0; v < s.matrix.NumVoters(); v++ {
		if s.matrix.Rank(v, c) != 0 {
			return true
		}
	}
	return false
}
