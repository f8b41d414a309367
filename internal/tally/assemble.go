package tally

import (
	"cmp"
	"slices"

	"github.com/duke1swd/Voting/internal/model"
)

// assemble ranks the last candidate standing and builds the report
func (s *state) assemble() (*model.Report, error) {
	var leftover []int
	for c := range s.candidates {
		if !s.candidates[c].decided() {
			leftover = append(leftover, c)
		}
	}
	if len(leftover) > 1 {
		return nil, s.invariantf("ranking assembly", leftover, s.majorities,
			"%d candidates left without a rank", len(leftover))
	}
	if len(leftover) == 1 {
		rank, ok := s.reserveTop(1)
		if !ok {
			s.collapse("last candidate")
		} else {
			s.assign(leftover, rank, model.SourceRankedPairsLoser)
			s.record(model.RoundFinal, leftover, 0, 0)
			s.phase++
		}
	}

	order := make([]int, len(s.candidates))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(s.candidates[a].rank, s.candidates[b].rank)
	})

	report := &model.Report{
		Candidates:   len(s.candidates),
		Voters:       s.matrix.NumVoters(),
		TiedPairs:    s.tiedPairs,
		PriorityTies: s.priorityTies,
		Rows:         make([]model.Row, 0, len(order)),
		Rounds:       s.rounds,
	}
	for _, c := range order {
		cand := &s.candidates[c]
		report.Rows = append(report.Rows, model.Row{
			Name:   cand.name,
			Rank:   cand.rank + 1,
			Tie:    s.tiePhase > 0 && cand.phase >= s.tiePhase,
			Phase:  cand.phase,
			Source: cand.source,
		})
	}
	return report, nil
}
