package tally

// pairKey identifies the pairing of two candidates regardless of orientation
type pairKey struct {
	lo, hi int
}

func keyOf(x, y int) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{lo: x, hi: y}
}

// prioritizer orders pairings for the lock pass. It works on a snapshot of
// the surviving pairings and never changes them.
type prioritizer struct {
	s      *state
	byPair map[pairKey]majority
}

func newPrioritizer(s *state) *prioritizer {
	byPair := make(map[pairKey]majority, len(s.majorities))
	for _, m := range s.majorities {
		byPair[keyOf(m.winner, m.loser)] = m
	}
	return &prioritizer{s: s, byPair: byPair}
}

// compare returns -1 when a must be locked before b, 1 when b comes first and
// 0 when the two cannot be told apart.
//
// Stronger pairings come first. Between equally strong pairings the one whose
// loser beat the other loser comes first. Pairings with the same loser, or
// whose losers tied each other, are incomparable.
func (p *prioritizer) compare(a, b majority) (int, error) {
	if a.strength != b.strength {
		if a.strength > b.strength {
			return -1, nil
		}
		return 1, nil
	}
	if a.loser == b.loser {
		return 0, nil
	}

	between, ok := p.byPair[keyOf(a.loser, b.loser)]
	if !ok {
		return 0, p.s.invariantf("priority sort", []int{a.loser, b.loser}, []majority{a, b},
			"no pairing between the losers of two equally strong pairings")
	}
	if between.strength == 0 {
		return 0, nil
	}
	if between.winner == a.loser {
		return -1, nil
	}
	return 1, nil
}

// sort orders ms by priority with a stable top-down merge sort. Incomparable
// pairings keep their relative order, so the outcome depends only on the
// input order and never on the sort algorithm of the standard library.
func (p *prioritizer) sort(ms []majority) error {
	if len(ms) < 2 {
		return nil
	}
	buf := make([]majority, len(ms))
	return p.mergeSort(ms, buf)
}

func (p *prioritizer) mergeSort(ms, buf []majority) error {
	if len(ms) < 2 {
		return nil
	}
	mid := len(ms) / 2
	if err := p.mergeSort(ms[:mid], buf[:mid]); err != nil {
		return err
	}
	if err := p.mergeSort(ms[mid:], buf[mid:]); err != nil {
		return err
	}

	copy(buf, ms)
	left, right := buf[:mid], buf[mid:]
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		c, err := p.compare(right[j], left[i])
		if err != nil {
			return err
		}
		// Take from the right only when it strictly precedes the left
		if c < 0 {
			ms[k] = right[j]
			j++
		} else {
			ms[k] = left[i]
			i++
		}
		k++
	}
	k += copy(ms[k:], left[i:])
	copy(ms[k:], right[j:])
	return nil
}

// adjacentTies counts neighbours in sorted ms that compare as equal
func (p *prioritizer) adjacentTies(ms []majority) (int, error) {
	ties := 0
	for i := 1; i < len(ms); i++ {
		c, err := p.compare(ms[i-1], ms[i])
		if err != nil {
			return 0, err
		}
		if c == 0 {
			ties++
		}
	}
	return ties, nil
}
