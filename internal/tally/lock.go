package tally

// lockGraph holds the arcs locked so far: winner -> loser
type lockGraph struct {
	out [][]int
}

func newLockGraph(n int) *lockGraph {
	return &lockGraph{out: make([][]int, n)}
}

func (g *lockGraph) add(from, to int) {
	g.out[from] = append(g.out[from], to)
}

// reaches reports whether a path of locked arcs leads from one candidate to
// another. Breadth-first with a visited set, so it terminates on any graph.
func (g *lockGraph) reaches(from, to int) bool {
	if from == to {
		return true
	}
	visited := make([]bool, len(g.out))
	visited[from] = true
	queue := []int{from}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, next := range g.out[n] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// cyclic reports whether any locked arc lies on a cycle
func (g *lockGraph) cyclic() bool {
	for from, arcs := range g.out {
		for _, to := range arcs {
			if g.reaches(to, from) {
				return true
			}
		}
	}
	return false
}

// lockMajorities walks the pairings in their current order and locks each one
// unless its loser already reaches its winner over locked arcs.
func (s *state) lockMajorities() (*lockGraph, int, int) {
	g := newLockGraph(len(s.candidates))
	locked, unlocked := 0, 0
	for i := range s.majorities {
		m := &s.majorities[i]
		if g.reaches(m.loser, m.winner) {
			m.locked = false
			unlocked++
			continue
		}
		g.add(m.winner, m.loser)
		m.locked = true
		locked++
	}
	s.logger.Debug("locked pairings", "phase", s.phase, "locked", locked, "unlocked", unlocked)
	return g, locked, unlocked
}
