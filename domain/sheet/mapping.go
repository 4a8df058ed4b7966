package sheet

import "sort"

// MatchMode records which strategy produced a mapping
type MatchMode string

const (
	MatchByKey      MatchMode = "key"
	MatchByContent  MatchMode = "content"
	MatchByHeader   MatchMode = "header"
	MatchByPosition MatchMode = "position"
)

// Pair is one baseline index matched to one candidate index
type Pair struct {
	Baseline  int
	Candidate int
}

// Mapping is a one-to-one partial function from baseline indices to candidate
// indices. Each candidate index is the target of at most one baseline index.
type Mapping struct {
	Mode MatchMode
	fwd  map[int]int
	rev  map[int]int
}

// RowMapping pairs baseline rows with candidate rows
type RowMapping = Mapping

// ColumnMapping pairs baseline columns with candidate columns
type ColumnMapping = Mapping

// NewMapping creates an empty mapping produced by mode
func NewMapping(mode MatchMode) *Mapping {
	return &Mapping{Mode: mode, fwd: make(map[int]int), rev: make(map[int]int)}
}

// IdentityMapping maps i to i for 1..n
func IdentityMapping(n int) *Mapping {
	m := NewMapping(MatchByPosition)
	for i := 1; i <= n; i++ {
		m.Pair(i, i)
	}
	return m
}

// Pair records b -> c. It refuses (returns false) when either side is already used.
func (m *Mapping) Pair(b, c int) bool {
	if _, used := m.fwd[b]; used {
		return false
	}
	if _, used := m.rev[c]; used {
		return false
	}
	m.fwd[b] = c
	m.rev[c] = b
	return true
}

// Candidate returns the candidate index paired with baseline index b
func (m *Mapping) Candidate(b int) (int, bool) {
	c, ok := m.fwd[b]
	return c, ok
}

// Baseline returns the baseline index paired with candidate index c
func (m *Mapping) Baseline(c int) (int, bool) {
	b, ok := m.rev[c]
	return b, ok
}

// Len is the number of pairs
func (m *Mapping) Len() int { return len(m.fwd) }

// Pairs returns all pairs ordered by baseline index
func (m *Mapping) Pairs() []Pair {
	out := make([]Pair, 0, len(m.fwd))
	for b, c := range m.fwd {
		out = append(out, Pair{Baseline: b, Candidate: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Baseline < out[j].Baseline })
	return out
}
