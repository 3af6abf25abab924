// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

// Candidate is a named option voters may select.
type Candidate struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	VoteCount int    `json:"vote_count"`
}

// candidateLedger holds candidates in id order; candidate i has id i+1.
type candidateLedger []Candidate

func (l candidateLedger) count() int {
	return len(l)
}

func (l candidateLedger) has(id int) bool {
	return id >= 1 && id <= len(l)
}

func (l candidateLedger) get(id int) (Candidate, bool) {
	if !l.has(id) {
		return Candidate{}, false
	}
	return l[id-1], true
}

func (l candidateLedger) nextID() int {
	return len(l) + 1
}

func (l *candidateLedger) add(name string) Candidate {
	c := Candidate{ID: l.nextID(), Name: name}
	*l = append(*l, c)
	return c
}

func (l candidateLedger) increment(id int) {
	l[id-1].VoteCount++
}

func (l candidateLedger) zeroCounts() {
	for i := range l {
		l[i].VoteCount = 0
	}
}

func (l candidateLedger) totalVotes() int {
	total := 0
	for _, c := range l {
		total += c.VoteCount
	}
	return total
}

func (l candidateLedger) clone() []Candidate {
	out := make([]Candidate, len(l))
	copy(out, l)
	return out
}
