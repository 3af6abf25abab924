// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

// voteLedger maps voter address to the candidate voted for in this cycle
type voteLedger map[string]int

func (l voteLedger) hasVoted(voter string) bool {
	_, ok := l[voter]
	return ok
}

func (l voteLedger) clone() map[string]int {
	out := make(map[string]int, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}
