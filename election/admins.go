// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "sort"

// adminSet only grows; there is no revocation.
type adminSet map[string]struct{}

func newAdminSet(addrs ...string) adminSet {
	s := make(adminSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

func (s adminSet) has(addr string) bool {
	_, ok := s[addr]
	return ok
}

func (s adminSet) add(addr string) {
	s[addr] = struct{}{}
}

func (s adminSet) list() []string {
	out := make([]string, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
