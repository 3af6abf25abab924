// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

// Phase is the derived lifecycle state of an election cycle
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseActive     Phase = "active"
	PhaseEnded      Phase = "ended"
)

// clock holds the stored election window. All times are Unix seconds.
type clock struct {
	started   bool
	ended     bool
	startTime int64
	endTime   int64
}

// isEnded is computed at read time and never cached: an active election
// ends by reaching endTime, without a transaction to flip the flag.
func isEnded(c clock, now int64) bool {
	return c.ended || (c.started && now >= c.endTime)
}

func isActive(c clock, now int64) bool {
	return c.started && !isEnded(c, now)
}

func remaining(c clock, now int64) int64 {
	if !c.started || now >= c.endTime {
		return 0
	}
	return c.endTime - now
}

func phaseOf(c clock, now int64) Phase {
	switch {
	case !c.started:
		return PhaseNotStarted
	case isEnded(c, now):
		return PhaseEnded
	default:
		return PhaseActive
	}
}
