// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "errors"

// Failure conditions of the election entry points. The error text is the
// stable code callers match on.
var (
	ErrUnauthorized         = errors.New("Unauthorized")
	ErrAlreadyStarted       = errors.New("AlreadyStarted")
	ErrVotingNotActive      = errors.New("VotingNotActive")
	ErrVotingAlreadyStarted = errors.New("VotingAlreadyStarted")
	ErrAlreadyVoted         = errors.New("AlreadyVoted")
	ErrNotFound             = errors.New("NotFound")
	ErrNoCandidates         = errors.New("NoCandidates")

	ErrInvalidAddress    = errors.New("InvalidAddress")
	ErrInvalidName       = errors.New("InvalidName")
	ErrInvalidElectionID = errors.New("InvalidElectionID")
	ErrElectionExists    = errors.New("ElectionExists")
	ErrElectionNotFound  = errors.New("ElectionNotFound")
)

var codes = []error{
	ErrUnauthorized,
	ErrAlreadyStarted,
	ErrVotingNotActive,
	ErrVotingAlreadyStarted,
	ErrAlreadyVoted,
	ErrNotFound,
	ErrNoCandidates,
	ErrInvalidAddress,
	ErrInvalidName,
	ErrInvalidElectionID,
	ErrElectionExists,
	ErrElectionNotFound,
}

// Code returns the wire code of err, or "" if err is not an election error.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c) {
			return c.Error()
		}
	}
	return ""
}

// ErrorForCode returns the sentinel for a wire code, or nil if unknown.
func ErrorForCode(code string) error {
	for _, c := range codes {
		if c.Error() == code {
			return c
		}
	}
	return nil
}
