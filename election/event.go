// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

// Event kinds, one per committed mutation
const (
	KindElectionCreated = "ElectionCreated"
	KindAdminAdded      = "AdminAdded"
	KindCandidateAdded  = "CandidateAdded"
	KindVotingStarted   = "VotingStarted"
	KindVoteCast        = "VoteCast"
	KindVotingReset     = "VotingReset"
)

// Event records one committed state change. Seq increases by one per
// mutation within an election.
type Event struct {
	ID          string `json:"id"`
	ElectionID  string `json:"election_id"`
	Seq         int64  `json:"seq"`
	Kind        string `json:"kind"`
	Actor       string `json:"actor"`
	Subject     string `json:"subject,omitempty"`
	CandidateID int    `json:"candidate_id,omitempty"`
	EndTime     int64  `json:"end_time,omitempty"`
	At          int64  `json:"at"`
}

// Publisher receives events after they are durably committed.
// Publish must not block.
type Publisher interface {
	Publish(ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
