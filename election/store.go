// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "context"

// Snapshot is the full persisted state of one election
type Snapshot struct {
	ID              string
	Deployer        string
	DurationSeconds int64
	CreatedAt       int64
	Started         bool
	Ended           bool
	StartTime       int64
	EndTime         int64
	LastSeq         int64
	Admins          []string
	Candidates      []Candidate
	Votes           map[string]int
}

// Store persists election mutations. Each write method must apply the
// mutation and append ev atomically: either both are durable or neither.
type Store interface {
	CreateElection(ctx context.Context, snap Snapshot, ev Event) error
	AddAdmin(ctx context.Context, electionID, address string, ev Event) error
	AddCandidate(ctx context.Context, electionID string, c Candidate, ev Event) error
	StartVoting(ctx context.Context, electionID string, startTime, endTime int64, ev Event) error
	RecordVote(ctx context.Context, electionID, voter string, candidateID int, ev Event) error
	ResetVotingState(ctx context.Context, electionID string, clearCandidates bool, ev Event) error

	LoadElections(ctx context.Context) ([]Snapshot, error)
	ListEvents(ctx context.Context, electionID string, afterSeq int64, limit int) ([]Event, error)
}
