package models

import (
	"time"

	"github.com/danielhkuo/chainelect/election"
)

// Request types

type CreateElectionRequest struct {
	ElectionID      string `json:"election_id"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
}

type AddAdminRequest struct {
	Address string `json:"address"`
}

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type VoteRequest struct {
	CandidateID int `json:"candidate_id"`
}

type RegisterVoterRequest struct {
	VoterID  string `json:"voter_id"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

type LoginRequest struct {
	VoterID  string `json:"voter_id"`
	Password string `json:"password"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	Deployer   string `json:"deployer"`
}

type IsAdminResponse struct {
	Address string `json:"address"`
	IsAdmin bool   `json:"is_admin"`
}

type AdminsResponse struct {
	Admins []string `json:"admins"`
}

type CandidatesResponse struct {
	Candidates []election.Candidate `json:"candidates"`
}

type CandidatesCountResponse struct {
	Count int `json:"count"`
}

type VotingStartedResponse struct {
	VotingStarted bool `json:"voting_started"`
}

type VotingEndedResponse struct {
	VotingEnded bool `json:"voting_ended"`
}

// Unix seconds, 0 until voting starts
type VotingEndTimeResponse struct {
	VotingEndTime int64 `json:"voting_end_time"`
}

type RemainingTimeResponse struct {
	RemainingTime int64 `json:"remaining_time"`
}

type VoteResponse struct {
	CandidateID int    `json:"candidate_id"`
	Message     string `json:"message"`
}

type HasVotedResponse struct {
	Address  string `json:"address"`
	HasVoted bool   `json:"has_voted"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ElectionsResponse struct {
	Elections []election.Status `json:"elections"`
}

type EventsResponse struct {
	Events []election.Event `json:"events"`
}

type RegisterVoterResponse struct {
	VoterID   string `json:"voter_id"`
	Address   string `json:"address"`
	CallerKey string `json:"caller_key"`
}

type LoginResponse struct {
	Address   string `json:"address"`
	CallerKey string `json:"caller_key"`
}

// Domain types

type Voter struct {
	VoterID      string    `json:"voter_id"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	KeySecret    string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
