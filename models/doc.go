// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: election_id, duration_seconds
  - AddAdminRequest: address
  - AddCandidateRequest: name
  - VoteRequest: candidate_id
  - RegisterVoterRequest: voter_id, address, password
  - LoginRequest: voter_id, password

# Response Types

One small type per read so each JSON field keeps the name of the election
entry point it reports (voting_started, voting_end_time, remaining_time).
Candidates, statuses and events reuse the election package types.

# Error Response

	{"error": "Conflict", "code": "AlreadyVoted", "message": "..."}

code carries the election error name when there is one.
*/
package models
