// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the ChainElect API.

# Handler Types

Each handler is a struct with its dependencies and the config:

  - ElectionHandler: create/list elections, admins, start, reset, clock reads
  - CandidateHandler: candidate ledger
  - VotingHandler: casting votes and has-voted lookups
  - VoterHandler: voter registration and login
  - EventHandler: event journal and the live websocket stream

	electionHandler := handlers.NewElectionHandler(mgr, voters, cfg)

# Election Lifecycle

	POST /elections                  → CreateElection (caller becomes deployer)
	POST /elections/{id}/admins      → AddAdmin
	POST /elections/{id}/candidates  → AddCandidate (before start only)
	POST /elections/{id}/start       → StartVoting
	POST /elections/{id}/votes       → Vote (while active)
	POST /elections/{id}/reset       → ResetVotingState

Mutations require the X-Caller-Address and X-Caller-Key headers; missing or
forged credentials get 401. Voter keys from registration may only vote;
creating elections and admin operations need the operator key and answer
403 Unauthorized otherwise. Registration refuses addresses that administer
an election. Whether the caller may act is then decided by the election,
and its errors map to statuses:

	Unauthorized                          403
	NotFound, ElectionNotFound            404
	InvalidAddress, InvalidName,
	InvalidElectionID                     400
	AlreadyStarted, VotingNotActive,
	VotingAlreadyStarted, AlreadyVoted,
	NoCandidates, ElectionExists          409

The code is returned in the "code" field of the error body.

# Event Stream

	GET /elections/{id}/events/stream?after=N

Upgrades to a websocket, sends every journal event after N, then live
events from the feed hub. Events arrive in seq order without duplicates;
if the hub drops events for a slow client the gap is refilled from the
journal.
*/
package handlers
