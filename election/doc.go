// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election implements the authoritative election state machine.

# Lifecycle

Each election cycle moves through three phases:

	not_started → active → ended → (reset) → not_started

StartVoting opens the window for a fixed duration. The election ends by
reaching its end time; VotingEnded and GetRemainingTime derive this from the
clock at read time. ResetVotingState begins a new cycle.

# Components

  - Admin registry: deployer plus admins added by admins, never removed
  - Candidate ledger: 1-based sequential ids, frozen once voting starts
  - Clock: started flag, start and end time in Unix seconds
  - Vote ledger: one vote per address per cycle

# Concurrency

An Election serialises its mutations under one lock. Each mutation is first
written to the Store together with its Event and only then applied in
memory, so a failing write never leaves partial state behind:

	mgr := election.NewManager(store, election.Options{Duration: time.Hour})
	e, err := mgr.Create(ctx, "student-council", deployer, 0)
	_, err = e.AddCandidate(ctx, deployer, "Alice")
	err = e.StartVoting(ctx, deployer)
	err = e.Vote(ctx, voter, 1)

# Errors

Failures are sentinel errors whose text is the stable wire code:

	errors.Is(err, election.ErrAlreadyVoted)
	election.Code(err) // "AlreadyVoted"
*/
package election
