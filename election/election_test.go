// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElection_DeployVoteScenario(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	require.NoError(t, f.e.AddAdmin(ctx, deployer, adminA))
	assert.True(t, f.e.IsAdmin(adminA))

	c, err := f.e.AddCandidate(ctx, adminA, "X")
	require.NoError(t, err)
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, 1, f.e.GetCandidatesCount())

	require.NoError(t, f.e.StartVoting(ctx, adminA))
	require.NoError(t, f.e.Vote(ctx, voter1, 1))

	got, err := f.e.GetCandidate(1)
	require.NoError(t, err)
	assert.Equal(t, "X", got.Name)
	assert.Equal(t, 1, got.VoteCount)

	err = f.e.Vote(ctx, voter1, 1)
	assert.True(t, errors.Is(err, ErrAlreadyVoted))

	got, _ = f.e.GetCandidate(1)
	assert.Equal(t, 1, got.VoteCount, "second vote must not be counted")
}

func TestElection_AdminRegistry(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	assert.True(t, f.e.IsAdmin(deployer))
	assert.False(t, f.e.IsAdmin(stranger))
	assert.False(t, f.e.IsAdmin("not-an-address"))

	err := f.e.AddAdmin(ctx, stranger, adminA)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, f.e.IsAdmin(adminA))

	require.NoError(t, f.e.AddAdmin(ctx, deployer, adminA))
	// re-add is a no-op without an event
	require.NoError(t, f.e.AddAdmin(ctx, adminA, adminA))
	assert.Equal(t, []string{adminA, deployer}, f.e.Admins())
	assert.Equal(t, []string{KindElectionCreated, KindAdminAdded}, f.store.kinds())

	// addresses compare case-insensitively
	upper := "0x00000000000000000000000000000000000000A1"
	assert.True(t, f.e.IsAdmin(upper))

	err = f.e.AddAdmin(ctx, deployer, "0x123")
	assert.True(t, errors.Is(err, ErrInvalidAddress))
}

func TestElection_AddCandidate(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		cname   string
		wantErr error
	}{
		{"admin adds candidate", deployer, "Alice", nil},
		{"name is trimmed", deployer, "  Bob  ", nil},
		{"non admin", stranger, "Mallory", ErrUnauthorized},
		{"empty name", deployer, "   ", ErrInvalidName},
		{"invalid caller", "0xnope", "Eve", ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			c, err := f.e.AddCandidate(context.Background(), tt.caller, tt.cname)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Equal(t, 0, f.e.GetCandidatesCount())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, c.ID)
			assert.Equal(t, 0, c.VoteCount)
			assert.NotContains(t, c.Name, " ")
		})
	}
}

func TestElection_SequentialCandidateIDs(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	for i, n := range []string{"A", "B", "C"} {
		c, err := f.e.AddCandidate(ctx, deployer, n)
		require.NoError(t, err)
		assert.Equal(t, i+1, c.ID)
	}

	_, err := f.e.GetCandidate(0)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = f.e.GetCandidate(4)
	assert.True(t, errors.Is(err, ErrNotFound))

	names := []string{}
	for _, c := range f.e.Candidates() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestElection_CandidatesFrozenOnceStarted(t *testing.T) {
	f := newFixture(t, Options{})
	f.started(t, "A")

	_, err := f.e.AddCandidate(context.Background(), deployer, "Late")
	assert.True(t, errors.Is(err, ErrVotingAlreadyStarted))
	assert.Equal(t, 1, f.e.GetCandidatesCount())

	// still frozen after the window closes, until reset
	f.clock.Advance(time.Hour)
	_, err = f.e.AddCandidate(context.Background(), deployer, "Later")
	assert.True(t, errors.Is(err, ErrVotingAlreadyStarted))
}

func TestElection_StartVoting(t *testing.T) {
	f := newFixture(t, Options{Duration: 5 * time.Minute})
	ctx := context.Background()

	assert.True(t, errors.Is(f.e.StartVoting(ctx, deployer), ErrNoCandidates))
	assert.False(t, f.e.VotingStarted())

	_, err := f.e.AddCandidate(ctx, deployer, "A")
	require.NoError(t, err)

	assert.True(t, errors.Is(f.e.StartVoting(ctx, stranger), ErrUnauthorized))
	assert.False(t, f.e.VotingStarted())

	start := f.clock.Now().Unix()
	require.NoError(t, f.e.StartVoting(ctx, deployer))
	assert.True(t, f.e.VotingStarted())
	assert.Equal(t, start+300, f.e.VotingEndTime())

	f.clock.Advance(time.Minute)
	assert.True(t, errors.Is(f.e.StartVoting(ctx, deployer), ErrAlreadyStarted))
	assert.Equal(t, start+300, f.e.VotingEndTime(), "end time must not move")
}

func TestElection_RemainingTimeReachesZeroWhenEnded(t *testing.T) {
	f := newFixture(t, Options{Duration: 10 * time.Second})

	assert.Equal(t, int64(0), f.e.GetRemainingTime())
	assert.False(t, f.e.VotingEnded(), "an unstarted election has not ended")
	assert.Equal(t, PhaseNotStarted, f.e.Phase())

	f.started(t, "A")

	prev := f.e.GetRemainingTime()
	assert.Equal(t, int64(10), prev)
	for i := 0; i < 12; i++ {
		f.clock.Advance(time.Second)
		rem := f.e.GetRemainingTime()
		assert.LessOrEqual(t, rem, prev)
		assert.Equal(t, rem == 0, f.e.VotingEnded(), "remaining=%d", rem)
		prev = rem
	}
	assert.Equal(t, PhaseEnded, f.e.Phase())
}

func TestElection_VoteRequiresActiveWindow(t *testing.T) {
	f := newFixture(t, Options{Duration: time.Minute})
	ctx := context.Background()

	_, err := f.e.AddCandidate(ctx, deployer, "A")
	require.NoError(t, err)
	assert.True(t, errors.Is(f.e.Vote(ctx, voter1, 1), ErrVotingNotActive))

	require.NoError(t, f.e.StartVoting(ctx, deployer))
	assert.True(t, errors.Is(f.e.Vote(ctx, voter1, 2), ErrNotFound))
	assert.False(t, f.e.HasVoted(voter1), "failed vote must not mark voter")

	f.clock.Advance(time.Minute)
	assert.True(t, errors.Is(f.e.Vote(ctx, voter1, 1), ErrVotingNotActive))

	c, _ := f.e.GetCandidate(1)
	assert.Equal(t, 0, c.VoteCount)
}

func TestElection_ResetAfterEndedCycle(t *testing.T) {
	f := newFixture(t, Options{Duration: time.Minute})
	ctx := context.Background()
	f.started(t, "A", "B")

	require.NoError(t, f.e.Vote(ctx, voter1, 2))
	f.clock.Advance(2 * time.Minute)
	assert.Equal(t, PhaseEnded, f.e.Phase())

	assert.True(t, errors.Is(f.e.ResetVotingState(ctx, stranger), ErrUnauthorized))
	require.NoError(t, f.e.ResetVotingState(ctx, deployer))

	assert.False(t, f.e.VotingStarted())
	assert.False(t, f.e.VotingEnded())
	assert.Equal(t, int64(0), f.e.VotingEndTime())
	assert.False(t, f.e.HasVoted(voter1))
	assert.Equal(t, 2, f.e.GetCandidatesCount(), "candidates survive reset by default")

	c, _ := f.e.GetCandidate(2)
	assert.Equal(t, 0, c.VoteCount)

	require.NoError(t, f.e.StartVoting(ctx, deployer))
	require.NoError(t, f.e.Vote(ctx, voter1, 2))
	c, _ = f.e.GetCandidate(2)
	assert.Equal(t, 1, c.VoteCount)
}

func TestElection_ResetClearsCandidatesWhenConfigured(t *testing.T) {
	f := newFixture(t, Options{ResetClearsCandidates: true})
	ctx := context.Background()
	f.started(t, "A", "B")

	require.NoError(t, f.e.ResetVotingState(ctx, deployer))
	assert.Equal(t, 0, f.e.GetCandidatesCount())

	c, err := f.e.AddCandidate(ctx, deployer, "Fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, c.ID, "ids restart after a clearing reset")
}

func TestElection_StoreFailureRollsBack(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.started(t, "A")

	f.store.setFail(true)
	err := f.e.Vote(ctx, voter1, 1)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.False(t, f.e.HasVoted(voter1))
	c, _ := f.e.GetCandidate(1)
	assert.Equal(t, 0, c.VoteCount)

	err = f.e.ResetVotingState(ctx, deployer)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.True(t, f.e.VotingStarted())

	f.store.setFail(false)
	require.NoError(t, f.e.Vote(ctx, voter1, 1))

	// sequence numbers have no gaps despite the failed writes
	evs, err := f.mgr.Events(ctx, f.e.ID(), 0, 0)
	require.NoError(t, err)
	for i, ev := range evs {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
}

func TestElection_EventsPublishedAfterCommit(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.started(t, "A")
	require.NoError(t, f.e.Vote(ctx, voter1, 1))

	kinds := []string{}
	for _, ev := range f.pub.events {
		kinds = append(kinds, ev.Kind)
		assert.Equal(t, f.e.ID(), ev.ElectionID)
		assert.NotEmpty(t, ev.ID)
	}
	assert.Equal(t, []string{KindElectionCreated, KindCandidateAdded, KindVotingStarted, KindVoteCast}, kinds)

	last := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, voter1, last.Actor)
	assert.Equal(t, 1, last.CandidateID)
	assert.Equal(t, int64(4), f.e.Snapshot().LastSeq)
}

func TestElection_ConcurrentVotesCountOnce(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.started(t, "A", "B")

	var ok atomic.Int32
	var wg sync.WaitGroup
	// every goroutine votes as the same address
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := f.e.Vote(ctx, voter2, 1+i%2); err == nil {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, 1, f.e.Status().TotalVotes)
}

func TestElection_ConcurrentResetAndVote(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.started(t, "A")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = f.e.Vote(ctx, voter1, 1)
	}()
	go func() {
		defer wg.Done()
		_ = f.e.ResetVotingState(ctx, deployer)
	}()
	wg.Wait()

	// whichever order won, the tally matches the vote ledger
	snap := f.e.Snapshot()
	total := 0
	for _, c := range snap.Candidates {
		total += c.VoteCount
	}
	assert.Equal(t, len(snap.Votes), total)
}

func TestElection_Status(t *testing.T) {
	f := newFixture(t, Options{Duration: time.Minute})
	f.started(t, "A", "B")
	require.NoError(t, f.e.Vote(context.Background(), voter1, 1))
	f.clock.Advance(15 * time.Second)

	s := f.e.Status()
	assert.Equal(t, "test-election", s.ElectionID)
	assert.Equal(t, deployer, s.Deployer)
	assert.Equal(t, PhaseActive, s.Phase)
	assert.True(t, s.VotingStarted)
	assert.False(t, s.VotingEnded)
	assert.Equal(t, int64(45), s.RemainingTime)
	assert.Equal(t, int64(60), s.DurationSeconds)
	assert.Equal(t, 2, s.CandidatesCount)
	assert.Equal(t, 1, s.TotalVotes)
}

func TestCode(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrAlreadyVoted)
	assert.Equal(t, "AlreadyVoted", Code(wrapped))
	assert.Equal(t, "", Code(errors.New("other")))
	assert.Equal(t, ErrNoCandidates, ErrorForCode("NoCandidates"))
	assert.Nil(t, ErrorForCode("Bogus"))
}
