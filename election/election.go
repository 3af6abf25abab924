// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/chainelect/auth"
)

// Options configure every election a Manager creates or loads
type Options struct {
	// Duration is the default voting window for new elections
	Duration time.Duration
	// ResetClearsCandidates makes ResetVotingState wipe the candidate ledger
	// as well as the clock and vote records
	ResetClearsCandidates bool
	// Now defaults to time.Now
	Now func() time.Time
	// Publisher receives committed events; nil discards them
	Publisher Publisher
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Publisher == nil {
		o.Publisher = nopPublisher{}
	}
	return o
}

// Status is a consistent read of an election at one instant
type Status struct {
	ElectionID      string `json:"election_id"`
	Deployer        string `json:"deployer"`
	Phase           Phase  `json:"phase"`
	VotingStarted   bool   `json:"voting_started"`
	VotingEnded     bool   `json:"voting_ended"`
	VotingEndTime   int64  `json:"voting_end_time"`
	RemainingTime   int64  `json:"remaining_time"`
	DurationSeconds int64  `json:"duration_seconds"`
	CandidatesCount int    `json:"candidates_count"`
	TotalVotes      int    `json:"total_votes"`
	CreatedAt       int64  `json:"created_at"`
}

// Election is the authoritative state machine for one election.
//
// Every mutation runs under the write lock: it validates against current
// state, persists the change and its event through the Store, and only then
// applies it in memory. A failed check or store write leaves state as it was.
// Reads take the read lock and see the latest committed mutation.
type Election struct {
	mu sync.RWMutex

	id        string
	deployer  string
	duration  int64
	createdAt int64

	admins     adminSet
	candidates candidateLedger
	clock      clock
	votes      voteLedger
	seq        int64

	store Store
	opts  Options
}

func newElection(snap Snapshot, store Store, opts Options) *Election {
	e := &Election{
		id:         snap.ID,
		deployer:   snap.Deployer,
		duration:   snap.DurationSeconds,
		createdAt:  snap.CreatedAt,
		admins:     newAdminSet(snap.Admins...),
		candidates: append(candidateLedger(nil), snap.Candidates...),
		clock: clock{
			started:   snap.Started,
			ended:     snap.Ended,
			startTime: snap.StartTime,
			endTime:   snap.EndTime,
		},
		votes: make(voteLedger, len(snap.Votes)),
		seq:   snap.LastSeq,
		store: store,
		opts:  opts,
	}
	for voter, cid := range snap.Votes {
		e.votes[voter] = cid
	}
	return e
}

// ID returns the election identifier
func (e *Election) ID() string {
	return e.id
}

func (e *Election) now() int64 {
	return e.opts.Now().Unix()
}

// event builds the next event; seq is only advanced by commit.
func (e *Election) event(kind, actor string, at int64) Event {
	return Event{
		ID:         uuid.NewString(),
		ElectionID: e.id,
		Seq:        e.seq + 1,
		Kind:       kind,
		Actor:      actor,
		At:         at,
	}
}

func (e *Election) commit(ev Event) {
	e.seq = ev.Seq
	e.opts.Publisher.Publish(ev)
}

func normalizeCaller(caller string) (string, error) {
	addr, err := auth.NormalizeAddress(caller)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, caller)
	}
	return addr, nil
}

// requireAdmin must be called with the lock held
func (e *Election) requireAdmin(caller string) (string, error) {
	addr, err := normalizeCaller(caller)
	if err != nil {
		return "", err
	}
	if !e.admins.has(addr) {
		return "", fmt.Errorf("%w: %s is not an admin", ErrUnauthorized, addr)
	}
	return addr, nil
}

// AddAdmin grants admin rights to address. Re-adding an admin is a no-op.
func (e *Election) AddAdmin(ctx context.Context, caller, address string) error {
	addr, err := normalizeCaller(address)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	actor, err := e.requireAdmin(caller)
	if err != nil {
		return err
	}
	if e.admins.has(addr) {
		return nil
	}

	ev := e.event(KindAdminAdded, actor, e.now())
	ev.Subject = addr
	if err := e.store.AddAdmin(ctx, e.id, addr, ev); err != nil {
		return fmt.Errorf("failed to persist admin: %w", err)
	}

	e.admins.add(addr)
	e.commit(ev)
	return nil
}

// IsAdmin never fails; malformed addresses are not admins
func (e *Election) IsAdmin(address string) bool {
	addr, err := auth.NormalizeAddress(address)
	if err != nil {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.admins.has(addr)
}

// Admins lists admin addresses in sorted order
func (e *Election) Admins() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.admins.list()
}

// AddCandidate appends a candidate with the next sequential id.
// Candidates are frozen once voting has started.
func (e *Election) AddCandidate(ctx context.Context, caller, name string) (Candidate, error) {
	name = strings.TrimSpace(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	actor, err := e.requireAdmin(caller)
	if err != nil {
		return Candidate{}, err
	}
	if e.clock.started {
		return Candidate{}, ErrVotingAlreadyStarted
	}
	if name == "" {
		return Candidate{}, fmt.Errorf("%w: candidate name is empty", ErrInvalidName)
	}

	c := Candidate{ID: e.candidates.nextID(), Name: name}
	ev := e.event(KindCandidateAdded, actor, e.now())
	ev.Subject = name
	ev.CandidateID = c.ID
	if err := e.store.AddCandidate(ctx, e.id, c, ev); err != nil {
		return Candidate{}, fmt.Errorf("failed to persist candidate: %w", err)
	}

	e.candidates.add(name)
	e.commit(ev)
	return c, nil
}

// GetCandidate returns the candidate with the given 1-based id
func (e *Election) GetCandidate(id int) (Candidate, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, ok := e.candidates.get(id)
	if !ok {
		return Candidate{}, fmt.Errorf("%w: candidate %d", ErrNotFound, id)
	}
	return c, nil
}

func (e *Election) GetCandidatesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.candidates.count()
}

// Candidates returns a copy of the ledger in id order
func (e *Election) Candidates() []Candidate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.candidates.clone()
}

// StartVoting opens the election for endTime = now + duration
func (e *Election) StartVoting(ctx context.Context, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	actor, err := e.requireAdmin(caller)
	if err != nil {
		return err
	}
	if e.clock.started {
		return ErrAlreadyStarted
	}
	if e.candidates.count() == 0 {
		return ErrNoCandidates
	}

	now := e.now()
	endTime := now + e.duration
	ev := e.event(KindVotingStarted, actor, now)
	ev.EndTime = endTime
	if err := e.store.StartVoting(ctx, e.id, now, endTime, ev); err != nil {
		return fmt.Errorf("failed to persist voting start: %w", err)
	}

	e.clock = clock{started: true, startTime: now, endTime: endTime}
	e.commit(ev)
	return nil
}

func (e *Election) VotingStarted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.started
}

func (e *Election) VotingEnded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return isEnded(e.clock, e.now())
}

// VotingEndTime is 0 until voting has started
func (e *Election) VotingEndTime() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.endTime
}

// GetRemainingTime returns whole seconds until endTime, 0 when not active
func (e *Election) GetRemainingTime() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return remaining(e.clock, e.now())
}

func (e *Election) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return phaseOf(e.clock, e.now())
}

// ResetVotingState starts a new cycle: the clock is cleared, every voter
// becomes eligible again and vote counts return to zero. Candidates are
// kept unless the election was configured with ResetClearsCandidates.
func (e *Election) ResetVotingState(ctx context.Context, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	actor, err := e.requireAdmin(caller)
	if err != nil {
		return err
	}

	clearCandidates := e.opts.ResetClearsCandidates
	ev := e.event(KindVotingReset, actor, e.now())
	if err := e.store.ResetVotingState(ctx, e.id, clearCandidates, ev); err != nil {
		return fmt.Errorf("failed to persist reset: %w", err)
	}

	e.clock = clock{}
	e.votes = make(voteLedger)
	if clearCandidates {
		e.candidates = nil
	} else {
		e.candidates.zeroCounts()
	}
	e.commit(ev)
	return nil
}

// Vote records caller's single vote for this cycle
func (e *Election) Vote(ctx context.Context, caller string, candidateID int) error {
	voter, err := normalizeCaller(caller)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !isActive(e.clock, now) {
		return ErrVotingNotActive
	}
	if e.votes.hasVoted(voter) {
		return fmt.Errorf("%w: %s", ErrAlreadyVoted, voter)
	}
	if !e.candidates.has(candidateID) {
		return fmt.Errorf("%w: candidate %d", ErrNotFound, candidateID)
	}

	ev := e.event(KindVoteCast, voter, now)
	ev.CandidateID = candidateID
	if err := e.store.RecordVote(ctx, e.id, voter, candidateID, ev); err != nil {
		return fmt.Errorf("failed to persist vote: %w", err)
	}

	e.votes[voter] = candidateID
	e.candidates.increment(candidateID)
	e.commit(ev)
	return nil
}

// HasVoted reports whether address voted in the current cycle
func (e *Election) HasVoted(address string) bool {
	addr, err := auth.NormalizeAddress(address)
	if err != nil {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.votes.hasVoted(addr)
}

func (e *Election) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.now()
	return Status{
		ElectionID:      e.id,
		Deployer:        e.deployer,
		Phase:           phaseOf(e.clock, now),
		VotingStarted:   e.clock.started,
		VotingEnded:     isEnded(e.clock, now),
		VotingEndTime:   e.clock.endTime,
		RemainingTime:   remaining(e.clock, now),
		DurationSeconds: e.duration,
		CandidatesCount: e.candidates.count(),
		TotalVotes:      e.candidates.totalVotes(),
		CreatedAt:       e.createdAt,
	}
}

// Snapshot copies the full state, as a Store would persist it
func (e *Election) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Snapshot{
		ID:              e.id,
		Deployer:        e.deployer,
		DurationSeconds: e.duration,
		CreatedAt:       e.createdAt,
		Started:         e.clock.started,
		Ended:           e.clock.ended,
		StartTime:       e.clock.startTime,
		EndTime:         e.clock.endTime,
		LastSeq:         e.seq,
		Admins:          e.admins.list(),
		Candidates:      e.candidates.clone(),
		Votes:           e.votes.clone(),
	}
}
