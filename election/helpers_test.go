// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	deployer = "0x00000000000000000000000000000000000000d1"
	adminA   = "0x00000000000000000000000000000000000000a1"
	voter1   = "0x0000000000000000000000000000000000000b01"
	voter2   = "0x0000000000000000000000000000000000000b02"
	stranger = "0x0000000000000000000000000000000000000c01"
)

var errStoreDown = errors.New("store down")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memStore records writes and can be told to fail the next one
type memStore struct {
	mu     sync.Mutex
	events []Event
	snaps  []Snapshot
	fail   bool
}

func (s *memStore) write(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *memStore) setFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

func (s *memStore) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind
	}
	return out
}

func (s *memStore) CreateElection(_ context.Context, _ Snapshot, ev Event) error {
	return s.write(ev)
}

func (s *memStore) AddAdmin(_ context.Context, _, _ string, ev Event) error {
	return s.write(ev)
}

func (s *memStore) AddCandidate(_ context.Context, _ string, _ Candidate, ev Event) error {
	return s.write(ev)
}

func (s *memStore) StartVoting(_ context.Context, _ string, _, _ int64, ev Event) error {
	return s.write(ev)
}

func (s *memStore) RecordVote(_ context.Context, _, _ string, _ int, ev Event) error {
	return s.write(ev)
}

func (s *memStore) ResetVotingState(_ context.Context, _ string, _ bool, ev Event) error {
	return s.write(ev)
}

func (s *memStore) LoadElections(context.Context) ([]Snapshot, error) {
	return s.snaps, nil
}

func (s *memStore) ListEvents(_ context.Context, electionID string, afterSeq int64, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.ElectionID == electionID && ev.Seq > afterSeq {
			out = append(out, ev)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ev Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

type fixture struct {
	clock *fakeClock
	store *memStore
	pub   *recordingPublisher
	mgr   *Manager
	e     *Election
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	f := &fixture{clock: newFakeClock(), store: &memStore{}, pub: &recordingPublisher{}}
	if opts.Duration == 0 {
		opts.Duration = 10 * time.Minute
	}
	opts.Now = f.clock.Now
	opts.Publisher = f.pub
	f.mgr = NewManager(f.store, opts)

	e, err := f.mgr.Create(context.Background(), "test-election", deployer, 0)
	require.NoError(t, err)
	f.e = e
	return f
}

// started adds the named candidates and opens voting
func (f *fixture) started(t *testing.T, names ...string) {
	t.Helper()
	ctx := context.Background()
	for _, n := range names {
		_, err := f.e.AddCandidate(ctx, deployer, n)
		require.NoError(t, err)
	}
	require.NoError(t, f.e.StartVoting(ctx, deployer))
}
