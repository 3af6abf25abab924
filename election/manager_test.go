// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Create(t *testing.T) {
	clk := newFakeClock()
	m := NewManager(&memStore{}, Options{Duration: time.Hour, Now: clk.Now})
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		deployer string
		wantErr  error
	}{
		{"valid", "council-2025", deployer, nil},
		{"duplicate", "council-2025", deployer, ErrElectionExists},
		{"bad id", "has spaces", deployer, ErrInvalidElectionID},
		{"bad deployer", "other", "0x12", ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := m.Create(ctx, tt.id, tt.deployer, 0)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, e.ID())
			assert.True(t, e.IsAdmin(tt.deployer))
			assert.Equal(t, int64(3600), e.Status().DurationSeconds)
		})
	}
}

func TestManager_CreateGeneratesID(t *testing.T) {
	m := NewManager(&memStore{}, Options{Duration: time.Minute})

	e, err := m.Create(context.Background(), "", deployer, 30*time.Second)
	require.NoError(t, err)
	assert.Len(t, e.ID(), 36)
	assert.Equal(t, int64(30), e.Status().DurationSeconds)

	got, err := m.Get(e.ID())
	require.NoError(t, err)
	assert.Same(t, e, got)
}

func TestManager_RejectsSubSecondDuration(t *testing.T) {
	m := NewManager(&memStore{}, Options{Duration: time.Millisecond})
	_, err := m.Create(context.Background(), "x", deployer, 0)
	assert.Error(t, err)
}

func TestManager_GetAndList(t *testing.T) {
	m := NewManager(&memStore{}, Options{Duration: time.Minute})
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		_, err := m.Create(ctx, id, deployer, 0)
		require.NoError(t, err)
	}

	_, err := m.Get("missing")
	assert.True(t, errors.Is(err, ErrElectionNotFound))

	ids := []string{}
	for _, e := range m.List() {
		ids = append(ids, e.ID())
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	_, err = m.Events(ctx, "missing", 0, 10)
	assert.True(t, errors.Is(err, ErrElectionNotFound))
}

func TestManager_LoadRestoresState(t *testing.T) {
	clk := newFakeClock()
	now := clk.Now().Unix()
	store := &memStore{snaps: []Snapshot{{
		ID:              "restored",
		Deployer:        deployer,
		DurationSeconds: 600,
		Started:         true,
		StartTime:       now - 60,
		EndTime:         now + 540,
		LastSeq:         7,
		Admins:          []string{deployer, adminA},
		Candidates:      []Candidate{{ID: 1, Name: "A", VoteCount: 1}, {ID: 2, Name: "B"}},
		Votes:           map[string]int{voter1: 1},
	}}}
	m := NewManager(store, Options{Duration: time.Minute, Now: clk.Now})

	n, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, err := m.Get("restored")
	require.NoError(t, err)
	assert.True(t, e.IsAdmin(adminA))
	assert.True(t, e.HasVoted(voter1))
	assert.Equal(t, PhaseActive, e.Phase())
	assert.Equal(t, int64(540), e.GetRemainingTime())

	err = e.Vote(context.Background(), voter1, 2)
	assert.True(t, errors.Is(err, ErrAlreadyVoted))

	require.NoError(t, e.Vote(context.Background(), voter2, 2))
	evs, _ := store.ListEvents(context.Background(), "restored", 0, 0)
	require.Len(t, evs, 1)
	assert.Equal(t, int64(8), evs[0].Seq, "sequence continues from the loaded state")
}

// gatedStore holds CreateElection for the "slow" election until released
type gatedStore struct {
	*memStore
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) CreateElection(ctx context.Context, snap Snapshot, ev Event) error {
	if snap.ID == "slow" {
		close(s.entered)
		<-s.release
	}
	return s.memStore.CreateElection(ctx, snap, ev)
}

func TestManager_CreateDoesNotBlockLookups(t *testing.T) {
	st := &gatedStore{memStore: &memStore{}, entered: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(st, Options{Duration: time.Minute})
	ctx := context.Background()

	_, err := m.Create(ctx, "fast", deployer, 0)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := m.Create(ctx, "slow", deployer, 0)
		done <- err
	}()
	<-st.entered

	// other elections stay readable while the write is in flight
	got, err := m.Get("fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", got.ID())
	assert.Len(t, m.List(), 1)

	// the reserved id is neither visible nor reusable
	_, err = m.Get("slow")
	assert.ErrorIs(t, err, ErrElectionNotFound)
	_, err = m.Create(ctx, "slow", deployer, 0)
	assert.ErrorIs(t, err, ErrElectionExists)

	close(st.release)
	require.NoError(t, <-done)
	_, err = m.Get("slow")
	assert.NoError(t, err)
}

func TestManager_FailedCreateReleasesID(t *testing.T) {
	st := &memStore{}
	m := NewManager(st, Options{Duration: time.Minute})
	ctx := context.Background()

	st.setFail(true)
	_, err := m.Create(ctx, "council", deployer, 0)
	require.ErrorIs(t, err, errStoreDown)
	_, err = m.Get("council")
	assert.ErrorIs(t, err, ErrElectionNotFound)

	st.setFail(false)
	_, err = m.Create(ctx, "council", deployer, 0)
	assert.NoError(t, err)
}
