// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var electionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Manager owns every election held by this process, keyed by election id
type Manager struct {
	mu        sync.RWMutex
	elections map[string]*Election
	creating  map[string]struct{} // ids reserved by an in-flight Create
	store     Store
	opts      Options
}

func NewManager(store Store, opts Options) *Manager {
	return &Manager{
		elections: make(map[string]*Election),
		creating:  make(map[string]struct{}),
		store:     store,
		opts:      opts.withDefaults(),
	}
}

// Load restores all persisted elections. Call once before serving.
func (m *Manager) Load(ctx context.Context) (int, error) {
	snaps, err := m.store.LoadElections(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load elections: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, snap := range snaps {
		m.elections[snap.ID] = newElection(snap, m.store, m.opts)
	}
	return len(snaps), nil
}

// Create deploys a fresh election with deployer as its initial admin.
// An empty id is replaced by a random UUID; a non-positive duration falls
// back to the configured default.
func (m *Manager) Create(ctx context.Context, id, deployer string, duration time.Duration) (*Election, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if !electionIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidElectionID, id)
	}
	addr, err := normalizeCaller(deployer)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		duration = m.opts.Duration
	}
	seconds := int64(duration / time.Second)
	if seconds <= 0 {
		return nil, fmt.Errorf("voting duration must be at least one second, got %s", duration)
	}

	// Reserve the id, then write to the store without holding the lock so
	// lookups of other elections are not blocked behind it
	m.mu.Lock()
	_, exists := m.elections[id]
	_, pending := m.creating[id]
	if exists || pending {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrElectionExists, id)
	}
	m.creating[id] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.creating, id)
		m.mu.Unlock()
	}()

	now := m.opts.Now().Unix()
	snap := Snapshot{
		ID:              id,
		Deployer:        addr,
		DurationSeconds: seconds,
		CreatedAt:       now,
		Admins:          []string{addr},
		Votes:           map[string]int{},
	}
	ev := Event{
		ID:         uuid.NewString(),
		ElectionID: id,
		Seq:        1,
		Kind:       KindElectionCreated,
		Actor:      addr,
		Subject:    addr,
		At:         now,
	}
	if err := m.store.CreateElection(ctx, snap, ev); err != nil {
		return nil, fmt.Errorf("failed to persist election: %w", err)
	}
	snap.LastSeq = ev.Seq

	e := newElection(snap, m.store, m.opts)
	m.mu.Lock()
	m.elections[id] = e
	m.mu.Unlock()
	m.opts.Publisher.Publish(ev)
	return e, nil
}

// Get returns the election with the given id
func (m *Manager) Get(id string) (*Election, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.elections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrElectionNotFound, id)
	}
	return e, nil
}

// List returns all elections ordered by id
func (m *Manager) List() []*Election {
	m.mu.RLock()
	out := make([]*Election, 0, len(m.elections))
	for _, e := range m.elections {
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Events reads the durable journal of an election after afterSeq
func (m *Manager) Events(ctx context.Context, id string, afterSeq int64, limit int) ([]Event, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}
	return m.store.ListEvents(ctx, id, afterSeq, limit)
}
