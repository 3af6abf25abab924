// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/models"
)

// Key layout. Election ids never contain '/'.
//
//	e/<election>                 election record (JSON)
//	a/<election>/<address>       admin marker
//	c/<election>/<%08d id>       candidate (JSON)
//	v/<election>/<address>       candidate id voted for
//	ev/<election>/<%016d seq>    event (JSON)
//	voter/<voter id>             registered voter (JSON)
//	voteraddr/<address>          voter id owning the address
func electionKey(id string) []byte { return []byte("e/" + id) }

func adminKey(id, addr string) []byte { return []byte("a/" + id + "/" + addr) }

func candidateKey(id string, cid int) []byte { return []byte(fmt.Sprintf("c/%s/%08d", id, cid)) }

func voteKey(id, voter string) []byte { return []byte("v/" + id + "/" + voter) }

func eventKey(id string, seq int64) []byte { return []byte(fmt.Sprintf("ev/%s/%016d", id, seq)) }

func voterKey(voterID string) []byte { return []byte("voter/" + voterID) }

func voterAddrKey(addr string) []byte { return []byte("voteraddr/" + addr) }

type levelElection struct {
	ID              string `json:"id"`
	Deployer        string `json:"deployer"`
	DurationSeconds int64  `json:"duration_seconds"`
	CreatedAt       int64  `json:"created_at"`
	Started         bool   `json:"started"`
	Ended           bool   `json:"ended"`
	StartTime       int64  `json:"start_time"`
	EndTime         int64  `json:"end_time"`
	LastSeq         int64  `json:"last_seq"`
}

type levelVoter struct {
	VoterID      string `json:"voter_id"`
	Address      string `json:"address"`
	PasswordHash string `json:"password_hash"`
	KeySecret    string `json:"key_secret"`
	CreatedAt    int64  `json:"created_at"`
}

// LevelStore keeps elections in a LevelDB key space. Every mutation and its
// event are written in one synced batch.
type LevelStore struct {
	mu sync.Mutex
	db *leveldb.DB
}

// OpenLevel opens (or creates) a LevelDB database directory
func OpenLevel(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return NewLevelStore(db), nil
}

func NewLevelStore(db *leveldb.DB) *LevelStore {
	return &LevelStore{db: db}
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}

var syncWrite = &opt.WriteOptions{Sync: true}

func (s *LevelStore) getJSON(key []byte, v interface{}) error {
	data, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func putJSON(b *leveldb.Batch, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Put(key, data)
	return nil
}

// update loads the election record, lets fn stage writes, then commits the
// record, the event and the staged writes in one batch.
func (s *LevelStore) update(electionID string, ev election.Event, fn func(rec *levelElection, b *leveldb.Batch) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec levelElection
	if err := s.getJSON(electionKey(electionID), &rec); err != nil {
		return fmt.Errorf("election %s: %w", electionID, err)
	}

	b := new(leveldb.Batch)
	if err := fn(&rec, b); err != nil {
		return err
	}

	rec.LastSeq = ev.Seq
	if err := putJSON(b, electionKey(electionID), rec); err != nil {
		return err
	}
	if err := putJSON(b, eventKey(electionID, ev.Seq), ev); err != nil {
		return err
	}

	if err := s.db.Write(b, syncWrite); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

func (s *LevelStore) CreateElection(ctx context.Context, snap election.Snapshot, ev election.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok, err := s.db.Has(electionKey(snap.ID), nil); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("election %s: %w", snap.ID, ErrDuplicate)
	}

	b := new(leveldb.Batch)
	rec := levelElection{
		ID:              snap.ID,
		Deployer:        snap.Deployer,
		DurationSeconds: snap.DurationSeconds,
		CreatedAt:       snap.CreatedAt,
		Started:         snap.Started,
		Ended:           snap.Ended,
		StartTime:       snap.StartTime,
		EndTime:         snap.EndTime,
		LastSeq:         ev.Seq,
	}
	if err := putJSON(b, electionKey(snap.ID), rec); err != nil {
		return err
	}
	for _, addr := range snap.Admins {
		b.Put(adminKey(snap.ID, addr), nil)
	}
	if err := putJSON(b, eventKey(snap.ID, ev.Seq), ev); err != nil {
		return err
	}

	if err := s.db.Write(b, syncWrite); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

func (s *LevelStore) AddAdmin(ctx context.Context, electionID, address string, ev election.Event) error {
	return s.update(electionID, ev, func(_ *levelElection, b *leveldb.Batch) error {
		b.Put(adminKey(electionID, address), nil)
		return nil
	})
}

func (s *LevelStore) AddCandidate(ctx context.Context, electionID string, c election.Candidate, ev election.Event) error {
	return s.update(electionID, ev, func(_ *levelElection, b *leveldb.Batch) error {
		c.VoteCount = 0
		return putJSON(b, candidateKey(electionID, c.ID), c)
	})
}

func (s *LevelStore) StartVoting(ctx context.Context, electionID string, startTime, endTime int64, ev election.Event) error {
	return s.update(electionID, ev, func(rec *levelElection, _ *leveldb.Batch) error {
		rec.Started = true
		rec.Ended = false
		rec.StartTime = startTime
		rec.EndTime = endTime
		return nil
	})
}

func (s *LevelStore) RecordVote(ctx context.Context, electionID, voter string, candidateID int, ev election.Event) error {
	return s.update(electionID, ev, func(_ *levelElection, b *leveldb.Batch) error {
		var c election.Candidate
		if err := s.getJSON(candidateKey(electionID, candidateID), &c); err != nil {
			return fmt.Errorf("candidate %d: %w", candidateID, err)
		}
		c.VoteCount++
		if err := putJSON(b, candidateKey(electionID, candidateID), c); err != nil {
			return err
		}
		b.Put(voteKey(electionID, voter), []byte(strconv.Itoa(candidateID)))
		return nil
	})
}

func (s *LevelStore) ResetVotingState(ctx context.Context, electionID string, clearCandidates bool, ev election.Event) error {
	return s.update(electionID, ev, func(rec *levelElection, b *leveldb.Batch) error {
		rec.Started = false
		rec.Ended = false
		rec.StartTime = 0
		rec.EndTime = 0

		iter := s.db.NewIterator(util.BytesPrefix([]byte("v/"+electionID+"/")), nil)
		for iter.Next() {
			b.Delete(append([]byte(nil), iter.Key()...))
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return err
		}

		iter = s.db.NewIterator(util.BytesPrefix([]byte("c/"+electionID+"/")), nil)
		defer iter.Release()
		for iter.Next() {
			key := append([]byte(nil), iter.Key()...)
			if clearCandidates {
				b.Delete(key)
				continue
			}
			var c election.Candidate
			if err := json.Unmarshal(iter.Value(), &c); err != nil {
				return err
			}
			c.VoteCount = 0
			if err := putJSON(b, key, c); err != nil {
				return err
			}
		}
		return iter.Error()
	})
}

func (s *LevelStore) LoadElections(ctx context.Context) ([]election.Snapshot, error) {
	var snaps []election.Snapshot

	iter := s.db.NewIterator(util.BytesPrefix([]byte("e/")), nil)
	defer iter.Release()
	for iter.Next() {
		var rec levelElection
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode election %s: %w", iter.Key(), err)
		}
		snap := election.Snapshot{
			ID:              rec.ID,
			Deployer:        rec.Deployer,
			DurationSeconds: rec.DurationSeconds,
			CreatedAt:       rec.CreatedAt,
			Started:         rec.Started,
			Ended:           rec.Ended,
			StartTime:       rec.StartTime,
			EndTime:         rec.EndTime,
			LastSeq:         rec.LastSeq,
			Votes:           make(map[string]int),
		}
		if err := s.loadChildren(&snap); err != nil {
			return nil, fmt.Errorf("failed to load election %s: %w", rec.ID, err)
		}
		snaps = append(snaps, snap)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *LevelStore) loadChildren(snap *election.Snapshot) error {
	prefix := "a/" + snap.ID + "/"
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	for iter.Next() {
		snap.Admins = append(snap.Admins, strings.TrimPrefix(string(iter.Key()), prefix))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	iter = s.db.NewIterator(util.BytesPrefix([]byte("c/"+snap.ID+"/")), nil)
	for iter.Next() {
		var c election.Candidate
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			iter.Release()
			return err
		}
		snap.Candidates = append(snap.Candidates, c)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	prefix = "v/" + snap.ID + "/"
	iter = s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()
	for iter.Next() {
		cid, err := strconv.Atoi(string(iter.Value()))
		if err != nil {
			return err
		}
		snap.Votes[strings.TrimPrefix(string(iter.Key()), prefix)] = cid
	}
	return iter.Error()
}

func (s *LevelStore) ListEvents(ctx context.Context, electionID string, afterSeq int64, limit int) ([]election.Event, error) {
	r := util.BytesPrefix([]byte("ev/" + electionID + "/"))
	r.Start = eventKey(electionID, afterSeq+1)
	limit = eventLimit(limit)

	iter := s.db.NewIterator(r, nil)
	defer iter.Release()

	events := []election.Event{}
	for len(events) < limit && iter.Next() {
		var ev election.Event
		if err := json.Unmarshal(iter.Value(), &ev); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		events = append(events, ev)
	}
	return events, iter.Error()
}

func (s *LevelStore) CreateVoter(ctx context.Context, v models.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range [][]byte{voterKey(v.VoterID), voterAddrKey(v.Address)} {
		ok, err := s.db.Has(key, nil)
		if err != nil {
			return err
		}
		if ok {
			return ErrDuplicate
		}
	}

	b := new(leveldb.Batch)
	err := putJSON(b, voterKey(v.VoterID), levelVoter{
		VoterID:      v.VoterID,
		Address:      v.Address,
		PasswordHash: v.PasswordHash,
		KeySecret:    v.KeySecret,
		CreatedAt:    v.CreatedAt.Unix(),
	})
	if err != nil {
		return err
	}
	b.Put(voterAddrKey(v.Address), []byte(v.VoterID))

	if err := s.db.Write(b, syncWrite); err != nil {
		return fmt.Errorf("failed to write voter: %w", err)
	}
	return nil
}

func (s *LevelStore) GetVoter(ctx context.Context, voterID string) (models.Voter, error) {
	var rec levelVoter
	if err := s.getJSON(voterKey(voterID), &rec); err != nil {
		return models.Voter{}, err
	}
	return models.Voter{
		VoterID:      rec.VoterID,
		Address:      rec.Address,
		PasswordHash: rec.PasswordHash,
		KeySecret:    rec.KeySecret,
		CreatedAt:    time.Unix(rec.CreatedAt, 0),
	}, nil
}

func (s *LevelStore) GetVoterByAddress(ctx context.Context, address string) (models.Voter, error) {
	voterID, err := s.db.Get(voterAddrKey(address), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return models.Voter{}, ErrNotFound
	}
	if err != nil {
		return models.Voter{}, err
	}
	return s.GetVoter(ctx, string(voterID))
}
