// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/models"
)

// SQLStore keeps elections in postgres or sqlite. Every mutation and its
// event commit in one transaction.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func appendEvent(ctx context.Context, tx *sql.Tx, ev election.Event) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO election_event (id, election_id, seq, kind, actor, subject, candidate_id, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ev.ID, ev.ElectionID, ev.Seq, ev.Kind, ev.Actor, ev.Subject, ev.CandidateID, ev.EndTime, ev.At)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE election SET last_seq = $1 WHERE id = $2
	`, ev.Seq, ev.ElectionID)
	if err != nil {
		return fmt.Errorf("failed to update event sequence: %w", err)
	}
	return requireRow(res, "election "+ev.ElectionID)
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLStore) CreateElection(ctx context.Context, snap election.Snapshot, ev election.Event) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO election (id, deployer, duration_seconds, started, ended, start_time, end_time, last_seq, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
		`, snap.ID, snap.Deployer, snap.DurationSeconds, boolInt(snap.Started), boolInt(snap.Ended),
			snap.StartTime, snap.EndTime, snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert election: %w", err)
		}

		for _, addr := range snap.Admins {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO election_admin (election_id, address, added_at)
				VALUES ($1, $2, $3)
			`, snap.ID, addr, snap.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert admin: %w", err)
			}
		}

		return appendEvent(ctx, tx, ev)
	})
}

func (s *SQLStore) AddAdmin(ctx context.Context, electionID, address string, ev election.Event) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO election_admin (election_id, address, added_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (election_id, address) DO NOTHING
		`, electionID, address, ev.At)
		if err != nil {
			return fmt.Errorf("failed to insert admin: %w", err)
		}
		return appendEvent(ctx, tx, ev)
	})
}

func (s *SQLStore) AddCandidate(ctx context.Context, electionID string, c election.Candidate, ev election.Event) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO candidate (election_id, id, name, vote_count)
			VALUES ($1, $2, $3, 0)
		`, electionID, c.ID, c.Name)
		if err != nil {
			return fmt.Errorf("failed to insert candidate: %w", err)
		}
		return appendEvent(ctx, tx, ev)
	})
}

func (s *SQLStore) StartVoting(ctx context.Context, electionID string, startTime, endTime int64, ev election.Event) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE election
			SET started = 1, ended = 0, start_time = $1, end_time = $2
			WHERE id = $3
		`, startTime, endTime, electionID)
		if err != nil {
			return fmt.Errorf("failed to start voting: %w", err)
		}
		if err := requireRow(res, "election "+electionID); err != nil {
			return err
		}
		return appendEvent(ctx, tx, ev)
	})
}

func (s *SQLStore) RecordVote(ctx context.Context, electionID, voter string, candidateID int, ev election.Event) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vote_record (election_id, voter, candidate_id, cast_at)
			VALUES ($1, $2, $3, $4)
		`, electionID, voter, candidateID, ev.At)
		if err != nil {
			return fmt.Errorf("failed to insert vote record: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE candidate SET vote_count = vote_count + 1
			WHERE election_id = $1 AND id = $2
		`, electionID, candidateID)
		if err != nil {
			return fmt.Errorf("failed to increment vote count: %w", err)
		}
		if err := requireRow(res, fmt.Sprintf("candidate %d", candidateID)); err != nil {
			return err
		}

		return appendEvent(ctx, tx, ev)
	})
}

func (s *SQLStore) ResetVotingState(ctx context.Context, electionID string, clearCandidates bool, ev election.Event) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE election
			SET started = 0, ended = 0, start_time = 0, end_time = 0
			WHERE id = $1
		`, electionID)
		if err != nil {
			return fmt.Errorf("failed to reset clock: %w", err)
		}
		if err := requireRow(res, "election "+electionID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM vote_record WHERE election_id = $1`, electionID); err != nil {
			return fmt.Errorf("failed to clear vote records: %w", err)
		}

		if clearCandidates {
			_, err = tx.ExecContext(ctx, `DELETE FROM candidate WHERE election_id = $1`, electionID)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE candidate SET vote_count = 0 WHERE election_id = $1`, electionID)
		}
		if err != nil {
			return fmt.Errorf("failed to reset candidates: %w", err)
		}

		return appendEvent(ctx, tx, ev)
	})
}

func (s *SQLStore) LoadElections(ctx context.Context) ([]election.Snapshot, error) {
	var snaps []election.Snapshot
	index := make(map[string]int)
	err := s.eachRow(ctx, `
		SELECT id, deployer, duration_seconds, started, ended, start_time, end_time, last_seq, created_at
		FROM election
		ORDER BY id
	`, func(r *sql.Rows) error {
		var snap election.Snapshot
		var started, ended int
		if err := r.Scan(&snap.ID, &snap.Deployer, &snap.DurationSeconds, &started, &ended,
			&snap.StartTime, &snap.EndTime, &snap.LastSeq, &snap.CreatedAt); err != nil {
			return err
		}
		snap.Started = started != 0
		snap.Ended = ended != 0
		snap.Votes = make(map[string]int)
		index[snap.ID] = len(snaps)
		snaps = append(snaps, snap)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load elections: %w", err)
	}

	err = s.eachRow(ctx, `SELECT election_id, address FROM election_admin ORDER BY election_id, address`,
		func(r *sql.Rows) error {
			var id, addr string
			if err := r.Scan(&id, &addr); err != nil {
				return err
			}
			if i, ok := index[id]; ok {
				snaps[i].Admins = append(snaps[i].Admins, addr)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load admins: %w", err)
	}

	err = s.eachRow(ctx, `SELECT election_id, id, name, vote_count FROM candidate ORDER BY election_id, id`,
		func(r *sql.Rows) error {
			var id string
			var c election.Candidate
			if err := r.Scan(&id, &c.ID, &c.Name, &c.VoteCount); err != nil {
				return err
			}
			if i, ok := index[id]; ok {
				snaps[i].Candidates = append(snaps[i].Candidates, c)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	err = s.eachRow(ctx, `SELECT election_id, voter, candidate_id FROM vote_record`,
		func(r *sql.Rows) error {
			var id, voter string
			var cid int
			if err := r.Scan(&id, &voter, &cid); err != nil {
				return err
			}
			if i, ok := index[id]; ok {
				snaps[i].Votes[voter] = cid
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load vote records: %w", err)
	}

	return snaps, nil
}

func (s *SQLStore) eachRow(ctx context.Context, query string, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLStore) ListEvents(ctx context.Context, electionID string, afterSeq int64, limit int) ([]election.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, election_id, seq, kind, actor, subject, candidate_id, end_time, created_at
		FROM election_event
		WHERE election_id = $1 AND seq > $2
		ORDER BY seq
		LIMIT $3
	`, electionID, afterSeq, eventLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []election.Event{}
	for rows.Next() {
		var ev election.Event
		if err := rows.Scan(&ev.ID, &ev.ElectionID, &ev.Seq, &ev.Kind, &ev.Actor, &ev.Subject,
			&ev.CandidateID, &ev.EndTime, &ev.At); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CreateVoter inserts a voter. A clash on either voter_id or address is
// reported as ErrDuplicate by the conflict clause, not a prior read.
func (s *SQLStore) CreateVoter(ctx context.Context, v models.Voter) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO voter (voter_id, address, password_hash, key_secret, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, v.VoterID, v.Address, v.PasswordHash, v.KeySecret, v.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *SQLStore) GetVoter(ctx context.Context, voterID string) (models.Voter, error) {
	return s.queryVoter(ctx, "voter_id", voterID)
}

func (s *SQLStore) GetVoterByAddress(ctx context.Context, address string) (models.Voter, error) {
	return s.queryVoter(ctx, "address", address)
}

func (s *SQLStore) queryVoter(ctx context.Context, column, value string) (models.Voter, error) {
	var v models.Voter
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT voter_id, address, password_hash, key_secret, created_at
		FROM voter WHERE `+column+` = $1
	`, value).Scan(&v.VoterID, &v.Address, &v.PasswordHash, &v.KeySecret, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Voter{}, ErrNotFound
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("failed to query voter: %w", err)
	}
	v.CreatedAt = time.Unix(createdAt, 0)
	return v, nil
}
