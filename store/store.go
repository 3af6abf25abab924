// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"

	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// DefaultEventLimit caps ListEvents when no limit is given
const DefaultEventLimit = 500

// VoterStore persists registered voters
type VoterStore interface {
	CreateVoter(ctx context.Context, v models.Voter) error
	GetVoter(ctx context.Context, voterID string) (models.Voter, error)
	GetVoterByAddress(ctx context.Context, address string) (models.Voter, error)
}

// Backend is a complete storage implementation
type Backend interface {
	election.Store
	VoterStore
	Close() error
}

var (
	_ Backend = (*SQLStore)(nil)
	_ Backend = (*LevelStore)(nil)
)

func eventLimit(limit int) int {
	if limit <= 0 || limit > DefaultEventLimit {
		return DefaultEventLimit
	}
	return limit
}
