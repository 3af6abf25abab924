// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/chainelect/auth"
	"github.com/danielhkuo/chainelect/cliparse"
	"github.com/danielhkuo/chainelect/db"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/store"
)

// Well-known test addresses
const (
	Deployer = "0x00000000000000000000000000000000000000d1"
	Admin    = "0x00000000000000000000000000000000000000a1"
	Voter1   = "0x0000000000000000000000000000000000000b01"
	Voter2   = "0x0000000000000000000000000000000000000b02"
	Stranger = "0x0000000000000000000000000000000000000e01"
)

// TestVotingDuration is the voting window used by GetTestConfig
const TestVotingDuration = 10 * time.Minute

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Unix(1_700_000_000, 0)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// SetupTestStore opens a fresh SQLite database with the full schema
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	conn, err := db.Open("sqlite", filepath.Join(t.TempDir(), "chainelect.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	s := store.NewSQLStore(conn)
	t.Cleanup(func() { s.Close() })
	return s
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           8080,
		DatabaseURL:    "file:test.db",
		DatabaseType:   "sqlite",
		CallerKeySalt:  "test-caller-salt",
		VotingDuration: TestVotingDuration,
		AllowedOrigins: []string{"*"},
	}
}

// NewTestManager builds a manager over st driven by clock
func NewTestManager(st election.Store, cfg cliparse.Config, clock *Clock, pub election.Publisher) *election.Manager {
	return election.NewManager(st, election.Options{
		Duration:              cfg.VotingDuration,
		ResetClearsCandidates: cfg.ResetClearsCandidates,
		Now:                   clock.Now,
		Publisher:             pub,
	})
}

// CreateTestElection deploys an election with Admin promoted and the given candidates
func CreateTestElection(t *testing.T, mgr *election.Manager, id string, candidates ...string) *election.Election {
	t.Helper()
	ctx := context.Background()

	e, err := mgr.Create(ctx, id, Deployer, 0)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	if err := e.AddAdmin(ctx, Deployer, Admin); err != nil {
		t.Fatalf("Failed to add test admin: %v", err)
	}
	for _, name := range candidates {
		if _, err := e.AddCandidate(ctx, Admin, name); err != nil {
			t.Fatalf("Failed to add test candidate: %v", err)
		}
	}
	return e
}

// StartTestElection opens voting on e
func StartTestElection(t *testing.T, e *election.Election) {
	t.Helper()
	if err := e.StartVoting(context.Background(), Admin); err != nil {
		t.Fatalf("Failed to start voting: %v", err)
	}
}

// CallerHeaders returns valid caller credential headers for address
func CallerHeaders(address string, cfg cliparse.Config) map[string]string {
	addr, err := auth.NormalizeAddress(address)
	if err != nil {
		addr = address
	}
	return map[string]string{
		"X-Caller-Address": address,
		"X-Caller-Key":     auth.GenerateCallerKey(addr, cfg.CallerKeySalt),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
