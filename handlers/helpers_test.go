// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/chainelect/auth"
	"github.com/danielhkuo/chainelect/cliparse"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/feed"
	"github.com/danielhkuo/chainelect/models"
	"github.com/danielhkuo/chainelect/store"
	"github.com/danielhkuo/chainelect/testutil"
)

// testEnv wires a manager, store and hub the same way the router does
type testEnv struct {
	cfg   cliparse.Config
	clock *testutil.Clock
	store *store.SQLStore
	hub   *feed.Hub
	mgr   *election.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testutil.GetTestConfig()
	clock := testutil.NewClock()
	st := testutil.SetupTestStore(t)
	hub := feed.NewHub(0)
	return &testEnv{
		cfg:   cfg,
		clock: clock,
		store: st,
		hub:   hub,
		mgr:   testutil.NewTestManager(st, cfg, clock, hub),
	}
}

// as returns caller headers for address
func (e *testEnv) as(address string) map[string]string {
	return testutil.CallerHeaders(address, e.cfg)
}

// asVoter registers address under voterID and returns headers carrying the
// voter key issued for that registration
func (e *testEnv) asVoter(t *testing.T, voterID, address string) map[string]string {
	t.Helper()
	secret, err := auth.NewKeySecret()
	if err != nil {
		t.Fatal(err)
	}
	err = e.store.CreateVoter(t.Context(), models.Voter{
		VoterID:      voterID,
		Address:      address,
		PasswordHash: "unused",
		KeySecret:    secret,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("Failed to register voter: %v", err)
	}
	return map[string]string{
		"X-Caller-Address": address,
		"X-Caller-Key":     auth.GenerateVoterKey(address, secret, e.cfg.CallerKeySalt),
	}
}

// serve runs h against a request with the given path values set
func serve(h http.HandlerFunc, req *http.Request, pathValues ...string) *httptest.ResponseRecorder {
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// assertCode checks status and the election error code of an error response
func assertCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	testutil.AssertStatus(t, w, status)
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Code != code {
		t.Errorf("Expected code %q, got %q (%s)", code, resp.Code, resp.Message)
	}
}
