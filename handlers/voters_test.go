// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/danielhkuo/chainelect/auth"
	"github.com/danielhkuo/chainelect/middleware"
	"github.com/danielhkuo/chainelect/models"
	"github.com/danielhkuo/chainelect/testutil"
)

func TestRegisterVoter(t *testing.T) {
	env := newTestEnv(t)
	handler := NewVoterHandler(env.store, env.mgr, env.cfg)

	tests := []struct {
		name           string
		req            models.RegisterVoterRequest
		expectedStatus int
	}{
		{"valid", models.RegisterVoterRequest{VoterID: "alice", Address: testutil.Voter1, Password: "correct-horse"}, http.StatusCreated},
		{"duplicate voter id", models.RegisterVoterRequest{VoterID: "alice", Address: testutil.Voter2, Password: "correct-horse"}, http.StatusConflict},
		{"upper-case 0X prefix", models.RegisterVoterRequest{VoterID: "alice2", Address: strings.ToUpper(testutil.Voter1[:2]) + testutil.Voter1[2:], Password: "correct-horse"}, http.StatusBadRequest},
		{"duplicate address other case", models.RegisterVoterRequest{VoterID: "alice3", Address: "0x" + strings.ToUpper(testutil.Voter1[2:]), Password: "correct-horse"}, http.StatusConflict},
		{"short voter id", models.RegisterVoterRequest{VoterID: "a", Address: testutil.Voter2, Password: "correct-horse"}, http.StatusBadRequest},
		{"slash in voter id", models.RegisterVoterRequest{VoterID: "a/b", Address: testutil.Voter2, Password: "correct-horse"}, http.StatusBadRequest},
		{"bad address", models.RegisterVoterRequest{VoterID: "bob", Address: "0xnope", Password: "correct-horse"}, http.StatusBadRequest},
		{"short password", models.RegisterVoterRequest{VoterID: "bob", Address: testutil.Voter2, Password: "short"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/voters/register", tt.req, nil)
			w := serve(handler.Register, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp models.RegisterVoterResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Address != strings.ToLower(tt.req.Address) {
				t.Errorf("Expected normalised address, got %s", resp.Address)
			}
			if resp.CallerKey == "" {
				t.Error("Expected caller_key in response")
			}
		})
	}
}

func TestRegisterVoter_AdminAddressRefused(t *testing.T) {
	env := newTestEnv(t)
	handler := NewVoterHandler(env.store, env.mgr, env.cfg)
	testutil.CreateTestElection(t, env.mgr, "council")

	for _, addr := range []string{testutil.Deployer, testutil.Admin} {
		req := testutil.MakeRequest("POST", "/voters/register", models.RegisterVoterRequest{
			VoterID: "mallory", Address: addr, Password: "correct-horse",
		}, nil)
		testutil.AssertStatus(t, serve(handler.Register, req), http.StatusConflict)
	}

	if _, err := env.store.GetVoter(t.Context(), "mallory"); err == nil {
		t.Error("Expected no voter to be stored for an admin address")
	}
}

func TestLoginVoter(t *testing.T) {
	env := newTestEnv(t)
	handler := NewVoterHandler(env.store, env.mgr, env.cfg)

	reg := testutil.MakeRequest("POST", "/voters/register", models.RegisterVoterRequest{
		VoterID: "alice", Address: testutil.Voter1, Password: "correct-horse",
	}, nil)
	testutil.AssertStatus(t, serve(handler.Register, reg), http.StatusCreated)

	tests := []struct {
		name           string
		req            models.LoginRequest
		expectedStatus int
	}{
		{"valid", models.LoginRequest{VoterID: "alice", Password: "correct-horse"}, http.StatusOK},
		{"wrong password", models.LoginRequest{VoterID: "alice", Password: "battery-staple"}, http.StatusUnauthorized},
		{"unknown voter", models.LoginRequest{VoterID: "nobody", Password: "correct-horse"}, http.StatusUnauthorized},
		{"missing password", models.LoginRequest{VoterID: "alice"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/voters/login", tt.req, nil)
			w := serve(handler.Login, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.LoginResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Address != testutil.Voter1 {
				t.Errorf("Expected address %s, got %s", testutil.Voter1, resp.Address)
			}

			// the issued key authenticates the voter, but not as an operator
			check := testutil.MakeRequest("POST", "/", nil, map[string]string{
				middleware.HeaderCallerAddress: resp.Address,
				middleware.HeaderCallerKey:     resp.CallerKey,
			})
			caller, err := middleware.Caller(check, env.cfg.CallerKeySalt, env.store)
			if err != nil || caller.Address != testutil.Voter1 {
				t.Errorf("Issued key rejected: %v", err)
			}
			if caller.Operator {
				t.Error("Voter key must not carry operator rights")
			}
			if resp.CallerKey == auth.GenerateCallerKey(testutil.Voter1, env.cfg.CallerKeySalt) {
				t.Error("Login issued the operator key")
			}
		})
	}
}
