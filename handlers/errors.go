// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/chainelect/auth"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/middleware"
	"github.com/danielhkuo/chainelect/store"
)

// statusFor maps an election error code to its HTTP status
func statusFor(code string) int {
	switch code {
	case "Unauthorized":
		return http.StatusForbidden
	case "NotFound", "ElectionNotFound":
		return http.StatusNotFound
	case "InvalidAddress", "InvalidName", "InvalidElectionID":
		return http.StatusBadRequest
	case "AlreadyStarted", "VotingNotActive", "VotingAlreadyStarted",
		"AlreadyVoted", "NoCandidates", "ElectionExists":
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeElectionError writes err as a coded error response. Errors without
// an election code are logged and reported as 500.
func writeElectionError(w http.ResponseWriter, err error, op string) {
	code := election.Code(err)
	if code == "" {
		slog.Error(op+" failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
		return
	}
	middleware.CodedErrorResponse(w, statusFor(code), code, err.Error())
}

// requireCaller authenticates the caller headers with either key kind,
// writing 401 on failure
func requireCaller(w http.ResponseWriter, r *http.Request, salt string, voters store.VoterStore) (middleware.Identity, bool) {
	id, err := middleware.Caller(r, salt, voters)
	switch {
	case err == nil:
		return id, true
	case errors.Is(err, middleware.ErrMissingCaller):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Caller credentials required")
	case errors.Is(err, auth.ErrInvalidCallerKey), errors.Is(err, auth.ErrInvalidAddress):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid caller credentials")
	default:
		slog.Error("caller lookup failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
	return middleware.Identity{}, false
}

// requireOperator authenticates like requireCaller but rejects voter keys
// with 403. Creating elections and admin operations need an operator key.
func requireOperator(w http.ResponseWriter, r *http.Request, salt string, voters store.VoterStore) (string, bool) {
	id, ok := requireCaller(w, r, salt, voters)
	if !ok {
		return "", false
	}
	if !id.Operator {
		middleware.CodedErrorResponse(w, http.StatusForbidden, election.ErrUnauthorized.Error(),
			"voter keys cannot perform admin operations")
		return "", false
	}
	return id.Address, true
}

// lookupElection resolves the {id} path value, writing 404 when unknown
func lookupElection(w http.ResponseWriter, r *http.Request, mgr *election.Manager) (*election.Election, bool) {
	e, err := mgr.Get(r.PathValue("id"))
	if err != nil {
		writeElectionError(w, err, "lookup election")
		return nil, false
	}
	return e, true
}

// pathAddress returns the {address} path value, normalised when valid and
// as given otherwise
func pathAddress(r *http.Request) string {
	raw := r.PathValue("address")
	if addr, err := auth.NormalizeAddress(raw); err == nil {
		return addr
	}
	return raw
}
