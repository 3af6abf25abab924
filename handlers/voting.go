// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/chainelect/cliparse"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/middleware"
	"github.com/danielhkuo/chainelect/models"
	"github.com/danielhkuo/chainelect/store"
)

type VotingHandler struct {
	mgr    *election.Manager
	voters store.VoterStore
	cfg    cliparse.Config
}

func NewVotingHandler(mgr *election.Manager, voters store.VoterStore, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{mgr: mgr, voters: voters, cfg: cfg}
}

// Vote handles POST /elections/{id}/votes
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, h.cfg.CallerKeySalt, h.voters)
	if !ok {
		return
	}
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := e.Vote(r.Context(), caller.Address, req.CandidateID); err != nil {
		writeElectionError(w, err, "vote")
		return
	}

	// voter address stays out of the log
	slog.Info("vote cast", "election_id", e.ID(), "candidate_id", req.CandidateID)

	middleware.JSONResponse(w, http.StatusOK, models.VoteResponse{
		CandidateID: req.CandidateID,
		Message:     "Vote recorded",
	})
}

// HasVoted handles GET /elections/{id}/voters/{address}. A malformed
// address has never voted.
func (h *VotingHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	addr := pathAddress(r)
	middleware.JSONResponse(w, http.StatusOK, models.HasVotedResponse{Address: addr, HasVoted: e.HasVoted(addr)})
}
