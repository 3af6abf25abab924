// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/chainelect/cliparse"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/middleware"
	"github.com/danielhkuo/chainelect/models"
	"github.com/danielhkuo/chainelect/store"
)

type CandidateHandler struct {
	mgr    *election.Manager
	voters store.VoterStore
	cfg    cliparse.Config
}

func NewCandidateHandler(mgr *election.Manager, voters store.VoterStore, cfg cliparse.Config) *CandidateHandler {
	return &CandidateHandler{mgr: mgr, voters: voters, cfg: cfg}
}

// AddCandidate handles POST /elections/{id}/candidates
func (h *CandidateHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOperator(w, r, h.cfg.CallerKeySalt, h.voters)
	if !ok {
		return
	}
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := e.AddCandidate(r.Context(), caller, req.Name)
	if err != nil {
		writeElectionError(w, err, "add candidate")
		return
	}

	slog.Info("candidate added", "election_id", e.ID(), "candidate_id", c.ID, "by", caller)

	middleware.JSONResponse(w, http.StatusCreated, c)
}

// ListCandidates handles GET /elections/{id}/candidates
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CandidatesResponse{Candidates: e.Candidates()})
}

// CountCandidates handles GET /elections/{id}/candidates/count
func (h *CandidateHandler) CountCandidates(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CandidatesCountResponse{Count: e.GetCandidatesCount()})
}

// GetCandidate handles GET /elections/{id}/candidates/{cid}
func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}

	cid, err := strconv.Atoi(r.PathValue("cid"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate id must be an integer")
		return
	}

	c, err := e.GetCandidate(cid)
	if err != nil {
		writeElectionError(w, err, "get candidate")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}
