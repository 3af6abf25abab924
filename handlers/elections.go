// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/danielhkuo/chainelect/auth"
	"github.com/danielhkuo/chainelect/cliparse"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/middleware"
	"github.com/danielhkuo/chainelect/models"
	"github.com/danielhkuo/chainelect/store"
)

type ElectionHandler struct {
	mgr    *election.Manager
	voters store.VoterStore
	cfg    cliparse.Config
}

func NewElectionHandler(mgr *election.Manager, voters store.VoterStore, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{mgr: mgr, voters: voters, cfg: cfg}
}

// maxDurationSeconds is the longest window a time.Duration can hold
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// CreateElection handles POST /elections. The caller becomes the deployer.
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOperator(w, r, h.cfg.CallerKeySalt, h.voters)
	if !ok {
		return
	}

	// An empty body creates an election with a generated id
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.DurationSeconds < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "duration_seconds must not be negative")
		return
	}
	if req.DurationSeconds > maxDurationSeconds {
		middleware.ErrorResponse(w, http.StatusBadRequest, "duration_seconds is too large")
		return
	}

	e, err := h.mgr.Create(r.Context(), req.ElectionID, caller, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		writeElectionError(w, err, "create election")
		return
	}

	slog.Info("election created", "election_id", e.ID(), "deployer", caller)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: e.ID(),
		Deployer:   caller,
	})
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections := h.mgr.List()
	resp := models.ElectionsResponse{Elections: make([]election.Status, 0, len(elections))}
	for _, e := range elections {
		resp.Elections = append(resp.Elections, e.Status())
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e.Status())
}

// ListAdmins handles GET /elections/{id}/admins
func (h *ElectionHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.AdminsResponse{Admins: e.Admins()})
}

// AddAdmin handles POST /elections/{id}/admins
func (h *ElectionHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOperator(w, r, h.cfg.CallerKeySalt, h.voters)
	if !ok {
		return
	}
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}

	var req models.AddAdminRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := e.AddAdmin(r.Context(), caller, req.Address); err != nil {
		writeElectionError(w, err, "add admin")
		return
	}

	addr, _ := auth.NormalizeAddress(req.Address)
	slog.Info("admin added", "election_id", e.ID(), "admin", addr, "by", caller)

	middleware.JSONResponse(w, http.StatusOK, models.IsAdminResponse{Address: addr, IsAdmin: true})
}

// IsAdmin handles GET /elections/{id}/admins/{address}. A malformed
// address is never an admin.
func (h *ElectionHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	addr := pathAddress(r)
	middleware.JSONResponse(w, http.StatusOK, models.IsAdminResponse{Address: addr, IsAdmin: e.IsAdmin(addr)})
}

// StartVoting handles POST /elections/{id}/start
func (h *ElectionHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOperator(w, r, h.cfg.CallerKeySalt, h.voters)
	if !ok {
		return
	}
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}

	if err := e.StartVoting(r.Context(), caller); err != nil {
		writeElectionError(w, err, "start voting")
		return
	}

	slog.Info("voting started", "election_id", e.ID(), "end_time", e.VotingEndTime(), "by", caller)

	middleware.JSONResponse(w, http.StatusOK, e.Status())
}

// ResetVotingState handles POST /elections/{id}/reset
func (h *ElectionHandler) ResetVotingState(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOperator(w, r, h.cfg.CallerKeySalt, h.voters)
	if !ok {
		return
	}
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}

	if err := e.ResetVotingState(r.Context(), caller); err != nil {
		writeElectionError(w, err, "reset voting")
		return
	}

	slog.Info("voting reset", "election_id", e.ID(), "by", caller)

	middleware.JSONResponse(w, http.StatusOK, e.Status())
}

// VotingStarted handles GET /elections/{id}/voting-started
func (h *ElectionHandler) VotingStarted(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.VotingStartedResponse{VotingStarted: e.VotingStarted()})
}

// VotingEnded handles GET /elections/{id}/voting-ended
func (h *ElectionHandler) VotingEnded(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.VotingEndedResponse{VotingEnded: e.VotingEnded()})
}

// VotingEndTime handles GET /elections/{id}/voting-end-time
func (h *ElectionHandler) VotingEndTime(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.VotingEndTimeResponse{VotingEndTime: e.VotingEndTime()})
}

// RemainingTime handles GET /elections/{id}/remaining-time
func (h *ElectionHandler) RemainingTime(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.RemainingTimeResponse{RemainingTime: e.GetRemainingTime()})
}
