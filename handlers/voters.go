// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/chainelect/auth"
	"github.com/danielhkuo/chainelect/cliparse"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/middleware"
	"github.com/danielhkuo/chainelect/models"
	"github.com/danielhkuo/chainelect/store"
)

type VoterHandler struct {
	voters store.VoterStore
	mgr    *election.Manager
	cfg    cliparse.Config
}

func NewVoterHandler(voters store.VoterStore, mgr *election.Manager, cfg cliparse.Config) *VoterHandler {
	return &VoterHandler{voters: voters, mgr: mgr, cfg: cfg}
}

// adminOfAny reports whether addr administers any election
func (h *VoterHandler) adminOfAny(addr string) bool {
	for _, e := range h.mgr.List() {
		if e.IsAdmin(addr) {
			return true
		}
	}
	return false
}

func validVoterID(id string) bool {
	return len(id) >= 2 && len(id) <= 64 && !strings.ContainsAny(id, "/ \t\n")
}

// Register handles POST /voters/register
func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.VoterID = strings.TrimSpace(req.VoterID)
	if !validVoterID(req.VoterID) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id must be 2-64 characters without '/' or spaces")
		return
	}
	addr, err := auth.NormalizeAddress(req.Address)
	if err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "InvalidAddress", err.Error())
		return
	}
	if len(req.Password) < auth.MinPasswordLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, "password is too short")
		return
	}
	if h.adminOfAny(addr) {
		middleware.ErrorResponse(w, http.StatusConflict, "address belongs to an election admin")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voter")
		return
	}
	secret, err := auth.NewKeySecret()
	if err != nil {
		slog.Error("failed to create key secret", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voter")
		return
	}

	err = h.voters.CreateVoter(r.Context(), models.Voter{
		VoterID:      req.VoterID,
		Address:      addr,
		PasswordHash: hash,
		KeySecret:    secret,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		middleware.ErrorResponse(w, http.StatusConflict, "voter_id or address already registered")
		return
	}
	if err != nil {
		slog.Error("failed to create voter", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voter")
		return
	}

	slog.Info("voter registered", "voter_id", req.VoterID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterVoterResponse{
		VoterID:   req.VoterID,
		Address:   addr,
		CallerKey: auth.GenerateVoterKey(addr, secret, h.cfg.CallerKeySalt),
	})
}

// Login handles POST /voters/login
func (h *VoterHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.VoterID == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id and password are required")
		return
	}

	v, err := h.voters.GetVoter(r.Context(), strings.TrimSpace(req.VoterID))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter_id or password")
		return
	}
	if err != nil {
		slog.Error("failed to load voter", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if err := auth.CheckPassword(v.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrWrongPassword) {
			slog.Error("failed to check password", "voter_id", v.VoterID, "error", err)
		}
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter_id or password")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Address:   v.Address,
		CallerKey: auth.GenerateVoterKey(v.Address, v.KeySecret, h.cfg.CallerKeySalt),
	})
}
