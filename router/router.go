// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/chainelect/cliparse"
	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/handlers"
	"github.com/danielhkuo/chainelect/middleware"
	"github.com/danielhkuo/chainelect/store"
)

// NewRouter registers every endpoint and wraps the mux with CORS
func NewRouter(mgr *election.Manager, voters store.VoterStore, feed handlers.Subscriber, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(mgr, voters, cfg)
	candidateHandler := handlers.NewCandidateHandler(mgr, voters, cfg)
	votingHandler := handlers.NewVotingHandler(mgr, voters, cfg)
	voterHandler := handlers.NewVoterHandler(voters, mgr, cfg)
	eventHandler := handlers.NewEventHandler(mgr, feed)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Elections and admin registry
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("GET /elections/{id}/admins", middleware.WithLogging(electionHandler.ListAdmins))
	mux.HandleFunc("POST /elections/{id}/admins", middleware.WithLogging(electionHandler.AddAdmin))
	mux.HandleFunc("GET /elections/{id}/admins/{address}", middleware.WithLogging(electionHandler.IsAdmin))

	// Candidate ledger
	mux.HandleFunc("POST /elections/{id}/candidates", middleware.WithLogging(candidateHandler.AddCandidate))
	mux.HandleFunc("GET /elections/{id}/candidates", middleware.WithLogging(candidateHandler.ListCandidates))
	mux.HandleFunc("GET /elections/{id}/candidates/count", middleware.WithLogging(candidateHandler.CountCandidates))
	mux.HandleFunc("GET /elections/{id}/candidates/{cid}", middleware.WithLogging(candidateHandler.GetCandidate))

	// Election clock
	mux.HandleFunc("POST /elections/{id}/start", middleware.WithLogging(electionHandler.StartVoting))
	mux.HandleFunc("POST /elections/{id}/reset", middleware.WithLogging(electionHandler.ResetVotingState))
	mux.HandleFunc("GET /elections/{id}/voting-started", middleware.WithLogging(electionHandler.VotingStarted))
	mux.HandleFunc("GET /elections/{id}/voting-ended", middleware.WithLogging(electionHandler.VotingEnded))
	mux.HandleFunc("GET /elections/{id}/voting-end-time", middleware.WithLogging(electionHandler.VotingEndTime))
	mux.HandleFunc("GET /elections/{id}/remaining-time", middleware.WithLogging(electionHandler.RemainingTime))

	// Vote ledger
	mux.HandleFunc("POST /elections/{id}/votes", middleware.WithLogging(votingHandler.Vote))
	mux.HandleFunc("GET /elections/{id}/voters/{address}", middleware.WithLogging(votingHandler.HasVoted))

	// Event journal and live stream
	mux.HandleFunc("GET /elections/{id}/events", middleware.WithLogging(eventHandler.ListEvents))
	mux.HandleFunc("GET /elections/{id}/events/stream", middleware.WithLogging(eventHandler.StreamEvents))

	// Voter registry
	mux.HandleFunc("POST /voters/register", middleware.WithLogging(voterHandler.Register))
	mux.HandleFunc("POST /voters/login", middleware.WithLogging(voterHandler.Login))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("chainelect API v1"))
	})

	return middleware.CORS(cfg.AllowedOrigins, mux)
}
