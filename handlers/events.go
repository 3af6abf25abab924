// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/middleware"
	"github.com/danielhkuo/chainelect/models"
	"github.com/danielhkuo/chainelect/store"
)

const streamWriteWait = 10 * time.Second

// Subscriber is the live side of the event stream
type Subscriber interface {
	Subscribe(electionID string) (<-chan election.Event, func())
}

type EventHandler struct {
	mgr      *election.Manager
	feed     Subscriber
	upgrader websocket.Upgrader
}

func NewEventHandler(mgr *election.Manager, feed Subscriber) *EventHandler {
	return &EventHandler{
		mgr:  mgr,
		feed: feed,
		upgrader: websocket.Upgrader{
			// CORS is enforced by the router for plain requests
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func parseAfter(r *http.Request) (int64, bool) {
	v := r.URL.Query().Get("after")
	if v == "" {
		return 0, true
	}
	after, err := strconv.ParseInt(v, 10, 64)
	if err != nil || after < 0 {
		return 0, false
	}
	return after, true
}

// ListEvents handles GET /elections/{id}/events?after=&limit=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	after, ok := parseAfter(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "after must be a non-negative integer")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := h.mgr.Events(r.Context(), r.PathValue("id"), after, limit)
	if err != nil {
		writeElectionError(w, err, "list events")
		return
	}
	if events == nil {
		events = []election.Event{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.EventsResponse{Events: events})
}

// StreamEvents handles GET /elections/{id}/events/stream?after=
// It sends the journal after the given seq, then live events, in seq order.
func (h *EventHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	e, ok := lookupElection(w, r, h.mgr)
	if !ok {
		return
	}
	after, ok := parseAfter(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "after must be a non-negative integer")
		return
	}

	// Subscribe before reading the backlog so nothing committed in between is lost
	live, cancel := h.feed.Subscribe(e.ID())
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "election_id", e.ID(), "error", err)
		return
	}
	defer conn.Close()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	// Reads only serve to notice the client going away
	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	last, err := h.catchUp(ctx, conn, e.ID(), after)
	if err != nil {
		slog.Debug("event stream closed", "election_id", e.ID(), "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-live:
			if !ok {
				return
			}
			if ev.Seq <= last {
				continue
			}
			if ev.Seq > last+1 {
				// the hub dropped something; refill from the journal
				last, err = h.catchUp(ctx, conn, e.ID(), last)
				if err != nil {
					return
				}
				if ev.Seq <= last {
					continue
				}
			}
			if err := writeEvent(conn, ev); err != nil {
				slog.Debug("event stream closed", "election_id", e.ID(), "error", err)
				return
			}
			last = ev.Seq
		}
	}
}

// catchUp writes every journal event after seq and returns the last seq sent
func (h *EventHandler) catchUp(ctx context.Context, conn *websocket.Conn, electionID string, seq int64) (int64, error) {
	for {
		events, err := h.mgr.Events(ctx, electionID, seq, store.DefaultEventLimit)
		if err != nil {
			return seq, err
		}
		for _, ev := range events {
			if err := writeEvent(conn, ev); err != nil {
				return seq, err
			}
			seq = ev.Seq
		}
		if len(events) < store.DefaultEventLimit {
			return seq, nil
		}
	}
}

func writeEvent(conn *websocket.Conn, ev election.Event) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(ev)
}
