// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/chainelect/election"
	"github.com/danielhkuo/chainelect/models"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Unwrap exposes the election sentinel for the code, so callers can use
// errors.Is(err, election.ErrAlreadyVoted)
func (e *APIError) Unwrap() error {
	return election.ErrorForCode(e.Code)
}

// Client talks to one ChainElect server as one caller
type Client struct {
	baseURL    string
	address    string
	callerKey  string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// WithCaller returns a copy that sends the given caller credentials
func (c *Client) WithCaller(address, callerKey string) *Client {
	cp := *c
	cp.address = address
	cp.callerKey = callerKey
	return &cp
}

// WithHTTPClient returns a copy using hc for requests
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.httpClient = hc
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.address != "" {
		req.Header.Set("X-Caller-Address", c.address)
		req.Header.Set("X-Caller-Key", c.callerKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var er models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &APIError{Status: resp.StatusCode, Code: er.Code, Message: er.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func electionPath(id string, parts ...string) string {
	p := "/elections/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// CreateElection deploys an election with the caller as deployer. A zero
// duration uses the server default.
func (c *Client) CreateElection(ctx context.Context, id string, duration time.Duration) (models.CreateElectionResponse, error) {
	var out models.CreateElectionResponse
	req := models.CreateElectionRequest{ElectionID: id, DurationSeconds: int64(duration / time.Second)}
	err := c.do(ctx, http.MethodPost, "/elections", req, &out)
	return out, err
}

func (c *Client) ListElections(ctx context.Context) ([]election.Status, error) {
	var out models.ElectionsResponse
	err := c.do(ctx, http.MethodGet, "/elections", nil, &out)
	return out.Elections, err
}

func (c *Client) Status(ctx context.Context, id string) (election.Status, error) {
	var out election.Status
	err := c.do(ctx, http.MethodGet, electionPath(id), nil, &out)
	return out, err
}

func (c *Client) Admins(ctx context.Context, id string) ([]string, error) {
	var out models.AdminsResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "admins"), nil, &out)
	return out.Admins, err
}

func (c *Client) AddAdmin(ctx context.Context, id, address string) error {
	return c.do(ctx, http.MethodPost, electionPath(id, "admins"), models.AddAdminRequest{Address: address}, nil)
}

func (c *Client) IsAdmin(ctx context.Context, id, address string) (bool, error) {
	var out models.IsAdminResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "admins", url.PathEscape(address)), nil, &out)
	return out.IsAdmin, err
}

func (c *Client) AddCandidate(ctx context.Context, id, name string) (election.Candidate, error) {
	var out election.Candidate
	err := c.do(ctx, http.MethodPost, electionPath(id, "candidates"), models.AddCandidateRequest{Name: name}, &out)
	return out, err
}

func (c *Client) Candidates(ctx context.Context, id string) ([]election.Candidate, error) {
	var out models.CandidatesResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "candidates"), nil, &out)
	return out.Candidates, err
}

func (c *Client) CandidatesCount(ctx context.Context, id string) (int, error) {
	var out models.CandidatesCountResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "candidates", "count"), nil, &out)
	return out.Count, err
}

func (c *Client) Candidate(ctx context.Context, id string, candidateID int) (election.Candidate, error) {
	var out election.Candidate
	err := c.do(ctx, http.MethodGet, electionPath(id, "candidates", strconv.Itoa(candidateID)), nil, &out)
	return out, err
}

func (c *Client) StartVoting(ctx context.Context, id string) (election.Status, error) {
	var out election.Status
	err := c.do(ctx, http.MethodPost, electionPath(id, "start"), nil, &out)
	return out, err
}

func (c *Client) ResetVotingState(ctx context.Context, id string) (election.Status, error) {
	var out election.Status
	err := c.do(ctx, http.MethodPost, electionPath(id, "reset"), nil, &out)
	return out, err
}

func (c *Client) VotingStarted(ctx context.Context, id string) (bool, error) {
	var out models.VotingStartedResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "voting-started"), nil, &out)
	return out.VotingStarted, err
}

func (c *Client) VotingEnded(ctx context.Context, id string) (bool, error) {
	var out models.VotingEndedResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "voting-ended"), nil, &out)
	return out.VotingEnded, err
}

// VotingEndTime returns Unix seconds, 0 before voting starts
func (c *Client) VotingEndTime(ctx context.Context, id string) (int64, error) {
	var out models.VotingEndTimeResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "voting-end-time"), nil, &out)
	return out.VotingEndTime, err
}

// RemainingTime returns seconds left in the voting window
func (c *Client) RemainingTime(ctx context.Context, id string) (int64, error) {
	var out models.RemainingTimeResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "remaining-time"), nil, &out)
	return out.RemainingTime, err
}

func (c *Client) Vote(ctx context.Context, id string, candidateID int) error {
	return c.do(ctx, http.MethodPost, electionPath(id, "votes"), models.VoteRequest{CandidateID: candidateID}, nil)
}

func (c *Client) HasVoted(ctx context.Context, id, address string) (bool, error) {
	var out models.HasVotedResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "voters", url.PathEscape(address)), nil, &out)
	return out.HasVoted, err
}

// Events reads the journal after seq; limit 0 uses the server cap
func (c *Client) Events(ctx context.Context, id string, after int64, limit int) ([]election.Event, error) {
	q := url.Values{}
	q.Set("after", strconv.FormatInt(after, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out models.EventsResponse
	err := c.do(ctx, http.MethodGet, electionPath(id, "events")+"?"+q.Encode(), nil, &out)
	return out.Events, err
}

func (c *Client) RegisterVoter(ctx context.Context, voterID, address, password string) (models.RegisterVoterResponse, error) {
	var out models.RegisterVoterResponse
	req := models.RegisterVoterRequest{VoterID: voterID, Address: address, Password: password}
	err := c.do(ctx, http.MethodPost, "/voters/register", req, &out)
	return out, err
}

// Login returns the voter's address and caller key
func (c *Client) Login(ctx context.Context, voterID, password string) (models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/voters/login", models.LoginRequest{VoterID: voterID, Password: password}, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}
