// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/danielhkuo/chainelect/auth"
	"github.com/danielhkuo/chainelect/models"
	"github.com/danielhkuo/chainelect/store"
)

// Caller credential headers
const (
	HeaderCallerAddress = "X-Caller-Address"
	HeaderCallerKey     = "X-Caller-Key"
)

var ErrMissingCaller = errors.New("caller credentials required")

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Info("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", GetClientIP(r),
		)

		next(w, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	CodedErrorResponse(w, statusCode, "", message)
}

// CodedErrorResponse writes a JSON error response carrying an election error code
func CodedErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    code,
		Message: message,
	})
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// Identity is an authenticated caller
type Identity struct {
	Address string
	// Operator is set for keys derived from the server salt alone. Keys
	// issued at voter registration leave it false.
	Operator bool
}

// VoterLookup finds the registration behind a voter key
type VoterLookup interface {
	GetVoterByAddress(ctx context.Context, address string) (models.Voter, error)
}

// Caller authenticates the request's caller headers. The key is either the
// operator key for the address or the voter key issued at registration.
// voters may be nil, in which case only operator keys are accepted.
func Caller(r *http.Request, salt string, voters VoterLookup) (Identity, error) {
	address := strings.TrimSpace(r.Header.Get(HeaderCallerAddress))
	key := strings.TrimSpace(r.Header.Get(HeaderCallerKey))
	if address == "" || key == "" {
		return Identity{}, ErrMissingCaller
	}

	addr, err := auth.NormalizeAddress(address)
	if err != nil {
		return Identity{}, err
	}
	if auth.ValidateCallerKey(addr, key, salt) == nil {
		return Identity{Address: addr, Operator: true}, nil
	}
	if voters == nil {
		return Identity{}, auth.ErrInvalidCallerKey
	}

	v, err := voters.GetVoterByAddress(r.Context(), addr)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, auth.ErrInvalidCallerKey
	}
	if err != nil {
		return Identity{}, err
	}
	if err := auth.ValidateVoterKey(addr, v.KeySecret, key, salt); err != nil {
		return Identity{}, err
	}
	return Identity{Address: addr}, nil
}

// CORS allows cross-origin requests from the configured origins.
// An empty list or "*" allows any origin.
func CORS(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderCallerAddress, HeaderCallerKey},
	})
	return c.Handler(next)
}

// GetClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For (load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in chain
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' || xff[i] == ' ' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Strip port if present
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
