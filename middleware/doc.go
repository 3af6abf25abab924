// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# Caller Credentials

Mutating endpoints identify the caller with two headers:

	X-Caller-Address: 0x...
	X-Caller-Key:     <operator key or voter key>

	caller, err := middleware.Caller(r, cfg.CallerKeySalt, voters)

The operator key is an HMAC of the lower-cased address under the server
salt and is only issued offline. A voter key is returned by registration and
login and is bound to a secret stored with the voter, so it sets
Identity.Operator to false. Caller returns ErrMissingCaller,
auth.ErrInvalidAddress or auth.ErrInvalidCallerKey on failure.

# CORS

	handler := middleware.CORS(cfg.AllowedOrigins, mux)

Backed by github.com/rs/cors. Allows GET, POST and OPTIONS with the caller
headers and Content-Type.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.CodedErrorResponse(w, http.StatusConflict, "AlreadyVoted", "message")
*/
package middleware
