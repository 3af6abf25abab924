// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the ChainElect API.

# Route Registration

NewRouter builds an http.ServeMux with all endpoints and wraps it in the
CORS middleware:

	handler := router.NewRouter(mgr, backend, hub, cfg)

# Endpoints

Health:

	GET /health

Elections and admins (mutations require caller headers):

	POST /elections                         - Deploy an election
	GET  /elections                         - List election statuses
	GET  /elections/{id}                    - Status snapshot
	GET  /elections/{id}/admins             - List admins
	POST /elections/{id}/admins             - Add admin
	GET  /elections/{id}/admins/{address}   - Is admin

Candidates:

	POST /elections/{id}/candidates         - Add candidate (before start)
	GET  /elections/{id}/candidates         - List with tallies
	GET  /elections/{id}/candidates/count   - Count
	GET  /elections/{id}/candidates/{cid}   - One candidate

Clock:

	POST /elections/{id}/start
	POST /elections/{id}/reset
	GET  /elections/{id}/voting-started
	GET  /elections/{id}/voting-ended
	GET  /elections/{id}/voting-end-time
	GET  /elections/{id}/remaining-time

Votes and events:

	POST /elections/{id}/votes
	GET  /elections/{id}/voters/{address}
	GET  /elections/{id}/events?after=&limit=
	GET  /elections/{id}/events/stream?after=   (websocket)

Voter registry:

	POST /voters/register
	POST /voters/login
*/
package router
