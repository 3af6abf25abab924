// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the ChainElect API server.

ChainElect runs single-vote elections. A deployer creates an election and
becomes its first admin; admins register candidates and open a fixed voting
window; each address votes once per cycle; admins reset the election to run
another cycle. Every change is journaled as an event and pushed to websocket
subscribers.

# Starting the Server

	CALLER_KEY_SALT=... go run .

Or with flags:

	go run . -p 8080 -t postgres -d "postgres://..." -caller-salt ...

# Configuration

Required settings:

  - CALLER_KEY_SALT (-caller-salt): Secret for caller key HMAC

Optional settings:

  - PORT (-p): Server port (default: 8080)
  - DATABASE_TYPE (-t): sqlite, postgres or leveldb (default: sqlite)
  - DATABASE_URL (-d): Connection string, or a directory for leveldb
  - VOTING_DURATION (-voting-duration): Default voting window (default: 24h)
  - RESET_CLEARS_CANDIDATES (-reset-clears-candidates): Drop candidates on reset
  - DEFAULT_ELECTION (-election) and DEPLOYER_ADDRESS (-deployer): Election
    deployed at startup if missing
  - ALLOWED_ORIGINS (-origins): Comma separated CORS origins (default: *)

Settings may also be placed in a .env file (-env-file).

# Architecture

  - election: Election state machine and manager
  - store: SQL and LevelDB persistence
  - feed: In-process event fan-out
  - handlers: HTTP request handlers (elections, candidates, voting, voters, events)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, caller authentication, JSON helpers
  - models: Request/response types
  - auth: Address validation, caller keys and password hashing
  - db: Connection and schema creation
  - cliparse: Configuration parsing
  - client: Go client for the API
  - cmd/chainelectctl: Command line client

See package documentation for each component.
*/
package main
