// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is a typed Go client for the ChainElect HTTP API.

	c := client.New("http://localhost:8080").WithCaller(address, callerKey)
	if err := c.Vote(ctx, "council", 2); errors.Is(err, election.ErrAlreadyVoted) {
		// ...
	}

Non-2xx responses are returned as *APIError, which unwraps to the election
sentinel matching its code. Stream follows the websocket event feed.
*/
package client
