// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package feed is the in-process event hub behind the websocket stream.
// A Hub is passed to election.Options as the Publisher.
package feed
