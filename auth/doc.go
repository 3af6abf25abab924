// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides address validation, caller keys and password hashing.

# Addresses

Callers are identified by 20-byte addresses written as 0x-prefixed
40-hex-character strings:

	addr, err := auth.NormalizeAddress("0xAbCd...")

Normalised addresses are lower case, so every map and table keyed by an
address sees one spelling.

# Caller Keys

Caller keys use HMAC-SHA256 over the normalised address:

	key := auth.GenerateCallerKey(addr, salt)
	err := auth.ValidateCallerKey(addr, key, salt)

The key is URL-safe base64 encoded without padding. It is deterministic, so
it can be validated without storing it and issued offline by chainelectctl.

# Passwords

Voter passwords are bcrypt hashed at registration:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, password)
*/
package auth
