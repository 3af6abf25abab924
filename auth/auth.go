// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCallerKey = errors.New("invalid caller key")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrWrongPassword    = errors.New("wrong password")
)

// MinPasswordLen is the shortest password accepted at registration
const MinPasswordLen = 8

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidAddress reports whether s is a 0x-prefixed 40 hex character address
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress validates an address and lower-cases it so that
// checksummed and plain spellings of one address compare equal
func NormalizeAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !ValidAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return strings.ToLower(s), nil
}

func mac(salt, msg string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(msg))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// GenerateCallerKey creates the operator key for an address.
// This is deterministic and verifiable without storage, so only holders of
// the salt can issue it.
func GenerateCallerKey(address, salt string) string {
	return mac(salt, strings.ToLower(address))
}

// ValidateCallerKey checks if the provided caller key is valid for the address
func ValidateCallerKey(address, callerKey, salt string) error {
	expected := GenerateCallerKey(address, salt)
	if !hmac.Equal([]byte(callerKey), []byte(expected)) {
		return ErrInvalidCallerKey
	}
	return nil
}

// NewKeySecret creates the random per-voter secret bound into voter keys
func NewKeySecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate key secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateVoterKey creates the key issued to a registered voter. It never
// equals the operator key for the same address.
func GenerateVoterKey(address, secret, salt string) string {
	return mac(salt, "voter:"+strings.ToLower(address)+":"+secret)
}

// ValidateVoterKey checks a voter key against the voter's stored secret
func ValidateVoterKey(address, secret, callerKey, salt string) error {
	if secret == "" {
		return ErrInvalidCallerKey
	}
	expected := GenerateVoterKey(address, secret, salt)
	if !hmac.Equal([]byte(callerKey), []byte(expected)) {
		return ErrInvalidCallerKey
	}
	return nil
}

// HashPassword bcrypt-hashes a voter password
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored bcrypt hash with a candidate password
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrWrongPassword
	}
	return err
}
