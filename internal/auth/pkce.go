// Package auth implements the PKCE login flow against the Spotify accounts
// service: verifier/challenge generation, the authorization redirect, and the
// single-use token exchange.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierLength is the length of generated PKCE code verifiers.
const verifierLength = 64

// verifierAlphabet is the URL-safe alphabet verifiers are drawn from.
const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateVerifier returns a new PKCE code verifier: 64 characters drawn
// uniformly from the URL-safe alphanumeric alphabet. Failure of the random
// source is fatal to the login attempt; there is no fallback.
func GenerateVerifier() (string, error) {
	// Rejection sampling keeps the draw uniform: 256 is not a multiple of
	// 62, so a plain modulo would bias toward the start of the alphabet.
	const limit = 248 // largest multiple of len(verifierAlphabet) below 256

	out := make([]byte, 0, verifierLength)
	buf := make([]byte, verifierLength)
	for len(out) < verifierLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, verifierAlphabet[int(b)%len(verifierAlphabet)])
			if len(out) == verifierLength {
				break
			}
		}
	}
	return string(out), nil
}

// ChallengeS256 derives the PKCE code challenge from a verifier: the
// unpadded base64url encoding of the verifier's SHA-256 digest.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
