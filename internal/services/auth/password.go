package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"

	"github.com/tavisham/lobbygate/internal/dependencies/random"
)

const (
	// SaltLength is the length of a freshly generated password salt.
	SaltLength = 10

	hashIterations = 10000
	hashKeyLength  = 32

	saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewSalt generates a fresh password salt.
func NewSalt(rng random.Random) string {
	return rng.String(SaltLength, saltAlphabet)
}

// HashPassword derives the stored hash for a password and salt. Clients
// derive the same hash locally, so the cleartext password never crosses
// the wire.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// Answer computes the expected response to a challenge: a keyed hash of
// the stored password hash over the challenge string.
func Answer(passwordHash, challenge string) string {
	mac := hmac.New(sha256.New, []byte(passwordHash))
	mac.Write([]byte(challenge))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAnswer checks a submitted challenge answer in constant time.
func VerifyAnswer(passwordHash, challenge, answer string) bool {
	expected := Answer(passwordHash, challenge)
	return hmac.Equal([]byte(expected), []byte(answer))
}
