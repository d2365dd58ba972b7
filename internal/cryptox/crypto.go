// Package cryptox implements the one-way password digest carried in presence
// records. The client digests the configured password once and sends only the
// digest; the server digests the password presented on lookup and compares.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// saltDomain separates digest salts from any other use of the account name.
const saltDomain = "here/passwd/v1:"

// Argon2id cost for the presence digest. The server derives one key per
// password lookup, so memory is kept at 8 MiB on a single lane.
const (
	argonTime    = 1
	argonMemory  = 8 * 1024
	argonThreads = 1
	argonKeyLen  = 32
)

// DeriveKey stretches password with Argon2id. The output is 32 bytes.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// accountSalt derives a per-account salt. The digest has to be reproducible on
// both sides without any shared state, so the salt comes from the account.
func accountSalt(account string) []byte {
	sum := sha256.Sum256([]byte(saltDomain + account))
	return sum[:]
}

// PasswordDigest returns the hex encoded digest of password for account.
// Equal inputs always produce equal digests.
func PasswordDigest(account, password string) string {
	pw := []byte(password)
	key := DeriveKey(pw, accountSalt(account))
	defer Wipe(pw)
	defer Wipe(key)
	return hex.EncodeToString(key)
}

// Wipe overwrites b with zeros. A nil slice is left alone.
func Wipe(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// OptionalDigest digests password when it is set. A nil password stays nil,
// meaning "no password protection".
func OptionalDigest(account string, password *string) *string {
	if password == nil {
		return nil
	}
	d := PasswordDigest(account, *password)
	return &d
}

// VerifyPassword reports whether password matches digest for account. An empty
// digest never matches.
func VerifyPassword(account, password, digest string) bool {
	if digest == "" {
		return false
	}
	candidate := PasswordDigest(account, password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}
