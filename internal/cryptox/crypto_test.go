package cryptox

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-1"))
	key3 := DeriveKey(password, []byte("salt-2"))

	assert.Len(t, key1, 32)
	assert.True(t, bytes.Equal(key1, key2), "same inputs must give the same key")
	assert.False(t, bytes.Equal(key1, key3), "different salts must give different keys")
}

func TestPasswordDigest_MemoryBound(t *testing.T) {
	PasswordDigest("warm", "up")

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	PasswordDigest("bob", "wrong")
	runtime.ReadMemStats(&after)

	allocated := after.TotalAlloc - before.TotalAlloc
	assert.Less(t, allocated, uint64(16<<20), "one digest allocated %d bytes", allocated)
}

func TestPasswordDigest(t *testing.T) {
	d := PasswordDigest("bob", "secret")

	assert.NotEqual(t, "secret", d)
	assert.Len(t, d, 64)
	assert.Equal(t, d, PasswordDigest("bob", "secret"), "digest must be deterministic")
	assert.NotEqual(t, d, PasswordDigest("alice", "secret"), "digest is salted by account")
	assert.NotEqual(t, d, PasswordDigest("bob", "Secret"))
}

func TestOptionalDigest(t *testing.T) {
	assert.Nil(t, OptionalDigest("bob", nil))

	pw := "secret"
	d := OptionalDigest("bob", &pw)
	require.NotNil(t, d)
	assert.Equal(t, PasswordDigest("bob", "secret"), *d)
}

func TestVerifyPassword(t *testing.T) {
	digest := PasswordDigest("bob", "secret")

	tests := []struct {
		name     string
		account  string
		password string
		digest   string
		want     bool
	}{
		{"match", "bob", "secret", digest, true},
		{"wrong password", "bob", "wrong", digest, false},
		{"wrong account", "alice", "secret", digest, false},
		{"empty digest", "bob", "secret", "", false},
		{"plaintext stored", "bob", "secret", "secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPassword(tt.account, tt.password, tt.digest))
		})
	}
}

func TestWipe(t *testing.T) {
	b := []byte("hunter2")
	Wipe(b)
	assert.Equal(t, make([]byte, 7), b)

	assert.NotPanics(t, func() { Wipe(nil) })
}
