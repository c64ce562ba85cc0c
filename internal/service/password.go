package service

import (
	"strings"
	"sync"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// CheckPassword accepts argon2id hashes and legacy bcrypt hashes imported from the previous server.
func CheckPassword(password, hash string) (bool, error) {
	if isBcrypt(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return err == nil, err
	}
	return argon2id.ComparePasswordAndHash(password, hash)
}

// NeedsRehash reports whether a stored hash should be upgraded to argon2id after a successful login.
func NeedsRehash(hash string) bool {
	return isBcrypt(hash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// burnPasswordCheck spends the same work as a real comparison so unknown emails are not distinguishable by timing.
func burnPasswordCheck(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("inkbook-timing-equalizer")
	})
	if dummyHash != "" {
		_, _ = argon2id.ComparePasswordAndHash(password, dummyHash)
	}
}
