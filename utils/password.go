package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// Password schemes recorded next to a stored secret. SchemeLegacy marks rows
// written before schemes were tracked; their format is inferred from shape.
const (
	SchemeLegacy = ""
	SchemePlain  = "plain"
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// Credential is a stored secret tagged with how it was produced.
type Credential struct {
	Scheme string
	Secret string
}

// HashPassword produces a bcrypt credential for a new password.
func HashPassword(password string) (Credential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credential{}, err
	}
	return Credential{Scheme: SchemeBcrypt, Secret: string(hash)}, nil
}

// HashSHA256 returns the lowercase hex SHA-256 digest of s.
func HashSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword checks input against a legacy stored value. A stored value
// of exactly 64 hex characters, in either case, is treated as a SHA-256
// digest and compared to the lowercase digest of input; anything else is
// compared as plaintext.
func VerifyPassword(input, stored string) bool {
	if isSHA256Hex(stored) {
		return equal(HashSHA256(input), stored)
	}
	return equal(input, stored)
}

// VerifyCredential checks input against c using the scheme c records.
func VerifyCredential(input string, c Credential) bool {
	switch c.Scheme {
	case SchemeLegacy:
		return VerifyPassword(input, c.Secret)
	case SchemePlain:
		return equal(input, c.Secret)
	case SchemeSHA256:
		return equal(HashSHA256(input), c.Secret)
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(c.Secret), []byte(input)) == nil
	default:
		return false
	}
}

func isSHA256Hex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
