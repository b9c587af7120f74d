// Package auth provides password hashing, bearer tokens and the
// request-scoped identity of the authenticated user.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidHash is returned for a stored hash that cannot be parsed.
	ErrInvalidHash = errors.New("invalid hash format")
	// ErrIncompatibleVersion is returned for an argon2 version other than 0x13.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// argonParams are the tunables encoded into every Argon2id PHC string.
type argonParams struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
	keyLen  uint32
	saltLen uint32
}

// defaultParams follow the OWASP Argon2id minimums.
var defaultParams = argonParams{memory: 64 * 1024, time: 3, threads: 4, keyLen: 32, saltLen: 16}

var b64 = base64.RawStdEncoding

// phc renders $argon2id$v=19$m=..,t=..,p=..$salt$key.
func (p argonParams) phc(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads, b64.EncodeToString(salt), b64.EncodeToString(key))
}

func (p argonParams) weakerThan(q argonParams) bool {
	return p.memory < q.memory || p.time < q.time || p.keyLen < q.keyLen
}

// parsePHC splits an Argon2id PHC string into its parameters, salt and key.
func parsePHC(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	p.saltLen, p.keyLen = uint32(len(salt)), uint32(len(key))
	return p, salt, key, nil
}

// HashPassword returns an Argon2id PHC string with a fresh random salt.
func HashPassword(password string) (string, error) {
	p := defaultParams
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return p.phc(salt, argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)), nil
}

// VerifyPassword checks password against a stored hash. Argon2id PHC strings
// and bcrypt hashes imported from the previous backend are both accepted. A
// wrong password is (false, nil), a malformed hash is an error.
func VerifyPassword(password, encodedHash string) (bool, error) {
	if isBcryptHash(encodedHash) {
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, ErrInvalidHash
		}
	}

	p, salt, want, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// NeedsRehash reports whether a hash that just verified should be replaced:
// bcrypt imports and Argon2id hashes made with weaker parameters.
func NeedsRehash(encodedHash string) bool {
	if isBcryptHash(encodedHash) {
		return true
	}
	p, _, _, err := parsePHC(encodedHash)
	return err == nil && p.weakerThan(defaultParams)
}

func isBcryptHash(h string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(h, prefix) {
			return true
		}
	}
	return false
}
