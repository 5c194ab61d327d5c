package user

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher defines minimal hashing interface.
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
}

// NewHasher returns the hasher for a PASSWORD_SCHEME value.
func NewHasher(scheme string) (PasswordHasher, error) {
	switch scheme {
	case "", "argon2id":
		return DefaultArgon2idHasher(), nil
	case "bcrypt":
		return BcryptHasher{Cost: 12}, nil
	case "plain":
		return PlainHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// Argon2idHasher stores PHC-style strings: $argon2id$v=19$m=..,t=..,p=..$salt$key
type Argon2idHasher struct {
	Time        uint32
	MemoryKiB   uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     int
}

func DefaultArgon2idHasher() Argon2idHasher {
	return Argon2idHasher{Time: 1, MemoryKiB: 64 * 1024, Parallelism: 4, KeyLen: 32, SaltLen: 16}
}

func (a Argon2idHasher) Hash(pw string) (string, string, error) {
	salt := make([]byte, a.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}
	key := argon2.IDKey([]byte(pw), salt, a.Time, a.MemoryKiB, a.Parallelism, a.KeyLen)
	enc := base64.RawStdEncoding
	h := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.MemoryKiB, a.Time, a.Parallelism, enc.EncodeToString(salt), enc.EncodeToString(key))
	return h, "argon2id", nil
}

func (a Argon2idHasher) Verify(hash, pw string) bool {
	parts := strings.Split(hash, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var mem, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &t, &p); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(pw), salt, t, mem, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// BcryptHasher implementation. bcrypt rejects passwords over 72 bytes,
// so Hash fails for the upper part of the accepted password range.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", cost), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// PlainHasher keeps the password as-is. Legacy tables only.
type PlainHasher struct{}

func (PlainHasher) Hash(pw string) (string, string, error) { return pw, "plain", nil }

func (PlainHasher) Verify(hash, pw string) bool { return ConstantTimeCompare(hash, pw) }

// ConstantTimeCompare reports whether a and b are equal without leaking timing.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
