package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// ArgonParams are the Argon2id cost parameters written into each PHC string.
type ArgonParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgonParams follow the OWASP recommendation for Argon2id.
var DefaultArgonParams = ArgonParams{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

// PasswordHasher hashes passwords with the configured algorithm and verifies
// hashes produced by any supported algorithm. It is safe for concurrent use.
type PasswordHasher struct {
	algorithm  string
	bcryptCost int
	argon      ArgonParams
	dummy      string
}

func NewPasswordHasher(algorithm string, bcryptCost int) (*PasswordHasher, error) {
	if algorithm == "" {
		algorithm = AlgorithmBcrypt
	}
	if algorithm != AlgorithmBcrypt && algorithm != AlgorithmArgon2id {
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	h := &PasswordHasher{algorithm: algorithm, bcryptCost: bcryptCost, argon: DefaultArgonParams}

	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := h.Hash(seed)
	if err != nil {
		return nil, err
	}
	h.dummy = dummy

	return h, nil
}

// Algorithm returns the algorithm new hashes are produced with.
func (h *PasswordHasher) Algorithm() string { return h.algorithm }

// Hash returns a self-describing encoding of password with a fresh random salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return h.hashArgon(password)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password exceeds 72 bytes", common.ErrMalformedCredential)
		}
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches encoded. Hashes in an unknown
// scheme never match; a recognised but corrupt hash yields
// common.ErrMalformedCredential.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	switch {
	case isBcrypt(encoded):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
			return false, nil
		default:
			return false, fmt.Errorf("%w: %w", common.ErrMalformedCredential, err)
		}
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon(password, encoded)
	default:
		return false, nil
	}
}

// VerifyDummy runs a verification against an internal hash so that a lookup
// miss costs as much as a password mismatch. It always returns false.
func (h *PasswordHasher) VerifyDummy(password string) bool {
	_, _ = h.Verify(password, h.dummy)
	return false
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func (h *PasswordHasher) hashArgon(password string) (string, error) {
	p := h.argon
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon(password, encoded string) (bool, error) {
	salt, key, p, err := decodePHC(encoded)
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrMalformedCredential, err)
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodePHC(encoded string) (salt, key []byte, p ArgonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, p, errors.New("invalid PHC format")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, p, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, p, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return nil, nil, p, fmt.Errorf("parsing parameters: %w", err)
	}
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return nil, nil, p, errors.New("zero argon2 parameter")
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, p, fmt.Errorf("decoding salt: %w", err)
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, p, fmt.Errorf("decoding hash: %w", err)
	}
	if len(key) == 0 {
		return nil, nil, p, errors.New("empty hash")
	}

	return salt, key, p, nil
}

// Character classes for generated passwords. Look-alike characters
// (0 O o 1 l I) are left out.
const (
	pwLower   = "abcdefghijkmnpqrstuvwxyz"
	pwUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	pwDigits  = "23456789"
	pwSpecial = "!@#$%^&*_"
)

// MinGeneratedPasswordLength is the shortest length GenerateSecurityPassword accepts.
const MinGeneratedPasswordLength = 4

// GenerateSecurityPassword returns a random password that is easy to type and
// holds at least one lower-case letter, upper-case letter, digit and special
// character.
func GenerateSecurityPassword(length int) (string, error) {
	if length < MinGeneratedPasswordLength {
		return "", fmt.Errorf("password length must be at least %d", MinGeneratedPasswordLength)
	}

	all := pwLower + pwUpper + pwDigits + pwSpecial
	out := make([]byte, 0, length)
	for _, set := range []string{pwLower, pwUpper, pwDigits, pwSpecial} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for i := len(out) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := randIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
