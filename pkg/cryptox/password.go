package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters used for new hashes. Verification always uses the
// parameters embedded in the stored hash.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

// ErrInvalidHash reports a stored hash that is not a well-formed argon2id
// PHC string.
var ErrInvalidHash = errors.New("cryptox: invalid password hash")

// HashService hashes and verifies passwords. Each instance owns a random salt
// created at construction, so two instances never produce the same hash for
// the same password. Any instance can verify any hash because the salt and
// parameters travel inside the encoded string.
type HashService struct {
	salt   []byte
	pepper string
}

// Option configures a HashService.
type Option func(*HashService)

// WithPepper mixes a process-wide secret into every hash. All services that
// verify a hash must share the same pepper.
func WithPepper(pepper string) Option {
	return func(h *HashService) { h.pepper = pepper }
}

// NewHashService returns a HashService with a fresh random salt.
func NewHashService(opts ...Option) (*HashService, error) {
	salt, err := RandomBytes(saltLength)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate salt: %w", err)
	}

	h := &HashService{salt: salt}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// MustHashService is like NewHashService but panics if the system entropy
// source fails.
func MustHashService(opts ...Option) *HashService {
	h, err := NewHashService(opts...)
	if err != nil {
		panic(err)
	}
	return h
}

// Hash returns a PHC-format argon2id hash of password using the instance salt.
func (h *HashService) Hash(password string) (string, error) {
	if len(h.salt) == 0 {
		return "", errors.New("cryptox: hash service has no salt")
	}

	digest := argon2.IDKey(
		[]byte(password+h.pepper),
		h.salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify reports whether password matches the stored hash. A mismatch is
// (false, nil); an error is returned only when stored is malformed.
func (h *HashService) Verify(password, stored string) (bool, error) {
	p, err := decodeHash(stored)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password+h.pepper),
		p.salt,
		p.iterations,
		p.memory,
		p.parallelism,
		uint32(len(p.digest)), // #nosec G115 - digest length is bounded by the stored string
	)

	return subtle.ConstantTimeCompare(computed, p.digest) == 1, nil
}

type phc struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	digest      []byte
}

// decodeHash parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func decodeHash(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return phc{}, fmt.Errorf("%w: expected 6 parts", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return phc{}, fmt.Errorf("%w: not argon2id", ErrInvalidHash)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return phc{}, fmt.Errorf("%w: unsupported version", ErrInvalidHash)
	}

	var p phc
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return phc{}, fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}
	if p.memory == 0 || p.iterations == 0 || p.parallelism == 0 {
		return phc{}, fmt.Errorf("%w: zero parameter", ErrInvalidHash)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return phc{}, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	if p.digest, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.digest) == 0 {
		return phc{}, fmt.Errorf("%w: digest", ErrInvalidHash)
	}

	return p, nil
}
