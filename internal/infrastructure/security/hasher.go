package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/peliculas/catalog-api/internal/core/domain"
	"github.com/peliculas/catalog-api/internal/core/ports"
)

// Supported values for the PASSWORD_HASH setting.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

var ErrMalformedDigest = errors.New("malformed password digest")

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Bounds on argon2id parameters read back from a stored digest.
const (
	maxArgon2Memory = 1 << 20 // KiB
	maxArgon2Time   = 16
	maxArgon2KeyLen = 128
)

// NewHasher returns the CredentialHasher for algorithm.
func NewHasher(algorithm string, bcryptCost int) (ports.CredentialHasher, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		return NewBcryptHasher(bcryptCost), nil
	case AlgorithmArgon2id:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}
}

// BcryptHasher hashes passwords with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into bcrypt's accepted range; zero selects
// bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash rejects passwords longer than MaxPasswordBytes with
// domain.ErrInvalidInput so callers can answer 400.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, MaxPasswordBytes)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
}

// Argon2Hasher hashes passwords with argon2id and encodes the result in the
// PHC string format.
type Argon2Hasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

// NewArgon2Hasher returns a hasher with the RFC 9106 second recommended
// parameter set.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{time: 3, memory: 64 * 1024, threads: 4, keyLen: 32, saltLen: 16}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(password, digest string) (bool, error) {
	// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrMalformedDigest
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, ErrMalformedDigest
	}
	if threads == 0 || iterations == 0 || iterations > maxArgon2Time ||
		memory < 8*uint32(threads) || memory > maxArgon2Memory {
		return false, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrMalformedDigest
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxArgon2KeyLen {
		return false, ErrMalformedDigest
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// TimedHasher records hash and verify durations.
type TimedHasher struct {
	next     ports.CredentialHasher
	observer prometheus.ObserverVec
}

// NewTimedHasher wraps next; observer is labelled by operation ("hash" or "verify").
func NewTimedHasher(next ports.CredentialHasher, observer prometheus.ObserverVec) *TimedHasher {
	return &TimedHasher{next: next, observer: observer}
}

func (h *TimedHasher) Hash(password string) (string, error) {
	defer h.observe("hash", time.Now())
	return h.next.Hash(password)
}

func (h *TimedHasher) Verify(password, digest string) (bool, error) {
	defer h.observe("verify", time.Now())
	return h.next.Verify(password, digest)
}

func (h *TimedHasher) observe(op string, start time.Time) {
	h.observer.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
