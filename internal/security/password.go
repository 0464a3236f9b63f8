package security

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16

	// UserSaltBytes is the size of the per-user salt stored beside the hash.
	UserSaltBytes = 16
)

var ErrInvalidHash = errors.New("invalid password hash")

// PasswordHasher derives argon2id hashes over salt + password + pepper.
type PasswordHasher struct {
	pepper string
	time   uint32
	memory uint32
}

func NewPasswordHasher(pepper string) *PasswordHasher {
	return &PasswordHasher{pepper: pepper, time: argonTime, memory: argonMemory}
}

func (h *PasswordHasher) NewSalt() (string, error) {
	return RandomHex(UserSaltBytes)
}

// Hash returns a PHC-formatted argon2id string.
func (h *PasswordHasher) Hash(password, salt string) (string, error) {
	argonSalt, err := randomBytes(argonSaltLen)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(salt+password+h.pepper), argonSalt, h.time, h.memory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, argonThreads,
		base64.RawStdEncoding.EncodeToString(argonSalt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *PasswordHasher) Verify(encoded, password, salt string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}
	var (
		memory, iterations uint32
		threads            uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, ErrInvalidHash
	}
	argonSalt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, ErrInvalidHash
	}
	got := argon2.IDKey([]byte(salt+password+h.pepper), argonSalt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// NewPasswordHasherWithCost overrides the argon2 iteration count and memory (KiB).
func NewPasswordHasherWithCost(pepper string, iterations, memoryKB uint32) *PasswordHasher {
	return &PasswordHasher{pepper: pepper, time: iterations, memory: memoryKB}
}
