package fieldenc

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

// Bcrypt strength is the cost parameter. Argon2id strength is the
// iteration count; memory and parallelism are fixed.
const (
	argonDefaultTime = 3
	argonMinTime     = 1
	argonMaxTime     = 10
	argonMemoryKiB   = 64 * 1024
	argonThreads     = 4
	argonSaltLen     = 16
	argonKeyLen      = 32
)

// isHashed reports whether a value already looks like a stored hash, so
// a second EncryptFields pass does not hash a hash.
func isHashed(v string) bool {
	return strings.HasPrefix(v, "$2a$") ||
		strings.HasPrefix(v, "$2b$") ||
		strings.HasPrefix(v, "$2y$") ||
		strings.HasPrefix(v, "$argon2id$")
}

func validateStrength(algo Algorithm, strength int) error {
	if strength == 0 {
		return nil
	}
	switch algo {
	case Bcrypt:
		if strength < bcrypt.MinCost || strength > bcrypt.MaxCost {
			return fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
				bcrypt.MinCost, bcrypt.MaxCost, strength)
		}
	case Argon2id:
		if strength < argonMinTime || strength > argonMaxTime {
			return fmt.Errorf("argon2id iterations must be between %d and %d, got %d",
				argonMinTime, argonMaxTime, strength)
		}
	default:
		return fmt.Errorf("strength does not apply to %s", algo)
	}
	return nil
}

func hashValue(algo Algorithm, strength int, plaintext string) (string, error) {
	switch algo {
	case Bcrypt:
		cost := strength
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		out, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case Argon2id:
		time := uint32(strength)
		if time == 0 {
			time = argonDefaultTime
		}
		salt := make([]byte, argonSaltLen)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("fieldenc: reading salt: %w", err)
		}
		key := argon2.IDKey([]byte(plaintext), salt, time, argonMemoryKiB, argonThreads, argonKeyLen)
		return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2.Version, argonMemoryKiB, time, argonThreads,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key)), nil
	default:
		return "", &ConfigurationError{Message: algo.String() + " is not a one-way algorithm"}
	}
}

// verifyHash checks a candidate value against a stored hash. A mismatch
// is (false, nil); an unreadable stored value is an error.
func verifyHash(algo Algorithm, plaintext, stored string) (bool, error) {
	switch algo {
	case Bcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	case Argon2id:
		time, memory, threads, salt, want, err := parseArgon2(stored)
		if err != nil {
			return false, err
		}
		got := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(want)))
		return subtle.ConstantTimeCompare(got, want) == 1, nil
	default:
		return false, &ConfigurationError{Message: algo.String() + " is not a one-way algorithm"}
	}
}

// parseArgon2 reads a $argon2id$v=..$m=..,t=..,p=..$salt$hash string.
func parseArgon2(stored string) (time, memory uint32, threads uint8, salt, hash []byte, err error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, errors.New("malformed argon2id hash")
	}
	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed argon2id version: %w", err)
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed argon2id parameters: %w", err)
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed argon2id salt: %w", err)
	}
	if hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("malformed argon2id hash: %w", err)
	}
	return time, memory, threads, salt, hash, nil
}
