// Package fieldenc transforms sensitive record fields at the
// serialization boundary.
//
// A Pipeline is configured with field descriptors naming the algorithm
// for each protected field. Reversible algorithms (AES-GCM and
// XChaCha20-Poly1305) seal a value into a marked, versioned ciphertext
// that DecryptFields can reverse. One-way algorithms (bcrypt and
// argon2id) replace the value with a salted hash that only Verify can
// check. All transforms work in place on a string-keyed value bag.
package fieldenc

import "fmt"

// Algorithm identifies a field transform scheme.
type Algorithm int

const (
	algoUnset Algorithm = iota
	AESGCM
	XChaCha20
	Bcrypt
	Argon2id
)

// Reversible reports whether ciphertext produced by the algorithm can be
// decrypted back to the original value.
func (a Algorithm) Reversible() bool {
	return a == AESGCM || a == XChaCha20
}

// OneWay reports whether the algorithm is a salted hash.
func (a Algorithm) OneWay() bool {
	return a == Bcrypt || a == Argon2id
}

func (a Algorithm) String() string {
	switch a {
	case AESGCM:
		return "aes-gcm"
	case XChaCha20:
		return "xchacha20"
	case Bcrypt:
		return "bcrypt"
	case Argon2id:
		return "argon2id"
	default:
		return "unset"
	}
}

// ParseAlgorithm maps an algorithm name, as used in struct tags, to its
// enum value.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "aes-gcm", "aesgcm", "aes":
		return AESGCM, nil
	case "xchacha20", "xchacha":
		return XChaCha20, nil
	case "bcrypt":
		return Bcrypt, nil
	case "argon2id", "argon2":
		return Argon2id, nil
	default:
		return algoUnset, fmt.Errorf("fieldenc: unknown algorithm %q", name)
	}
}
