package fieldenc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed values travel as enc:v1:<algo>:<base64(nonce || ciphertext)>.
// The marker lets DecryptFields tell protected values from plain ones,
// and the algorithm tag lets a pipeline reverse values sealed by an
// older configuration.
const (
	sealedMarker  = "enc:"
	sealedVersion = "v1"
	keySize       = 32
)

// IsSealed reports whether a stored value carries the encryption marker.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, sealedMarker)
}

func newAEAD(algo Algorithm, key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("%s key must be %d bytes, got %d", algo, keySize, len(key)),
		}
	}
	switch algo {
	case AESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case XChaCha20:
		return chacha20poly1305.NewX(key)
	default:
		return nil, &ConfigurationError{Message: algo.String() + " is not a reversible algorithm"}
	}
}

func seal(aead cipher.AEAD, algo Algorithm, plaintext string) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("fieldenc: reading nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedMarker + sealedVersion + ":" + algo.String() + ":" +
		base64.StdEncoding.EncodeToString(sealed), nil
}

// open reverses a sealed value. The caller supplies the AEADs it holds
// keys for; the algorithm tag in the value selects among them.
func open(aeads map[Algorithm]cipher.AEAD, v string) (string, error) {
	parts := strings.SplitN(v, ":", 4)
	if len(parts) != 4 || parts[0]+":" != sealedMarker {
		return "", errors.New("malformed sealed value")
	}
	if parts[1] != sealedVersion {
		return "", fmt.Errorf("unsupported sealed version %q", parts[1])
	}
	algo, err := ParseAlgorithm(parts[2])
	if err != nil {
		return "", err
	}
	aead, ok := aeads[algo]
	if !ok {
		return "", fmt.Errorf("no key configured for %s", algo)
	}
	raw, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return "", fmt.Errorf("decoding payload: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("sealed payload truncated")
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("opening ciphertext: %w", err)
	}
	return string(plaintext), nil
}
