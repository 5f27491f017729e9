package fieldenc

// Keyring supplies the 32-byte symmetric keys used by the reversible
// algorithms. One-way hashes are keyless and never consult it.
type Keyring interface {
	Key(algo Algorithm) ([]byte, error)
}

// StaticKeyring is a fixed algorithm-to-key mapping.
type StaticKeyring map[Algorithm][]byte

// Key returns the key registered for the algorithm.
func (r StaticKeyring) Key(algo Algorithm) ([]byte, error) {
	key, ok := r[algo]
	if !ok {
		return nil, &ConfigurationError{Message: "no key registered for algorithm " + algo.String()}
	}
	return key, nil
}

// SingleKey builds a keyring that serves the same key to every
// reversible algorithm.
func SingleKey(key []byte) Keyring {
	return StaticKeyring{AESGCM: key, XChaCha20: key}
}
