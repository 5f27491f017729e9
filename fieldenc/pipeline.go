package fieldenc

import (
	"crypto/cipher"
	"fmt"
)

// FieldDescriptor names one protected field and how to transform it.
// Strength is the bcrypt cost or argon2id iteration count; zero means
// the algorithm default. Reversible algorithms take no strength.
type FieldDescriptor struct {
	Field    string
	Algo     Algorithm
	Strength int
}

// Pipeline applies the configured transforms to value bags in place.
// A pipeline is immutable after construction and safe for concurrent use.
type Pipeline struct {
	fields []FieldDescriptor
	aeads  map[Algorithm]cipher.AEAD
}

// NewPipeline validates every descriptor and resolves the keys the
// reversible algorithms need. Bad strengths and bad keys fail here, not
// on first use.
func NewPipeline(ring Keyring, fields ...FieldDescriptor) (*Pipeline, error) {
	p := &Pipeline{aeads: make(map[Algorithm]cipher.AEAD)}
	seen := make(map[string]bool, len(fields))
	for _, d := range fields {
		if d.Field == "" {
			return nil, &ConfigurationError{Message: "descriptor with empty field name"}
		}
		if seen[d.Field] {
			return nil, &ConfigurationError{Field: d.Field, Message: "declared twice"}
		}
		seen[d.Field] = true
		if !d.Algo.Reversible() && !d.Algo.OneWay() {
			return nil, &ConfigurationError{Field: d.Field, Message: "no algorithm set"}
		}
		if err := validateStrength(d.Algo, d.Strength); err != nil {
			return nil, &ConfigurationError{Field: d.Field, Message: err.Error()}
		}
		if d.Algo.Reversible() {
			if _, ok := p.aeads[d.Algo]; !ok {
				if ring == nil {
					return nil, &ConfigurationError{Field: d.Field, Message: "reversible algorithm requires a keyring"}
				}
				key, err := ring.Key(d.Algo)
				if err != nil {
					return nil, err
				}
				aead, err := newAEAD(d.Algo, key)
				if err != nil {
					return nil, err
				}
				p.aeads[d.Algo] = aead
			}
		}
		p.fields = append(p.fields, d)
	}
	return p, nil
}

// Fields returns a copy of the configured descriptors.
func (p *Pipeline) Fields() []FieldDescriptor {
	return append([]FieldDescriptor(nil), p.fields...)
}

// Reversible reports whether the named field can be decrypted back.
func (p *Pipeline) Reversible(field string) bool {
	d, ok := p.descriptor(field)
	return ok && d.Algo.Reversible()
}

func (p *Pipeline) descriptor(field string) (FieldDescriptor, bool) {
	for _, d := range p.fields {
		if d.Field == field {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}

// EncryptFields transforms every configured field present in the bag, in
// place. Absent fields are skipped; values that already carry the sealed
// marker or a recognized hash shape are left alone, so a second pass is
// harmless. A non-string value under a configured field is an error.
func (p *Pipeline) EncryptFields(bag map[string]any) error {
	for _, d := range p.fields {
		raw, ok := bag[d.Field]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return &ConfigurationError{Field: d.Field, Message: fmt.Sprintf("value must be a string, got %T", raw)}
		}
		if d.Algo.Reversible() {
			if IsSealed(s) {
				continue
			}
			sealed, err := seal(p.aeads[d.Algo], d.Algo, s)
			if err != nil {
				return err
			}
			bag[d.Field] = sealed
			continue
		}
		if isHashed(s) {
			continue
		}
		hashed, err := hashValue(d.Algo, d.Strength, s)
		if err != nil {
			return fmt.Errorf("fieldenc: field %q: %w", d.Field, err)
		}
		bag[d.Field] = hashed
	}
	return nil
}

// DecryptFields reverses every sealed value under a reversible field, in
// place. Values without the marker pass through untouched, and one-way
// hashes are never reversed.
func (p *Pipeline) DecryptFields(bag map[string]any) error {
	for _, d := range p.fields {
		if !d.Algo.Reversible() {
			continue
		}
		raw, ok := bag[d.Field]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok || !IsSealed(s) {
			continue
		}
		plain, err := open(p.aeads, s)
		if err != nil {
			return &DecryptionError{Field: d.Field, Cause: err}
		}
		bag[d.Field] = plain
	}
	return nil
}

// Verify checks a candidate value against the stored hash of a one-way
// field. A mismatch returns (false, nil); only unreadable input is an
// error.
func (p *Pipeline) Verify(field, candidate, stored string) (bool, error) {
	d, ok := p.descriptor(field)
	if !ok {
		return false, &ConfigurationError{Field: field, Message: "not a configured field"}
	}
	if !d.Algo.OneWay() {
		return false, &ConfigurationError{Field: field, Message: "verify requires a one-way algorithm"}
	}
	match, err := verifyHash(d.Algo, candidate, stored)
	if err != nil {
		return false, &DecryptionError{Field: field, Cause: err}
	}
	return match, nil
}

// RoundTrip seals the bag in place, hands the sealed view to use, then
// restores the original values of reversible fields. One-way hashed
// fields keep their hashes, so the caller's record matches what was
// stored. The restore runs even when use fails.
func (p *Pipeline) RoundTrip(bag map[string]any, use func(map[string]any) error) error {
	snapshot := make(map[string]any)
	for _, d := range p.fields {
		if !d.Algo.Reversible() {
			continue
		}
		if v, ok := bag[d.Field]; ok {
			snapshot[d.Field] = v
		}
	}
	if err := p.EncryptFields(bag); err != nil {
		return err
	}
	err := use(bag)
	for f, v := range snapshot {
		bag[f] = v
	}
	return err
}
