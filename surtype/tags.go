// Package surtype provides parsing and representation of 'surreal'
// struct tags.
package surtype

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CaliLuke/go-surreal/fieldenc"
)

// FieldTag contains the structured representation of a parsed `surreal`
// struct tag.
type FieldTag struct {
	// Name is the record field name.
	Name string
	// Key marks the field whose value becomes the record id.
	Key bool
	// Crypt is the field transform applied at the serialization
	// boundary. Meaningful only when HasCrypt is set.
	Crypt fieldenc.Algorithm
	// HasCrypt reports whether a crypt= option was present.
	HasCrypt bool
	// Strength tunes the crypt algorithm; 0 means the algorithm default.
	Strength int
	// TableName provides an explicit override for the table name.
	TableName string
	// Skip indicates the field should be ignored by the mapper.
	Skip bool
}

// ParseTag parses the content of a `surreal` struct tag into a FieldTag.
// It supports the key marker, crypt options (crypt=algo, strength=N),
// and table name overrides (table:name).
func ParseTag(tag string) (FieldTag, error) {
	if tag == "" || tag == "-" {
		return FieldTag{Skip: tag == "-"}, nil
	}

	parts := strings.Split(tag, ",")
	ft := FieldTag{}

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if i == 0 && !strings.Contains(part, "=") && !strings.Contains(part, ":") &&
			part != "key" && part != "-" {
			ft.Name = part
			continue
		}

		switch {
		case part == "key":
			ft.Key = true
		case part == "-":
			ft.Skip = true
		case strings.HasPrefix(part, "table:"):
			ft.TableName = strings.TrimPrefix(part, "table:")
		case strings.HasPrefix(part, "crypt="):
			name := strings.TrimPrefix(part, "crypt=")
			algo, err := fieldenc.ParseAlgorithm(name)
			if err != nil {
				return FieldTag{}, fmt.Errorf("invalid crypt option %q: %w", name, err)
			}
			ft.Crypt = algo
			ft.HasCrypt = true
		case strings.HasPrefix(part, "strength="):
			raw := strings.TrimPrefix(part, "strength=")
			n, err := strconv.Atoi(raw)
			if err != nil {
				return FieldTag{}, fmt.Errorf("invalid strength %q: %w", raw, err)
			}
			ft.Strength = n
		default:
			if i == 0 {
				ft.Name = part
			} else {
				return FieldTag{}, fmt.Errorf("unknown tag option: %q", part)
			}
		}
	}

	return ft, nil
}
