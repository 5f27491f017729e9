package surql

import (
	"fmt"
	"strings"
	"time"

	"github.com/CaliLuke/go-surreal/fieldenc"
)

// RelateBuilder assembles a RELATE statement joining two records through
// an edge table: RELATE from->edge->to. The edge body may come from
// individual fields, a plain value bag, or an entity bag that is run
// through a field encryption pipeline at build time.
type RelateBuilder struct {
	from     string
	to       string
	edge     string
	data     map[string]any
	entity   map[string]any
	encrypt  bool
	pipeline *fieldenc.Pipeline
	ret      ReturnMode
	timeout  Timeout
	parallel bool
}

// Relate creates an empty RELATE builder.
func Relate() *RelateBuilder {
	return &RelateBuilder{}
}

// From sets the source record of the edge.
func (b *RelateBuilder) From(record any) *RelateBuilder {
	b.from = targetString(record)
	return b
}

// To sets the destination record of the edge.
func (b *RelateBuilder) To(record any) *RelateBuilder {
	b.to = targetString(record)
	return b
}

// Via names the edge table the relation is written into.
func (b *RelateBuilder) Via(edge string) *RelateBuilder {
	b.edge = strings.TrimSpace(edge)
	return b
}

// With adds a single field to the edge body.
func (b *RelateBuilder) With(field string, value any) *RelateBuilder {
	if b.data == nil {
		b.data = make(map[string]any)
	}
	b.data[field] = value
	return b
}

// WithData copies a value bag into the edge body. The caller's map is
// never mutated.
func (b *RelateBuilder) WithData(data map[string]any) *RelateBuilder {
	if b.data == nil {
		b.data = make(map[string]any, len(data))
	}
	for k, v := range data {
		b.data[k] = v
	}
	return b
}

// WithEntity attaches an entity's value bag by reference. When encrypt
// is true, Build seals the configured fields before serializing and
// restores the reversible ones afterward; one-way hashed fields keep
// their hashes in the caller's bag, matching what was stored.
func (b *RelateBuilder) WithEntity(bag map[string]any, encrypt bool) *RelateBuilder {
	b.entity = bag
	b.encrypt = encrypt
	return b
}

// Encrypt supplies the pipeline used when an entity bag is attached with
// encryption enabled.
func (b *RelateBuilder) Encrypt(p *fieldenc.Pipeline) *RelateBuilder {
	b.pipeline = p
	return b
}

// Return selects which record state the statement returns. Unset, the
// statement returns the edge as written (RETURN AFTER).
func (b *RelateBuilder) Return(m ReturnMode) *RelateBuilder {
	b.ret = m
	return b
}

// Timeout bounds server-side execution time.
func (b *RelateBuilder) Timeout(d time.Duration) *RelateBuilder {
	b.timeout.Set(d)
	return b
}

// Parallel lets the server process the relation writes concurrently.
func (b *RelateBuilder) Parallel() *RelateBuilder {
	b.parallel = true
	return b
}

// Build renders the statement. Every endpoint and the edge table must be
// set before any serialization or encryption happens.
func (b *RelateBuilder) Build() (string, error) {
	if b.from == "" {
		return "", &MissingTargetError{Builder: "relate", Part: "from endpoint"}
	}
	if b.to == "" {
		return "", &MissingTargetError{Builder: "relate", Part: "to endpoint"}
	}
	if b.edge == "" {
		return "", &MissingTargetError{Builder: "relate", Part: "edge table"}
	}
	parts := []string{fmt.Sprintf("RELATE %s->%s->%s", b.from, b.edge, b.to)}
	body, err := b.renderBody()
	if err != nil {
		return "", err
	}
	if body != "" {
		parts = append(parts, "CONTENT "+body)
	}
	parts = append(parts, "RETURN "+b.ret.String())
	if s := b.timeout.Render(); s != "" {
		parts = append(parts, s)
	}
	if b.parallel {
		parts = append(parts, "PARALLEL")
	}
	return strings.Join(parts, " "), nil
}

func (b *RelateBuilder) renderBody() (string, error) {
	switch {
	case b.entity != nil && b.data != nil:
		return "", &ConfigurationError{Builder: "relate", Message: "entity bag and field data are mutually exclusive"}
	case b.entity != nil:
		if !b.encrypt {
			return marshalContent(b.entity)
		}
		if b.pipeline == nil {
			return "", &ConfigurationError{Builder: "relate", Message: "encryption requested without a pipeline"}
		}
		var body string
		err := b.pipeline.RoundTrip(b.entity, func(sealed map[string]any) error {
			s, err := marshalContent(sealed)
			body = s
			return err
		})
		return body, err
	case b.data != nil:
		return marshalContent(b.data)
	default:
		return "", nil
	}
}
