package surql

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// EscapeString backslash-escapes the characters that would break out of a
// double-quoted SurrealQL string literal.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// FormatValue renders a Go value as a SurrealQL literal. Strings are
// double-quoted and escaped, record ids render bare, times render as
// datetime literals, and nil renders as NONE.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NONE"
	case Thing:
		return x.String()
	case *Thing:
		if x == nil {
			return "NONE"
		}
		return x.String()
	case string:
		return `"` + EscapeString(x) + `"`
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return "d'" + x.UTC().Format(time.RFC3339Nano) + "'"
	case time.Duration:
		return formatDuration(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "NONE"
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		if body, err := marshalContent(v); err == nil {
			return body
		}
	}
	return `"` + EscapeString(fmt.Sprintf("%v", v)) + `"`
}

// formatDuration renders a duration literal the way the server spells
// them: whole units from hours down to milliseconds, largest first.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	var b strings.Builder
	if h := d / time.Hour; h > 0 {
		fmt.Fprintf(&b, "%dh", h)
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		fmt.Fprintf(&b, "%dm", m)
		d -= m * time.Minute
	}
	if s := d / time.Second; s > 0 {
		fmt.Fprintf(&b, "%ds", s)
		d -= s * time.Second
	}
	if ms := d / time.Millisecond; ms > 0 {
		fmt.Fprintf(&b, "%dms", ms)
	}
	if b.Len() == 0 {
		return "0s"
	}
	return b.String()
}

// marshalContent serializes a value bag for a CONTENT or MERGE body.
// encoding/json writes map keys in sorted order, so rendered statements
// are deterministic.
func marshalContent(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("surql: encoding statement body: %w", err)
	}
	return string(raw), nil
}
