package wizard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidValue is returned when a submitted field value is not valid JSON.
var ErrInvalidValue = errors.New("field value is not valid JSON")

// Fields is the flat draft record: field name to raw JSON value.
type Fields map[string]json.RawMessage

// Value normalises v into a compact JSON value.
func Value(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return raw
}

func normalize(raw json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null"), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return buf.Bytes(), nil
}

// IsBlank reports whether raw counts as "not filled in": absent, null, a
// whitespace-only string, an empty list or an empty object.
func IsBlank(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	switch trimmed[0] {
	case 'n':
		return string(trimmed) == "null"
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return true
		}
		return strings.TrimSpace(s) == ""
	case '[':
		var xs []json.RawMessage
		return json.Unmarshal(trimmed, &xs) == nil && len(xs) == 0
	case '{':
		var m map[string]json.RawMessage
		return json.Unmarshal(trimmed, &m) == nil && len(m) == 0
	}
	return false
}

// Filled reports whether the named field holds a non-blank value.
func (f Fields) Filled(name string) bool {
	raw, ok := f[name]
	return ok && !IsBlank(raw)
}

// String returns the field as text. JSON strings are decoded, other values
// are returned in their JSON form.
func (f Fields) String(name string) string {
	raw, ok := f[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// Bool accepts JSON booleans and the strings "true"/"false".
func (f Fields) Bool(name string) bool {
	raw, ok := f[name]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(f.String(name)))
	return err == nil && parsed
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = bytes.Clone(v)
	}
	return out
}

// Decode maps the draft onto a typed struct via its json tags. Type
// mismatches come back as a ValidationError naming the offending field.
func Decode(f Fields, dst any) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &ValidationError{Fields: FieldErrors{
				typeErr.Field: fmt.Sprintf("must be a %s", typeErr.Type.Kind()),
			}}
		}
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}
