package record

import (
	"fmt"

	"github.com/tuannm99/pagestore/internal/alias/bx"
)

// Encode lays values out according to s.
// Ints are little-endian int64; strings are copied and NUL padded to the field size.
func Encode(s Schema, values []any) ([]byte, error) {
	out := make([]byte, s.Len())
	if err := EncodeInto(s, out, values); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeInto writes the record into dst, which must be exactly s.Len() bytes.
func EncodeInto(s Schema, dst []byte, values []any) error {
	if len(values) != s.NumFields() {
		return ErrSchemaMismatch
	}
	if len(dst) != s.Len() {
		return ErrBadBuffer
	}

	off := 0
	for i, f := range s.Fields {
		field := dst[off : off+f.Len()]
		off += f.Len()

		switch f.Kind {
		case KindInt:
			x, ok := asInt64(values[i])
			if !ok {
				return fmt.Errorf("%w: field %d (%s) wants an integer, got %T", ErrSchemaMismatch, i, f.Name, values[i])
			}
			bx.PutI64(field, x)

		case KindStr:
			b, ok := asBytes(values[i])
			if !ok {
				return fmt.Errorf("%w: field %d (%s) wants a string, got %T", ErrSchemaMismatch, i, f.Name, values[i])
			}
			if len(b) > len(field) {
				return fmt.Errorf("%w: field %d (%s) holds %d bytes, got %d", ErrStringTooLong, i, f.Name, len(field), len(b))
			}
			n := copy(field, b)
			clear(field[n:])

		default:
			return fmt.Errorf("%w: field %d has kind %s", ErrFieldKind, i, f.Kind)
		}
	}
	return nil
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	}
	return 0, false
}

func asBytes(v any) ([]byte, bool) {
	switch x := v.(type) {
	case string:
		return []byte(x), true
	case []byte:
		return x, true
	}
	return nil, false
}
