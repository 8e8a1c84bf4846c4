package record

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tuannm99/pagestore/internal/alias/bx"
)

var (
	ErrSchemaMismatch = errors.New("record: schema/values mismatch")
	ErrFieldIndex     = errors.New("record: field index out of range")
	ErrFieldKind      = errors.New("record: wrong field kind")
	ErrStringTooLong  = errors.New("record: string exceeds field size")
	ErrBadBuffer      = errors.New("record: buffer length does not match schema")
)

// Record is a read-only view over one record slot of a loaded page.
// The zero Record has no fields: every accessor returns ErrFieldIndex.
//
// The bytes belong to the page buffer of whoever produced the view. When the
// view comes from a Cursor it is valid only until the cursor's next call to
// Next; use Clone to keep a record beyond that.
type Record struct {
	buf    []byte
	schema *Schema
}

// View wraps buf, which must be exactly schema.Len() bytes.
func View(schema *Schema, buf []byte) Record {
	return Record{buf: buf, schema: schema}
}

func (r Record) Schema() *Schema { return r.schema }

// IsZero reports whether r is the zero Record, which views no slot.
func (r Record) IsZero() bool { return r.schema == nil }

func (r Record) Len() int { return len(r.buf) }

// Bytes returns the raw record bytes. The slice aliases the page buffer.
func (r Record) Bytes() []byte { return r.buf }

// Clone copies the record so it no longer depends on the page buffer.
func (r Record) Clone() Record {
	return Record{buf: bytes.Clone(r.buf), schema: r.schema}
}

// Field returns the raw bytes of field i.
func (r Record) Field(i int) ([]byte, error) {
	if r.schema == nil || i < 0 || i >= r.schema.NumFields() {
		return nil, fmt.Errorf("%w: %d", ErrFieldIndex, i)
	}
	off := r.schema.Offset(i)
	return r.buf[off : off+r.schema.Fields[i].Len()], nil
}

func (r Record) Int(i int) (int64, error) {
	b, err := r.field(i, KindInt)
	if err != nil {
		return 0, err
	}
	return bx.I64(b), nil
}

// Str returns string field i with its NUL padding removed.
func (r Record) Str(i int) (string, error) {
	b, err := r.field(i, KindStr)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

// Values decodes every field: int64 for KindInt, string for KindStr.
func (r Record) Values() ([]any, error) {
	if r.schema == nil {
		return nil, fmt.Errorf("%w: zero record has no fields", ErrFieldIndex)
	}
	out := make([]any, r.schema.NumFields())
	for i, f := range r.schema.Fields {
		var err error
		switch f.Kind {
		case KindInt:
			out[i], err = r.Int(i)
		case KindStr:
			out[i], err = r.Str(i)
		default:
			err = fmt.Errorf("%w: field %d has kind %s", ErrFieldKind, i, f.Kind)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r Record) field(i int, kind FieldKind) ([]byte, error) {
	b, err := r.Field(i)
	if err != nil {
		return nil, err
	}
	if got := r.schema.Fields[i].Kind; got != kind {
		return nil, fmt.Errorf("%w: field %d is %s, not %s", ErrFieldKind, i, got, kind)
	}
	return b, nil
}
