package record

import "github.com/tuannm99/pagestore/internal/storage"

type FieldKind uint8

const (
	KindInt FieldKind = iota + 1 // 8-byte little-endian int64
	KindStr                      // fixed N bytes, NUL padded
)

func (k FieldKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindStr:
		return "str"
	default:
		return "unknown"
	}
}

const IntSize = 8

type Field struct {
	Name string
	Kind FieldKind
	Size int // byte width of a KindStr field; ignored for KindInt
}

func Int(name string) Field { return Field{Name: name, Kind: KindInt} }

func Str(name string, n int) Field { return Field{Name: name, Kind: KindStr, Size: n} }

// Len is the number of bytes the field occupies in a record.
func (f Field) Len() int {
	if f.Kind == KindInt {
		return IntSize
	}
	return f.Size
}

// Schema is a fixed-length record layout. It is not stored with the data:
// whoever reads a table decides how its pages are sliced, and a schema that
// does not match the writer's simply yields meaningless bytes.
type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

func (s Schema) NumFields() int { return len(s.Fields) }

// Len is the total record length in bytes.
func (s Schema) Len() int {
	n := 0
	for _, f := range s.Fields {
		n += f.Len()
	}
	return n
}

// Offset returns the byte offset of field i inside a record.
func (s Schema) Offset(i int) int {
	off := 0
	for _, f := range s.Fields[:i] {
		off += f.Len()
	}
	return off
}

// SlotsPerPage is how many whole records fit in one page.
func (s Schema) SlotsPerPage() int {
	l := s.Len()
	if l <= 0 {
		return 0
	}
	return storage.PageSize / l
}
