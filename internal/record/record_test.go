package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userSchema() Schema {
	return NewSchema(Int("id"), Str("name", 12), Int("balance"))
}

func TestEncode_Layout(t *testing.T) {
	s := userSchema()

	buf, err := Encode(s, []any{int64(1), "alice", -5})
	require.NoError(t, err)
	require.Len(t, buf, s.Len())

	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, buf[0:8])
	assert.Equal(t, []byte("alice\x00\x00\x00\x00\x00\x00\x00"), buf[8:20])
	assert.Equal(t, []byte{0xfb, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, buf[20:28])
}

func TestRecord_Decode(t *testing.T) {
	s := userSchema()
	buf, err := Encode(s, []any{int32(7), []byte("bob"), 1000})
	require.NoError(t, err)

	r := View(&s, buf)
	assert.Equal(t, s.Len(), r.Len())

	id, err := r.Int(0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	name, err := r.Str(1)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)

	vals, err := r.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), "bob", int64(1000)}, vals)

	raw, err := r.Field(1)
	require.NoError(t, err)
	assert.Len(t, raw, 12)
}

func TestRecord_FieldErrors(t *testing.T) {
	s := userSchema()
	r := View(&s, make([]byte, s.Len()))

	_, err := r.Field(3)
	require.ErrorIs(t, err, ErrFieldIndex)
	_, err = r.Field(-1)
	require.ErrorIs(t, err, ErrFieldIndex)

	_, err = r.Str(0)
	require.ErrorIs(t, err, ErrFieldKind)
	_, err = r.Int(1)
	require.ErrorIs(t, err, ErrFieldKind)
}

func TestRecord_CloneIsDetached(t *testing.T) {
	s := userSchema()
	buf, err := Encode(s, []any{1, "x", 2})
	require.NoError(t, err)

	view := View(&s, buf)
	kept := view.Clone()

	// reuse the underlying buffer, as a cursor does when it loads the next page
	clear(buf)

	id, err := view.Int(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)

	id, err = kept.Int(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestEncode_Errors(t *testing.T) {
	s := userSchema()

	_, err := Encode(s, []any{1, "x"})
	require.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = Encode(s, []any{"1", "x", 2})
	require.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = Encode(s, []any{1, 2, 2})
	require.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = Encode(s, []any{1, "this name is too long", 2})
	require.ErrorIs(t, err, ErrStringTooLong)

	require.ErrorIs(t, EncodeInto(s, make([]byte, 3), []any{1, "x", 2}), ErrBadBuffer)
}

func TestEncodeInto_ClearsPadding(t *testing.T) {
	s := NewSchema(Str("s", 6))
	dst := []byte("zzzzzz")

	require.NoError(t, EncodeInto(s, dst, []any{"ab"}))
	assert.Equal(t, []byte("ab\x00\x00\x00\x00"), dst)
}

func TestRecord_ZeroValue(t *testing.T) {
	var r Record
	assert.True(t, r.IsZero())
	assert.Equal(t, 0, r.Len())

	_, err := r.Int(0)
	require.ErrorIs(t, err, ErrFieldIndex)
	_, err = r.Str(0)
	require.ErrorIs(t, err, ErrFieldIndex)
	_, err = r.Field(0)
	require.ErrorIs(t, err, ErrFieldIndex)
	_, err = r.Values()
	require.ErrorIs(t, err, ErrFieldIndex)

	assert.True(t, r.Clone().IsZero())
}
