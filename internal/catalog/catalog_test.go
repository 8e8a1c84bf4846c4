package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	locking "github.com/tuannm99/pagestore/internal/lock"
	"github.com/tuannm99/pagestore/internal/storage"
)

func newTestCatalog(t *testing.T, opts ...Option) *Catalog {
	t.Helper()

	c, err := New(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.CloseAll() })
	return c
}

func filledPage(b byte) *storage.Page {
	var p storage.Page
	for i := range p {
		p[i] = b
	}
	return &p
}

func TestCatalog_OpenCreatesLayout(t *testing.T) {
	c := newTestCatalog(t)

	pf, err := c.Open("db", "tbl")
	require.NoError(t, err)
	assert.NotZero(t, pf.ID())
	assert.Equal(t, filepath.Join(c.Base(), "db", "tbl"), pf.Path())

	info, err := os.Stat(pf.Path())
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, int64(0), info.Size())
}

func TestCatalog_OpenTwiceSharesFile(t *testing.T) {
	c := newTestCatalog(t)

	a, err := c.Open("db", "tbl")
	require.NoError(t, err)
	b, err := c.Open("db", "tbl")
	require.NoError(t, err)

	require.Same(t, a, b)
	assert.Equal(t, a.ID(), b.ID())
	assert.Equal(t, int32(2), a.Handles())

	// writes through one handle are visible through the other
	require.NoError(t, a.WritePage(1, filledPage(0x33)))
	var got storage.Page
	require.NoError(t, b.ReadPage(1, &got))
	assert.Equal(t, *filledPage(0x33), got)

	got2, ok := c.Get(a.ID())
	require.True(t, ok)
	require.Same(t, a, got2)

	got3, ok := c.Lookup("db", "tbl")
	require.True(t, ok)
	require.Same(t, a, got3)
	assert.Equal(t, int32(4), a.Handles())
}

func TestCatalog_LookupAndGetTakeHandles(t *testing.T) {
	c := newTestCatalog(t)

	pf, err := c.Open("db", "tbl")
	require.NoError(t, err)
	last, err := pf.Release()
	require.NoError(t, err)
	assert.True(t, last)

	found, ok := c.Lookup("db", "tbl")
	require.True(t, ok)
	assert.Equal(t, int32(1), found.Handles())
	last, err = found.Release()
	require.NoError(t, err)
	assert.True(t, last)

	byID, ok := c.Get(pf.ID())
	require.True(t, ok)
	_, err = byID.Release()
	require.NoError(t, err)

	// an unmatched release is reported, not a crash
	_, err = pf.Release()
	require.ErrorIs(t, err, locking.ErrUnderflow)
	assert.Equal(t, int32(0), pf.Handles())

	// the table stays registered and usable
	require.NoError(t, pf.WritePage(0, filledPage(0x11)))
	require.NoError(t, c.Close("db", "tbl"))
}

func TestCatalog_TablesAreIsolated(t *testing.T) {
	c := newTestCatalog(t)

	a, err := c.Open("db", "a")
	require.NoError(t, err)
	b, err := c.Open("db", "b")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())

	require.NoError(t, a.WritePage(2, filledPage(0xaa)))
	require.NoError(t, b.WritePage(2, filledPage(0xbb)))

	var buf storage.Page
	require.NoError(t, a.ReadPage(2, &buf))
	assert.Equal(t, *filledPage(0xaa), buf)
	require.NoError(t, b.ReadPage(2, &buf))
	assert.Equal(t, *filledPage(0xbb), buf)
}

func TestCatalog_SameTableNameInDifferentDatabases(t *testing.T) {
	c := newTestCatalog(t)

	a, err := c.Open("one", "tbl")
	require.NoError(t, err)
	b, err := c.Open("two", "tbl")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.NotEqual(t, a.Path(), b.Path())
	assert.Equal(t, []TableID{{"one", "tbl"}, {"two", "tbl"}}, c.Tables())
}

func TestCatalog_IDCollisionRedraws(t *testing.T) {
	ids := []uint64{7, 0, 7, 7, 9}
	next := func() uint64 {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	core, logs := observer.New(zap.WarnLevel)
	c := newTestCatalog(t, withIDSource(next), WithLogger(zap.New(core)))

	a, err := c.Open("db", "a")
	require.NoError(t, err)
	b, err := c.Open("db", "b")
	require.NoError(t, err)

	assert.Equal(t, uint64(7), a.ID())
	assert.Equal(t, uint64(9), b.ID())
	assert.Equal(t, 2, logs.FilterMessage("table id collision, drawing again").Len())
}

func TestCatalog_InvalidNames(t *testing.T) {
	c := newTestCatalog(t)

	for _, pair := range [][2]string{
		{"", "tbl"},
		{"db", ""},
		{"..", "tbl"},
		{"db", "a/b"},
		{`db\x`, "tbl"},
	} {
		_, err := c.Open(pair[0], pair[1])
		require.ErrorIs(t, err, ErrInvalidName, "%q", pair)
	}
}

func TestCatalog_OpenFailsOnBadBase(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, storage.FileMode0644))

	c, err := New(blocker)
	require.NoError(t, err)

	_, err = c.Open("db", "tbl")
	require.ErrorIs(t, err, storage.ErrIO)
	assert.Empty(t, c.Tables())
}

func TestCatalog_CloseInvalidatesAndReopens(t *testing.T) {
	c := newTestCatalog(t)

	old, err := c.Open("db", "tbl")
	require.NoError(t, err)
	require.NoError(t, old.WritePage(0, filledPage(0x44)))

	require.NoError(t, c.Close("db", "tbl"))

	var buf storage.Page
	require.ErrorIs(t, old.ReadPage(0, &buf), storage.ErrClosed)
	_, ok := c.Get(old.ID())
	assert.False(t, ok)
	_, ok = c.Lookup("db", "tbl")
	assert.False(t, ok)

	require.ErrorIs(t, c.Close("db", "tbl"), ErrNotOpen)

	fresh, err := c.Open("db", "tbl")
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, int32(1), fresh.Handles())

	// data written before close is still on disk
	require.NoError(t, fresh.ReadPage(0, &buf))
	assert.Equal(t, *filledPage(0x44), buf)
}

func TestCatalog_CloseAll(t *testing.T) {
	c := newTestCatalog(t)

	var files []*storage.PageFile
	for _, name := range []string{"a", "b", "c"} {
		pf, err := c.Open("db", name)
		require.NoError(t, err)
		files = append(files, pf)
	}

	require.NoError(t, c.CloseAll())
	assert.Empty(t, c.Tables())

	var buf storage.Page
	for _, pf := range files {
		require.ErrorIs(t, pf.ReadPage(0, &buf), storage.ErrClosed)
	}
}

func TestCatalog_LogsOpenAndClose(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := newTestCatalog(t, WithLogger(zap.New(core)))

	_, err := c.Open("db", "tbl")
	require.NoError(t, err)
	_, err = c.Open("db", "tbl")
	require.NoError(t, err)
	require.NoError(t, c.Close("db", "tbl"))

	assert.Equal(t, 1, logs.FilterMessage("table opened").Len())
	closed := logs.FilterMessage("table closed").All()
	require.Len(t, closed, 1)
	assert.Equal(t, int32(2), closed[0].ContextMap()["live_handles"])
}
