package heap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tuannm99/pagestore/internal/record"
	"github.com/tuannm99/pagestore/internal/storage"
)

var (
	// ErrEndOfData reports a page number past the last occupied page.
	// Scans treat it as normal termination.
	ErrEndOfData = errors.New("heap: end of data")

	// ErrInvariantViolation means the occupancy record claims a page the
	// table file cannot supply. It indicates a bookkeeping bug, not bad I/O.
	ErrInvariantViolation = errors.New("heap: occupancy out of sync with table file")

	ErrSparseWrite = errors.New("heap: write would leave a gap in occupied pages")
	ErrBadSlot     = errors.New("heap: slot out of range")
)

// Tracker pairs a PageFile with the record of which pages hold data and how
// many record slots each one uses. Occupied pages are always dense from 0:
// the first page without an entry is the end of the table.
//
// The occupancy slice has its own mutex, which is never held across a call
// into the PageFile, so the table file lock stays the only lock held during I/O.
type Tracker struct {
	pf *storage.PageFile

	mu       sync.RWMutex
	occupied []int
}

// NewTracker uses occupied[n] as the slot count of page n.
func NewTracker(pf *storage.PageFile, occupied []int) *Tracker {
	return &Tracker{
		pf:       pf,
		occupied: append([]int(nil), occupied...),
	}
}

// LoadTracker rebuilds occupancy for a table holding records records of
// schema, packed from page 0 the way Writer packs them: every page full
// except possibly the last. Whole pages in the file past those records are
// left unoccupied. The record count is not stored in the file; callers keep
// it, for example from Records.
func LoadTracker(pf *storage.PageFile, schema record.Schema, records int) (*Tracker, error) {
	perPage := schema.SlotsPerPage()
	if perPage == 0 {
		return nil, fmt.Errorf("%w: record length %d", ErrRecordTooLarge, schema.Len())
	}
	if records < 0 {
		return nil, fmt.Errorf("%w: negative record count %d", ErrBadSlot, records)
	}

	pages := (records + perPage - 1) / perPage
	count, err := pf.PageCount()
	if err != nil {
		return nil, err
	}
	if pages > count {
		return nil, fmt.Errorf("%w: %d records need %d pages, file has %d",
			ErrInvariantViolation, records, pages, count)
	}

	occupied := make([]int, pages)
	for i := range occupied {
		occupied[i] = perPage
	}
	if pages > 0 {
		occupied[pages-1] = records - (pages-1)*perPage
	}
	return &Tracker{pf: pf, occupied: occupied}, nil
}

func (t *Tracker) File() *storage.PageFile { return t.pf }

func (t *Tracker) PageCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.occupied)
}

// Records is the total slot count over all occupied pages.
func (t *Tracker) Records() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, n := range t.occupied {
		total += n
	}
	return total
}

// Occupancy returns the slot count of page n, if page n is occupied.
func (t *Tracker) Occupancy(n int) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n < 0 || n >= len(t.occupied) {
		return 0, false
	}
	return t.occupied[n], true
}

// ReadPage loads page n into buf and returns its slot count. For a page with
// no occupancy entry it returns ErrEndOfData without touching the file.
func (t *Tracker) ReadPage(n int, buf *storage.Page) (int, error) {
	slots, ok := t.Occupancy(n)
	if !ok {
		return 0, ErrEndOfData
	}

	if err := t.pf.ReadPage(n, buf); err != nil {
		if errors.Is(err, storage.ErrShortPage) {
			return 0, fmt.Errorf("%w: page %d: %w", ErrInvariantViolation, n, err)
		}
		return 0, err
	}
	return slots, nil
}

// WritePage writes page n and records it as holding slots records. n may
// overwrite an occupied page or extend the table by exactly one page.
// The page hits the file before it becomes visible to readers.
func (t *Tracker) WritePage(n int, buf *storage.Page, slots int) error {
	if count := t.PageCount(); n > count {
		return fmt.Errorf("%w: page %d, table has %d pages", ErrSparseWrite, n, count)
	}

	if err := t.pf.WritePage(n, buf); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case n < len(t.occupied):
		t.occupied[n] = slots
	case n == len(t.occupied):
		t.occupied = append(t.occupied, slots)
	default:
		// occupancy only grows, so a page that passed the check above cannot be ahead now
		return fmt.Errorf("%w: page %d written past %d tracked pages", ErrInvariantViolation, n, len(t.occupied))
	}
	return nil
}

// Get reads the record at id into buf and returns a view over buf.
func (t *Tracker) Get(id TID, schema *record.Schema, buf *storage.Page) (record.Record, error) {
	slots, err := t.ReadPage(id.PageID, buf)
	if err != nil {
		return record.Record{}, err
	}

	hp := NewHeapPage(buf, schema)
	if id.Slot < 0 || id.Slot >= min(slots, hp.Capacity()) {
		return record.Record{}, fmt.Errorf("%w: %s", ErrBadSlot, id)
	}
	return hp.RecordAt(id.Slot), nil
}

// Cursor starts a fresh forward scan from page 0.
func (t *Tracker) Cursor(schema record.Schema) *Cursor {
	return newCursor(t, schema)
}

// Scan calls fn for every record in page order. The record passed to fn is
// only valid during the call.
func (t *Tracker) Scan(schema record.Schema, fn func(id TID, r record.Record) error) error {
	c := t.Cursor(schema)
	for c.Next() {
		if err := fn(c.TID(), c.Record()); err != nil {
			return err
		}
	}
	return c.Err()
}
