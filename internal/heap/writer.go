package heap

import (
	"errors"
	"fmt"

	"github.com/tuannm99/pagestore/internal/record"
	"github.com/tuannm99/pagestore/internal/storage"
)

var ErrRecordTooLarge = errors.New("heap: record does not fit in a page")

// Writer appends records to the end of a table, packing them into pages.
// A page is written through the Tracker when it fills up or on Flush, and
// only then becomes visible to cursors. A Writer is meant for one goroutine.
type Writer struct {
	tracker *Tracker
	schema  record.Schema
	page    storage.Page

	pageNum int
	slots   int
}

// NewWriter positions a writer after the last record of the table. If the last
// occupied page still has free slots, writing resumes inside it.
func NewWriter(t *Tracker, schema record.Schema) (*Writer, error) {
	capacity := schema.SlotsPerPage()
	if capacity == 0 {
		return nil, fmt.Errorf("%w: record length %d", ErrRecordTooLarge, schema.Len())
	}

	w := &Writer{tracker: t, schema: schema, pageNum: t.PageCount()}

	last := w.pageNum - 1
	if slots, ok := t.Occupancy(last); ok && slots < capacity {
		if _, err := t.ReadPage(last, &w.page); err != nil {
			return nil, err
		}
		w.pageNum = last
		w.slots = slots
	}
	return w, nil
}

// Insert encodes values into the next free slot. If the page write that
// follows a full page fails, the record stays buffered, its TID is still
// returned with the error, and the write is retried by the next Insert or Flush.
func (w *Writer) Insert(values []any) (TID, error) {
	hp := NewHeapPage(&w.page, &w.schema)
	if w.slots == hp.Capacity() {
		if err := w.spill(); err != nil {
			return TID{}, err
		}
	}

	if err := hp.PutRow(w.slots, values); err != nil {
		return TID{}, err
	}

	id := TID{PageID: w.pageNum, Slot: w.slots}
	w.slots++

	if w.slots == hp.Capacity() {
		if err := w.spill(); err != nil {
			return id, err
		}
	}
	return id, nil
}

// spill writes the full current page and moves on to a clean one.
func (w *Writer) spill() error {
	if err := w.tracker.WritePage(w.pageNum, &w.page, w.slots); err != nil {
		return err
	}
	w.pageNum++
	w.slots = 0
	clear(w.page[:])
	return nil
}

// Flush writes the partially filled current page, if any. Later inserts keep
// filling the same page and rewrite it on the next flush. The file keeps no
// slot counts, so the zero padding after the last record looks like data to
// anyone reading the page without the Tracker; reload with LoadTracker and
// the Tracker's Records count.
func (w *Writer) Flush() error {
	switch {
	case w.slots == 0:
		return nil
	case w.slots == w.schema.SlotsPerPage():
		return w.spill()
	default:
		return w.tracker.WritePage(w.pageNum, &w.page, w.slots)
	}
}
