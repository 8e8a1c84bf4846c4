package heap

import (
	"errors"

	"github.com/tuannm99/pagestore/internal/record"
	"github.com/tuannm99/pagestore/internal/storage"
)

type CursorState uint8

const (
	Fresh CursorState = iota
	Scanning
	Ended
)

func (s CursorState) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Scanning:
		return "scanning"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Cursor walks the records of a table forward, one page at a time.
//
//	c := tracker.Cursor(schema)
//	for c.Next() {
//		r := c.Record()
//		...
//	}
//	if err := c.Err(); err != nil { ... }
//
// The cursor owns a single page buffer that is reused for every page it loads.
// A Record returned by Record aliases that buffer and is only valid until the
// next call to Next; Clone it to keep it longer.
//
// Pages are read one at a time with no lock held in between, so a scan that
// runs concurrently with writers may stop early at a page being appended or
// see pages written after it started. Cursors are not safe for concurrent use
// and cannot be rewound; start a new one to scan again.
type Cursor struct {
	tracker *Tracker
	schema  record.Schema
	page    storage.Page

	state   CursorState
	pageNum int // page currently in the buffer, -1 before the first load
	slots   int // records in the current page
	idx     int // next slot to yield
	cur     record.Record
	err     error
}

func newCursor(t *Tracker, schema record.Schema) *Cursor {
	return &Cursor{
		tracker: t,
		schema:  schema,
		state:   Fresh,
		pageNum: -1,
	}
}

func (c *Cursor) State() CursorState { return c.state }

// Next advances to the next record and reports whether there is one.
// Reaching the first unoccupied page ends the scan without error.
func (c *Cursor) Next() bool {
	if c.state == Ended {
		return false
	}

	// pages with no live slots are stepped over
	for c.state == Fresh || c.idx >= c.slots {
		if !c.load(c.pageNum + 1) {
			return false
		}
	}

	hp := NewHeapPage(&c.page, &c.schema)
	c.cur = hp.RecordAt(c.idx)
	c.idx++
	return true
}

func (c *Cursor) load(n int) bool {
	slots, err := c.tracker.ReadPage(n, &c.page)
	if err != nil {
		c.state = Ended
		c.cur = record.Record{}
		if !errors.Is(err, ErrEndOfData) {
			c.err = err
		}
		return false
	}

	c.state = Scanning
	c.pageNum = n
	// a slot count larger than the page can physically hold is capped
	c.slots = min(slots, c.schema.SlotsPerPage())
	c.idx = 0
	return true
}

// Record returns the record Next moved to. The zero Record is returned when
// the cursor is not positioned on a record; its accessors fail with
// record.ErrFieldIndex.
func (c *Cursor) Record() record.Record {
	return c.cur
}

// TID returns the position of the current record. Before the first Next and
// after the scan has ended there is no current record and TID returns the
// zero TID; check the result of Next before using it.
func (c *Cursor) TID() TID {
	if c.state != Scanning {
		return TID{}
	}
	return TID{PageID: c.pageNum, Slot: c.idx - 1}
}

// Err returns the I/O or bookkeeping error that ended the scan, if any.
func (c *Cursor) Err() error {
	return c.err
}
