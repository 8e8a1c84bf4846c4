package heap

import (
	"github.com/tuannm99/pagestore/internal/record"
	"github.com/tuannm99/pagestore/internal/storage"
)

// HeapPage = Page + Schema: the page is a dense array of fixed-length
// record slots, slot i covering bytes [i*L, (i+1)*L) where L = Schema.Len().
// There is no page header; how many slots are live is tracked outside the page.
type HeapPage struct {
	Page   *storage.Page
	Schema *record.Schema
}

func NewHeapPage(p *storage.Page, s *record.Schema) HeapPage {
	return HeapPage{Page: p, Schema: s}
}

// Capacity is the number of slots that fit in the page.
func (hp HeapPage) Capacity() int {
	return hp.Schema.SlotsPerPage()
}

func (hp HeapPage) slot(i int) []byte {
	l := hp.Schema.Len()
	return hp.Page[i*l : (i+1)*l]
}

// RecordAt returns a view of slot i. The view aliases the page buffer.
func (hp HeapPage) RecordAt(i int) record.Record {
	return record.View(hp.Schema, hp.slot(i))
}

func (hp HeapPage) PutRow(i int, values []any) error {
	return record.EncodeInto(*hp.Schema, hp.slot(i), values)
}
