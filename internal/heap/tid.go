package heap

import "fmt"

// TID (Tuple ID) row identity inside of a table file:
// PageID: page number
// Slot  : record index inside the page
type TID struct {
	PageID int
	Slot   int
}

func (t TID) String() string {
	return fmt.Sprintf("(%d,%d)", t.PageID, t.Slot)
}
