package locking

// counts live handles sharing one table file

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var ErrUnderflow = errors.New("refcount: released more references than were taken")

type RefCount struct {
	count atomic.Int32
}

// NewRefCount starts at one: the handle returned by the first open.
func NewRefCount() *RefCount {
	r := &RefCount{}
	r.count.Store(1)
	return r
}

func (r *RefCount) Inc() int32 {
	return r.count.Add(1)
}

// Dec drops one reference and reports whether it was the last one.
// The count never goes below zero; an extra Dec returns ErrUnderflow.
func (r *RefCount) Dec() (bool, error) {
	for {
		n := r.count.Load()
		if n <= 0 {
			return false, ErrUnderflow
		}
		if r.count.CompareAndSwap(n, n-1) {
			return n == 1, nil
		}
	}
}

func (r *RefCount) Get() int32 {
	return r.count.Load()
}

func (r *RefCount) String() string {
	return fmt.Sprintf("RefCount: %d", r.Get())
}
