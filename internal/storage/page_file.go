package storage

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	locking "github.com/tuannm99/pagestore/internal/lock"
)

// PageFile is a page-addressed view over one table file.
//
// All handles returned for the same table point at the same PageFile, so
// every reader and writer serializes through a single mutex. The mutex is held
// for exactly one seek plus one read or write. Nothing groups several page
// operations together: a scan running next to a writer can observe pages the
// writer produced after the scan started.
type PageFile struct {
	id      uint64
	path    string
	refs    *locking.RefCount
	metrics *Metrics

	mu     sync.Mutex
	file   *os.File
	closed bool
}

// OpenPageFile opens (creating if needed) the file at path. The parent
// directory must already exist.
func OpenPageFile(path string, id uint64, metrics *Metrics) (*PageFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open table file: %w", ErrIO, err)
	}
	if metrics == nil {
		metrics = NopMetrics()
	}

	return &PageFile{
		id:      id,
		path:    path,
		refs:    locking.NewRefCount(),
		metrics: metrics,
		file:    file,
	}, nil
}

func (pf *PageFile) ID() uint64 { return pf.id }

func (pf *PageFile) Path() string { return pf.path }

// Acquire registers one more handle sharing this file.
func (pf *PageFile) Acquire() *PageFile {
	pf.refs.Inc()
	return pf
}

// Release gives up one handle and reports whether it was the last one.
// The file stays open: only the owning Catalog closes it. Releasing more
// handles than were acquired fails with locking.ErrUnderflow.
func (pf *PageFile) Release() (bool, error) {
	last, err := pf.refs.Dec()
	if err != nil {
		return false, fmt.Errorf("release %s: %w", pf.path, err)
	}
	return last, nil
}

// Handles returns the number of live handles.
func (pf *PageFile) Handles() int32 {
	return pf.refs.Get()
}

func offsetOf(pageNum int) int64 {
	return int64(pageNum) * PageSize
}

// WritePage writes buf at page pageNum. The data is handed to the OS; no
// fsync is issued.
func (pf *PageFile) WritePage(pageNum int, buf *Page) (err error) {
	if pageNum < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageNum, pageNum)
	}

	start := time.Now()
	defer func() { pf.metrics.observe(true, start, err) }()

	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}

	if _, err := pf.file.Seek(offsetOf(pageNum), io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to page %d: %w", ErrIO, pageNum, err)
	}

	n, err := pf.file.Write(buf[:])
	if err != nil {
		return fmt.Errorf("%w: write page %d: %w", ErrIO, pageNum, err)
	}
	if n != PageSize {
		return fmt.Errorf("%w: write page %d: %w", ErrIO, pageNum, io.ErrShortWrite)
	}

	return nil
}

// ReadPage fills buf with page pageNum. A page that extends past the end of
// the file is an error (ErrShortPage), never a zero-filled buffer.
func (pf *PageFile) ReadPage(pageNum int, buf *Page) (err error) {
	if pageNum < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageNum, pageNum)
	}

	start := time.Now()
	defer func() { pf.metrics.observe(false, start, err) }()

	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}

	if _, err := pf.file.Seek(offsetOf(pageNum), io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to page %d: %w", ErrIO, pageNum, err)
	}

	if _, err := io.ReadFull(pf.file, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: %w: page %d", ErrIO, ErrShortPage, pageNum)
		}
		return fmt.Errorf("%w: read page %d: %w", ErrIO, pageNum, err)
	}

	return nil
}

// Size returns the current file length in bytes.
func (pf *PageFile) Size() (int64, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return 0, ErrClosed
	}

	info, err := pf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat table file: %w", ErrIO, err)
	}
	return info.Size(), nil
}

// PageCount returns the number of whole pages currently in the file.
func (pf *PageFile) PageCount() (int, error) {
	size, err := pf.Size()
	if err != nil {
		return 0, err
	}
	return int(size / PageSize), nil
}

func (pf *PageFile) Sync() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return ErrClosed
	}
	if err := pf.file.Sync(); err != nil {
		return fmt.Errorf("%w: sync table file: %w", ErrIO, err)
	}
	return nil
}

// Close flushes and closes the file. Every handle sharing this PageFile
// fails with ErrClosed afterwards. Callers holding a handle from a Catalog
// should go through Catalog.Close instead.
func (pf *PageFile) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return nil
	}
	pf.closed = true

	syncErr := pf.file.Sync()
	if err := pf.file.Close(); err != nil {
		return fmt.Errorf("%w: close table file: %w", ErrIO, err)
	}
	if syncErr != nil {
		return fmt.Errorf("%w: sync table file: %w", ErrIO, syncErr)
	}
	return nil
}
