package storage

import (
	"errors"
)

const (
	OneKB = 1 << 10 // 1,024

	PageSize = 4 * OneKB // 4,096 (4 KiB)
)

const (
	FileMode0644 = 0o644 // rw-r--r--
	FileMode0755 = 0o755 // rwxr-xr-x
)

// Page is one fixed-size unit of table storage. Page n lives at byte offset n*PageSize.
type Page = [PageSize]byte

var (
	ErrIO             = errors.New("storage: I/O error")
	ErrShortPage      = errors.New("storage: short page read")
	ErrClosed         = errors.New("storage: page file is closed")
	ErrInvalidPageNum = errors.New("storage: invalid page number")
)
