// Package pagestore is the top-level facade over the page storage layer:
// a Catalog of table files, page I/O on shared PageFiles, and schema-driven
// record scans over occupied pages.
package pagestore

import (
	"github.com/tuannm99/pagestore/internal/catalog"
	"github.com/tuannm99/pagestore/internal/heap"
	locking "github.com/tuannm99/pagestore/internal/lock"
	"github.com/tuannm99/pagestore/internal/record"
	"github.com/tuannm99/pagestore/internal/storage"
)

const PageSize = storage.PageSize

type (
	Catalog  = catalog.Catalog
	TableID  = catalog.TableID
	PageFile = storage.PageFile
	Page     = storage.Page
	Schema   = record.Schema
	Field    = record.Field
	Record   = record.Record
	Tracker  = heap.Tracker
	Cursor   = heap.Cursor
	Writer   = heap.Writer
	TID      = heap.TID
)

var (
	NewCatalog  = catalog.New
	WithLogger  = catalog.WithLogger
	WithMeter   = catalog.WithMeter
	NewSchema   = record.NewSchema
	Int         = record.Int
	Str         = record.Str
	NewTracker  = heap.NewTracker
	LoadTracker = heap.LoadTracker
	NewWriter   = heap.NewWriter
)

var (
	ErrIO                 = storage.ErrIO
	ErrClosed             = storage.ErrClosed
	ErrEndOfData          = heap.ErrEndOfData
	ErrInvariantViolation = heap.ErrInvariantViolation
	ErrHandleUnderflow    = locking.ErrUnderflow
)
