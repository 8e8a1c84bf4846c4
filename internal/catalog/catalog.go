package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tuannm99/pagestore/internal/alias/bx"
	"github.com/tuannm99/pagestore/internal/storage"
)

var (
	ErrNotOpen     = errors.New("catalog: table is not open")
	ErrInvalidName = errors.New("catalog: invalid database or table name")
)

type Option func(*Catalog)

func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithMeter records page I/O and open-table metrics on meter.
func WithMeter(m metric.Meter) Option {
	return func(c *Catalog) { c.meter = m }
}

// withIDSource replaces the random id generator; tests use it to force collisions.
func withIDSource(next func() uint64) Option {
	return func(c *Catalog) { c.newID = next }
}

// Catalog maps (database, table) pairs onto shared PageFiles rooted under
// one base directory. Each pair is opened at most once per Catalog; later
// opens return the same PageFile until Close unregisters it.
type Catalog struct {
	base   string
	logger *zap.Logger
	meter  metric.Meter
	newID  func() uint64

	metrics    *storage.Metrics
	openTables metric.Int64UpDownCounter

	mu    sync.Mutex
	files map[uint64]*storage.PageFile
	ids   map[TableID]uint64
}

func New(base string, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		base:   base,
		logger: zap.NewNop(),
		meter:  noop.NewMeterProvider().Meter(""),
		newID:  randomID,
		files:  make(map[uint64]*storage.PageFile),
		ids:    make(map[TableID]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.meter == nil {
		c.meter = noop.NewMeterProvider().Meter("")
	}

	metrics, err := storage.NewMetrics(c.meter)
	if err != nil {
		return nil, fmt.Errorf("catalog metrics: %w", err)
	}
	c.metrics = metrics

	c.openTables, err = c.meter.Int64UpDownCounter(
		"pagestore.tables.open",
		metric.WithDescription("Number of tables currently registered in the catalog."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("catalog metrics: %w", err)
	}

	return c, nil
}

// randomID draws 64 bits from a v4 UUID.
func randomID() uint64 {
	u := uuid.New()
	return bx.U64(u[:8])
}

func validName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.ContainsRune(s, 0)
}

func (c *Catalog) Base() string { return c.base }

// Open returns the PageFile for (database, table), creating <base>/<database>
// and the table file on first use. Opening a registered pair again returns
// the same PageFile with one more handle; no second descriptor is opened.
func (c *Catalog) Open(database, table string) (*storage.PageFile, error) {
	if !validName(database) || !validName(table) {
		return nil, fmt.Errorf("%w: %q.%q", ErrInvalidName, database, table)
	}
	key := TableID{Database: database, Table: table}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.ids[key]; ok {
		pf, ok := c.files[id]
		if !ok {
			panic("catalog: id map and file map out of sync")
		}
		return pf.Acquire(), nil
	}

	if err := os.MkdirAll(key.dir(c.base), storage.FileMode0755); err != nil {
		return nil, fmt.Errorf("%w: create database dir: %w", storage.ErrIO, err)
	}

	id := c.nextFreeID()
	pf, err := storage.OpenPageFile(key.path(c.base), id, c.metrics)
	if err != nil {
		return nil, err
	}

	c.files[id] = pf
	c.ids[key] = id
	c.openTables.Add(context.Background(), 1)

	c.logger.Info("table opened",
		zap.String("table", key.String()),
		zap.Uint64("id", id),
		zap.String("path", pf.Path()),
	)
	return pf, nil
}

// nextFreeID must be called with c.mu held.
func (c *Catalog) nextFreeID() uint64 {
	for {
		id := c.newID()
		if id == 0 {
			continue
		}
		if _, taken := c.files[id]; !taken {
			return id
		}
		c.logger.Warn("table id collision, drawing again", zap.Uint64("id", id))
	}
}

// Get returns the PageFile registered under id. Like Open, a successful Get
// takes a handle that the caller gives back with Release.
func (c *Catalog) Get(id uint64) (*storage.PageFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pf, ok := c.files[id]
	if !ok {
		return nil, false
	}
	return pf.Acquire(), true
}

// Lookup returns the PageFile of an open pair without opening it. The caller
// owns one handle on success and must Release it.
func (c *Catalog) Lookup(database, table string) (*storage.PageFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.ids[TableID{Database: database, Table: table}]
	if !ok {
		return nil, false
	}
	return c.files[id].Acquire(), true
}

// Tables lists the registered pairs ordered by database, then table.
func (c *Catalog) Tables() []TableID {
	c.mu.Lock()
	out := make([]TableID, 0, len(c.ids))
	for key := range c.ids {
		out = append(out, key)
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b TableID) int {
		return cmp.Or(cmp.Compare(a.Database, b.Database), cmp.Compare(a.Table, b.Table))
	})
	return out
}

// Close unregisters (database, table) and closes its file. Handles still
// pointing at the old PageFile fail with storage.ErrClosed; a later Open
// of the same pair gets a fresh PageFile.
func (c *Catalog) Close(database, table string) error {
	key := TableID{Database: database, Table: table}

	c.mu.Lock()
	id, ok := c.ids[key]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotOpen, key)
	}
	pf := c.files[id]
	delete(c.ids, key)
	delete(c.files, id)
	c.mu.Unlock()

	return c.closeFile(key, pf)
}

// CloseAll closes every registered table and empties the catalog.
func (c *Catalog) CloseAll() error {
	c.mu.Lock()
	toClose := make(map[TableID]*storage.PageFile, len(c.ids))
	for key, id := range c.ids {
		toClose[key] = c.files[id]
	}
	c.ids = make(map[TableID]uint64)
	c.files = make(map[uint64]*storage.PageFile)
	c.mu.Unlock()

	var g errgroup.Group
	for key, pf := range toClose {
		g.Go(func() error { return c.closeFile(key, pf) })
	}
	return g.Wait()
}

func (c *Catalog) closeFile(key TableID, pf *storage.PageFile) error {
	c.openTables.Add(context.Background(), -1)

	handles := pf.Handles()
	if err := pf.Close(); err != nil {
		c.logger.Error("table close failed", zap.String("table", key.String()), zap.Error(err))
		return err
	}

	c.logger.Info("table closed",
		zap.String("table", key.String()),
		zap.Uint64("id", pf.ID()),
		zap.Int32("live_handles", handles),
	)
	return nil
}
