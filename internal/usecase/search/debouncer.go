// Package search coalesces bursts of query input into a single delayed
// catalog search.
package search

import (
	"context"
	"sync"
	"time"

	"example.com/storefront/internal/domain/catalog"
)

// Timer is a cancellable handle to one scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler abstracts timer creation so tests can drive the debouncer with
// a fake clock instead of wall-time delays.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallScheduler struct{}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Searcher is the slice of the catalog source the debouncer needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]catalog.Product, error)
}

// Result delivers one completed search to the sink. Query is the text
// captured when the timer was scheduled, never re-read at fire time.
type Result struct {
	Query    string
	Products []catalog.Product
	Err      error
}

// Debouncer holds at most one pending timer. New input cancels the pending
// timer before scheduling its replacement, so a typing burst reaches the
// server as exactly one search, for the last query only.
//
// States: idle (pending == nil) and pending (pending != nil). Close cancels
// any pending timer and drops all later schedules, so a torn-down view is
// never called back.
type Debouncer struct {
	source Searcher
	delay  time.Duration
	sched  Scheduler
	sink   func(Result)

	mu      sync.Mutex
	pending Timer
	gen     uint64
	closed  bool
}

// NewDebouncer schedules searches against source after delay and hands each
// outcome to sink. A nil scheduler means real timers.
func NewDebouncer(source Searcher, delay time.Duration, sched Scheduler, sink func(Result)) *Debouncer {
	if sched == nil {
		sched = wallScheduler{}
	}
	return &Debouncer{
		source: source,
		delay:  delay,
		sched:  sched,
		sink:   sink,
	}
}

// Schedule queues a search for query, superseding any pending one. The
// context is captured alongside the query and used when the timer fires.
func (d *Debouncer) Schedule(ctx context.Context, query string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	// The generation guards against a timer that already fired but has not
	// run yet: it belongs to an older schedule and must not search.
	d.gen++
	g := d.gen
	d.mu.Unlock()

	// The timer is created outside the lock so a scheduler that runs the
	// callback inline (a test clock) cannot deadlock.
	t := d.sched.AfterFunc(d.delay, func() {
		d.fire(ctx, query, g)
	})

	d.mu.Lock()
	if !d.closed && g == d.gen {
		d.pending = t
	} else {
		t.Stop()
	}
	d.mu.Unlock()
}

// Cancel stops the pending search, if any, returning the debouncer to idle.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.gen++
}

// Close cancels the pending search and makes all further schedules no-ops.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.closed = true
}

func (d *Debouncer) fire(ctx context.Context, query string, gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.gen++
	d.pending = nil
	d.mu.Unlock()

	products, err := d.source.Search(ctx, query)
	d.sink(Result{Query: query, Products: products, Err: err})
}
