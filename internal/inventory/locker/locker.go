// Package locker provides exclusive locks over named keys.
//
// Callers that need several keys pass them to a single Lock call; the keys
// are always taken in ascending order, so two callers with overlapping key
// sets cannot deadlock.
package locker

import (
	"context"
	"sort"
	"sync"
	"time"
)

type entry struct {
	sem  chan struct{}
	refs int
}

type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// RowKey names the lock of one inventory record.
func RowKey(roomID string, date time.Time) string {
	return "inventory/" + roomID + "/" + date.UTC().Format(time.DateOnly)
}

// RangeKeys returns the row keys of every day in [start, end], ascending.
func RangeKeys(roomID string, start, end time.Time) []string {
	var keys []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, RowKey(roomID, d))
	}
	return keys
}

// BookingKey names the lock serialising mutations of one booking.
func BookingKey(bookingID string) string {
	return "booking/" + bookingID
}

// Lock blocks until every key is held or ctx is done. On success it returns
// a function that releases all keys; it must be called exactly once.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := normalize(keys)
	held := make([]*entry, 0, len(ordered))

	for _, key := range ordered {
		e := l.acquireEntry(key)
		select {
		case e.sem <- struct{}{}:
			held = append(held, e)
		case <-ctx.Done():
			l.releaseEntry(key, e, false)
			l.unlock(ordered[:len(held)], held)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.unlock(ordered, held) })
	}, nil
}

func (l *Locker) unlock(keys []string, held []*entry) {
	for i := len(held) - 1; i >= 0; i-- {
		l.releaseEntry(keys[i], held[i], true)
	}
}

func (l *Locker) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) releaseEntry(key string, e *entry, owned bool) {
	if owned {
		<-e.sem
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Size returns the number of keys currently held or awaited.
func (l *Locker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
