package cache

import (
	"sync/atomic"

	"github.com/hnreader/hnfav/internal/db"
)

// Loader issues a (re)query for its filter and publishes the fresh cursor
// to its observer. One Loader is bound to one (filter, observer) pair for
// its lifetime.
//
// Load is re-entrant safe: each call takes a sequence number, and a result
// is only published if no later call has been issued since (last-write-wins)
// and the Loader is still the one attached to its Manager (discard-on-detach).
type Loader struct {
	mgr      *Manager
	filter   string
	observer Observer
	seq      atomic.Int64
}

// Filter returns the filter this Loader is bound to.
func (l *Loader) Filter() string { return l.filter }

// Load queries the store on a background goroutine and publishes the
// resulting cursor on the interactive loop.
func (l *Loader) Load() {
	seq := l.seq.Add(1)
	l.mgr.goBG(func() {
		rs, err := db.QueryByTitle(l.mgr.db, l.filter)
		l.mgr.post(func() {
			l.publish(seq, rs, err)
		})
	})
}

// publish applies a completed load on the interactive loop, or discards
// it when stale.
func (l *Loader) publish(seq int64, rs *db.ResultSet, err error) {
	m := l.mgr

	m.mu.Lock()
	stale := m.loader != l || seq != l.seq.Load() || m.closed
	if stale {
		m.mu.Unlock()
		if rs != nil {
			rs.Close()
		}
		return
	}
	if err != nil {
		h := m.onError
		m.mu.Unlock()
		logger.Warn("load failed", "filter", l.filter, "err", err)
		h(err)
		return
	}
	old := m.cursor
	m.cursor = rs
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	if l.observer != nil {
		l.observer.OnCursorChanged()
	}
}
