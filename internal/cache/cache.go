// Package cache maintains the observer-driven local view of saved items.
//
// All store access runs on background goroutines; cursor swaps, change
// tokens, and observer callbacks are applied on a single serial
// "interactive" loop owned by the Manager, which makes the last-write-wins
// and discard-on-detach rules explicit.
package cache

import (
	"database/sql"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/hnreader/hnfav/internal/db"
	"github.com/hnreader/hnfav/internal/item"
)

var logger = log.WithPrefix("cache")

// Change tokens published to the ChangeSink. Added/removed tokens carry
// the item id as a trailing path segment.
const (
	ChangeAdded   = "favorites/added"
	ChangeRemoved = "favorites/removed"
	ChangeCleared = "favorites/cleared"
)

// AddedToken returns the change token for a newly saved item.
func AddedToken(id string) string { return ChangeAdded + "/" + id }

// RemovedToken returns the change token for a removed item.
func RemovedToken(id string) string { return ChangeRemoved + "/" + id }

// ClearedToken returns the change token for a cleared collection.
func ClearedToken() string { return ChangeCleared }

// Observer is notified on the interactive loop after the Manager's cursor
// has been replaced by a fresh load.
type Observer interface {
	OnCursorChanged()
}

// ChangeSink receives addressable change tokens on the interactive loop.
type ChangeSink interface {
	NotifyChange(token string)
}

// Syncer schedules a best-effort background content refresh for a saved
// item. Failures are the Syncer's to swallow; the Manager never waits.
type Syncer interface {
	Refresh(id string)
}

// Manager owns the current cursor and loader and applies mutations to the
// persistent store. One reload is triggered after each completed mutation,
// targeting whichever loader is attached at completion time.
type Manager struct {
	db     *sql.DB
	sink   ChangeSink
	syncer Syncer

	mu     sync.Mutex
	loader *Loader
	cursor *db.ResultSet
	closed bool

	favsMu sync.RWMutex
	favs   map[string]struct{}

	onError func(error)

	main chan func()
	done chan struct{}
	bg   sync.WaitGroup
}

// New creates a Manager and starts its interactive loop. The sink and
// syncer may be nil. The fast membership cache is warmed asynchronously.
func New(database *sql.DB, sink ChangeSink, syncer Syncer) *Manager {
	m := &Manager{
		db:     database,
		sink:   sink,
		syncer: syncer,
		favs:   make(map[string]struct{}),
		main:   make(chan func(), 16),
		done:   make(chan struct{}),
		onError: func(err error) {
			logger.Error("mutation failed", "err", err)
		},
	}
	go m.run()
	m.goBG(func() {
		ids, err := db.AllIDs(database)
		if err != nil {
			logger.Warn("membership cache warm-up failed", "err", err)
			return
		}
		m.replaceFavs(ids)
	})
	return m
}

// SetErrorHandler replaces the mutation failure hook. The handler is
// invoked on the interactive loop. A nil handler restores logging only.
func (m *Manager) SetErrorHandler(h func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h == nil {
		h = func(err error) { logger.Error("mutation failed", "err", err) }
	}
	m.onError = h
}

// Attach binds an observer and (re)creates a loader bound to filter, then
// triggers an initial load. A previous loader binding is discarded; its
// in-flight results will not be published.
func (m *Manager) Attach(observer Observer, filter string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	l := &Loader{mgr: m, filter: filter, observer: observer}
	m.loader = l
	m.mu.Unlock()

	l.Load()
}

// Detach releases the current cursor and forgets the loader. In-flight
// loads from the detached loader are discarded at publish time.
func (m *Manager) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loader = nil
	if m.cursor != nil {
		m.cursor.Close()
		m.cursor = nil
	}
}

// Size returns the current cursor's item count, or 0 if absent.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor.Count()
}

// ItemAt returns the item at position by repositioning the cursor.
// The second return is false when the cursor is absent, the position is
// out of range, or the row cannot be read.
func (m *Manager) ItemAt(position int) (item.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor == nil || !m.cursor.MoveToPosition(position) {
		return item.Item{}, false
	}
	it, err := m.cursor.Item()
	if err != nil {
		logger.Warn("cursor row unreadable", "position", position, "err", err)
		return item.Item{}, false
	}
	return it, true
}

// IsFavorite reports membership against the fast in-memory cache.
// An empty id is false without consulting the cache.
func (m *Manager) IsFavorite(id string) bool {
	if id == "" {
		return false
	}
	m.favsMu.RLock()
	defer m.favsMu.RUnlock()
	_, ok := m.favs[id]
	return ok
}

// Add inserts the item into the store asynchronously. On completion it
// triggers a reload, publishes an added token, and schedules a
// fire-and-forget content refresh.
func (m *Manager) Add(it item.Item) {
	m.goBG(func() {
		if err := db.Insert(m.db, it); err != nil {
			m.postError(err)
			return
		}
		m.addFav(it.ID)
		m.post(func() {
			m.reloadLocked()
			m.notify(AddedToken(it.ID))
		})
		if m.syncer != nil {
			go m.syncer.Refresh(it.ID)
		}
	})
}

// Remove deletes the record with the given id asynchronously. On
// completion it triggers a reload and publishes a removed token.
func (m *Manager) Remove(id string) {
	m.goBG(func() {
		if _, err := db.DeleteByID(m.db, id); err != nil {
			m.postError(err)
			return
		}
		m.removeFavs(id)
		m.post(func() {
			m.reloadLocked()
			m.notify(RemovedToken(id))
		})
	})
}

// RemoveMany deletes all records matching ids asynchronously. An empty
// set is a no-op: no reload, no change token.
func (m *Manager) RemoveMany(ids []string) {
	if len(ids) == 0 {
		return
	}
	toDelete := make([]string, len(ids))
	copy(toDelete, ids)

	m.goBG(func() {
		if _, err := db.DeleteByIDs(m.db, toDelete); err != nil {
			m.postError(err)
			return
		}
		m.removeFavs(toDelete...)
		m.post(func() {
			m.reloadLocked()
			for _, id := range toDelete {
				m.notify(RemovedToken(id))
			}
		})
	})
}

// Clear deletes all records matching filter (all records when filter is
// empty) asynchronously, then reloads and publishes a cleared token.
func (m *Manager) Clear(filter string) {
	m.goBG(func() {
		var (
			count int
			err   error
		)
		if filter == "" {
			count, err = db.DeleteAll(m.db)
		} else {
			count, err = db.DeleteByTitle(m.db, filter)
		}
		if err != nil {
			m.postError(err)
			return
		}
		logger.Debug("favorites cleared", "filter", filter, "count", count)

		ids, err := db.AllIDs(m.db)
		if err == nil {
			m.replaceFavs(ids)
		}
		m.post(func() {
			m.reloadLocked()
			m.notify(ClearedToken())
		})
	})
}

// Close stops the Manager: waits for in-flight background work, stops the
// interactive loop, and releases the cursor.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.bg.Wait()
	close(m.done)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loader = nil
	if m.cursor != nil {
		m.cursor.Close()
		m.cursor = nil
	}
}

// reloadLocked re-invokes whichever loader is attached right now.
// Runs on the interactive loop.
func (m *Manager) reloadLocked() {
	m.mu.Lock()
	l := m.loader
	m.mu.Unlock()
	if l != nil {
		l.Load()
	}
}

func (m *Manager) notify(token string) {
	if m.sink != nil {
		m.sink.NotifyChange(token)
	}
}

func (m *Manager) postError(err error) {
	m.post(func() {
		m.mu.Lock()
		h := m.onError
		m.mu.Unlock()
		h(err)
	})
}

// post schedules f on the interactive loop; dropped after Close.
func (m *Manager) post(f func()) {
	select {
	case <-m.done:
	case m.main <- f:
	}
}

// goBG runs f on a background goroutine tracked for Close.
// Rejected once the Manager is closed.
func (m *Manager) goBG(f func()) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.bg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.bg.Done()
		f()
	}()
}

func (m *Manager) run() {
	for {
		select {
		case <-m.done:
			return
		case f := <-m.main:
			f()
		}
	}
}

func (m *Manager) addFav(id string) {
	m.favsMu.Lock()
	defer m.favsMu.Unlock()
	m.favs[id] = struct{}{}
}

func (m *Manager) removeFavs(ids ...string) {
	m.favsMu.Lock()
	defer m.favsMu.Unlock()
	for _, id := range ids {
		delete(m.favs, id)
	}
}

func (m *Manager) replaceFavs(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	m.favsMu.Lock()
	defer m.favsMu.Unlock()
	m.favs = next
}
