// Package cache holds the process-wide projection of server state: values
// addressed by models.QueryKey, each with a staleness deadline.
//
// Values are replaced wholesale. Callers must never modify a value they got
// out of the store; they build a new one and write it back.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
	"masterboxer.com/posts-admin/models"
)

// ErrCanceled is returned by Fetch when its read was superseded by Cancel or
// a mutation and there is no cached value to fall back to.
var ErrCanceled = errors.New("cache: fetch canceled")

// DefaultRetention is how long an entry is kept after it went stale.
const DefaultRetention = 5 * time.Minute

type entry struct {
	key     models.QueryKey
	value   any
	staleAt time.Time
	ttl     time.Duration
}

type flight struct {
	cancel context.CancelFunc
}

// reads tracks a key while anyone is fetching it. It is dropped when the
// last reader leaves, so the store only remembers keys with reads running.
type reads struct {
	key     models.QueryKey
	readers int
	// changes whenever results of the current reads must not land
	generation uint64
	flight     *flight
}

// Snapshot is the verbatim state of one key before a mutation touched it.
type Snapshot struct {
	Key     models.QueryKey
	Value   any
	Present bool

	staleAt time.Time
	ttl     time.Duration
}

type Store struct {
	mutex sync.Mutex
	items *ttlcache.Cache[string, *entry]
	group singleflight.Group

	reads map[string]*reads

	retention time.Duration
	now       func() time.Time
}

type Option func(*Store)

func WithRetention(retention time.Duration) Option {
	return func(s *Store) {
		s.retention = retention
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		reads:     map[string]*reads{},
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = ttlcache.New[string, *entry](
		ttlcache.WithDisableTouchOnHit[string, *entry](),
	)
	return s
}

// Start runs the expiry loop until ctx is done.
func (s *Store) Start(ctx context.Context) {
	go s.items.Start()

	go func() {
		<-ctx.Done()
		s.items.Stop()
	}()
}

// Get returns the cached value for key, fresh or not.
func (s *Store) Get(key models.QueryKey) (any, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.lookupLocked(key.String())
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (s *Store) Peek(key models.QueryKey) (value any, fresh bool, ok bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.lookupLocked(key.String())
	if !ok {
		return nil, false, false
	}
	return e.value, s.now().Before(e.staleAt), true
}

func (s *Store) Set(key models.QueryKey, value any, ttl time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.storeLocked(&entry{
		key:     key,
		value:   value,
		staleAt: s.now().Add(ttl),
		ttl:     ttl,
	})
}

// Update replaces the value for key with the result of fn. Nothing is
// written when fn returns false. A zero ttl keeps the entry's previous ttl.
func (s *Store) Update(key models.QueryKey, ttl time.Duration, fn func(old any, ok bool) (any, bool)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.updateLocked(key, ttl, fn)
}

// UpdateAll applies fn to every entry under prefix.
func (s *Store) UpdateAll(prefix models.QueryKey, fn func(key models.QueryKey, old any) (any, bool)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, e := range s.matchingLocked(prefix) {
		if value, ok := fn(e.key, e.value); ok {
			s.storeLocked(&entry{
				key:     e.key,
				value:   value,
				staleAt: s.now().Add(e.ttl),
				ttl:     e.ttl,
			})
		}
	}
}

// Mutate captures a snapshot of key and applies fn. When fn writes, in-flight
// reads of key are canceled so they cannot land over the patch. All of it
// happens under one lock so no reader sees a half-applied patch.
func (s *Store) Mutate(key models.QueryKey, ttl time.Duration, fn func(old any, ok bool) (any, bool)) Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	k := key.String()
	snapshot := Snapshot{Key: key}
	if e, ok := s.lookupLocked(k); ok {
		snapshot = e.snapshot()
	}
	if s.updateLocked(key, ttl, fn) {
		s.cancelLocked(k)
	}
	return snapshot
}

// MutateAll is Mutate over every cached entry under prefix. In-flight reads
// under prefix are canceled even when they have nothing cached yet.
func (s *Store) MutateAll(prefix models.QueryKey, fn func(key models.QueryKey, old any) (any, bool)) []Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cancelPrefixLocked(prefix)

	snapshots := []Snapshot{}
	for _, e := range s.matchingLocked(prefix) {
		snapshots = append(snapshots, e.snapshot())
		if value, ok := fn(e.key, e.value); ok {
			s.storeLocked(&entry{
				key:     e.key,
				value:   value,
				staleAt: s.now().Add(e.ttl),
				ttl:     e.ttl,
			})
		}
	}
	return snapshots
}

// Restore puts snapshots back verbatim. Keys that were absent are removed.
func (s *Store) Restore(snapshots ...Snapshot) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, snapshot := range snapshots {
		if !snapshot.Present {
			s.items.Delete(snapshot.Key.String())
			continue
		}
		s.storeLocked(&entry{
			key:     snapshot.Key,
			value:   snapshot.Value,
			staleAt: snapshot.staleAt,
			ttl:     snapshot.ttl,
		})
	}
}

// Invalidate marks every entry under prefix stale. Values stay readable
// until the next Fetch replaces them.
func (s *Store) Invalidate(prefix models.QueryKey) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, e := range s.matchingLocked(prefix) {
		s.storeLocked(&entry{
			key:   e.key,
			value: e.value,
			ttl:   e.ttl,
		})
	}
	glog.V(1).Infof("[cache]invalidate %s\n", prefix)
}

func (s *Store) Remove(prefix models.QueryKey) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cancelPrefixLocked(prefix)
	for _, e := range s.matchingLocked(prefix) {
		s.items.Delete(e.key.String())
	}
}

// Cancel aborts in-flight reads under prefix. Their results are dropped.
func (s *Store) Cancel(prefix models.QueryKey) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cancelPrefixLocked(prefix)
}

func (s *Store) Keys() []models.QueryKey {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	keys := []models.QueryKey{}
	for _, e := range s.matchingLocked(nil) {
		keys = append(keys, e.key)
	}
	return keys
}

// Fetch returns the cached value when it is fresh. Otherwise it runs fn and
// stores the result for ttl. Concurrent callers for the same key share one
// call to fn. A read that gets canceled while in flight never lands; its
// callers get whatever the store holds at that point, or one fresh read when
// the store holds nothing.
func (s *Store) Fetch(ctx context.Context, key models.QueryKey, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	value, err := s.fetchOnce(ctx, key, ttl, fn)
	if errors.Is(err, ErrCanceled) {
		glog.V(1).Infof("[cache]refetch %s\n", key)
		value, err = s.fetchOnce(ctx, key, ttl, fn)
	}
	return value, err
}

func (s *Store) fetchOnce(ctx context.Context, key models.QueryKey, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	k := key.String()

	s.mutex.Lock()
	if e, ok := s.lookupLocked(k); ok && s.now().Before(e.staleAt) {
		s.mutex.Unlock()
		glog.V(2).Infof("[cache]hit %s\n", k)
		return e.value, nil
	}
	r := s.acquireLocked(key)
	generation := r.generation
	s.mutex.Unlock()
	defer s.release(k)

	glog.V(2).Infof("[cache]miss %s\n", k)

	c := s.group.DoChan(k, func() (any, error) {
		fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()

		f := &flight{cancel: cancel}
		s.mutex.Lock()
		s.acquireLocked(key).flight = f
		s.mutex.Unlock()

		value, err := fn(fetchCtx)

		s.mutex.Lock()
		defer s.mutex.Unlock()
		defer s.releaseLocked(k)

		current := s.reads[k]
		if current.flight == f {
			current.flight = nil
		}
		// a record that was dropped and recreated lost any cancel in between
		if current != r || current.generation != generation {
			glog.V(1).Infof("[cache]dropped superseded read %s\n", k)
			return nil, ErrCanceled
		}
		if err != nil {
			return nil, err
		}
		s.storeLocked(&entry{
			key:     key,
			value:   value,
			staleAt: s.now().Add(ttl),
			ttl:     ttl,
		})
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-c:
		if errors.Is(result.Err, ErrCanceled) {
			if value, ok := s.Get(key); ok {
				return value, nil
			}
		}
		return result.Val, result.Err
	}
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:     e.key,
		Value:   e.value,
		Present: true,
		staleAt: e.staleAt,
		ttl:     e.ttl,
	}
}

func (s *Store) lookupLocked(k string) (*entry, bool) {
	item := s.items.Get(k)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (s *Store) storeLocked(e *entry) {
	life := e.staleAt.Sub(s.now()) + s.retention
	if life <= 0 {
		life = s.retention
	}
	s.items.Set(e.key.String(), e, life)
}

func (s *Store) updateLocked(key models.QueryKey, ttl time.Duration, fn func(old any, ok bool) (any, bool)) bool {
	var old any
	e, ok := s.lookupLocked(key.String())
	if ok {
		old = e.value
		if ttl == 0 {
			ttl = e.ttl
		}
	}
	value, write := fn(old, ok)
	if !write {
		return false
	}
	s.storeLocked(&entry{
		key:     key,
		value:   value,
		staleAt: s.now().Add(ttl),
		ttl:     ttl,
	})
	return true
}

func (s *Store) matchingLocked(prefix models.QueryKey) []*entry {
	entries := []*entry{}
	for _, item := range s.items.Items() {
		if item.IsExpired() {
			continue
		}
		e := item.Value()
		if e.key.HasPrefix(prefix) {
			entries = append(entries, e)
		}
	}
	return entries
}

// acquireLocked registers one more reader of key.
func (s *Store) acquireLocked(key models.QueryKey) *reads {
	k := key.String()
	r, ok := s.reads[k]
	if !ok {
		r = &reads{key: key}
		s.reads[k] = r
	}
	r.readers += 1
	return r
}

func (s *Store) release(k string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.releaseLocked(k)
}

func (s *Store) releaseLocked(k string) {
	r, ok := s.reads[k]
	if !ok {
		return
	}
	r.readers -= 1
	if r.readers <= 0 {
		delete(s.reads, k)
	}
}

func (s *Store) cancelLocked(k string) {
	r, ok := s.reads[k]
	if !ok {
		return
	}
	r.generation += 1
	if r.flight != nil {
		r.flight.cancel()
		r.flight = nil
		s.group.Forget(k)
		glog.V(1).Infof("[cache]canceled read %s\n", k)
	}
}

func (s *Store) cancelPrefixLocked(prefix models.QueryKey) {
	for k, r := range s.reads {
		if r.key.HasPrefix(prefix) {
			s.cancelLocked(k)
		}
	}
}
