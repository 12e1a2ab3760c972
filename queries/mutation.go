package queries

import (
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
	"masterboxer.com/posts-admin/cache"
	"masterboxer.com/posts-admin/models"
)

type Kind string

const (
	KindAddPost       Kind = "post.add"
	KindUpdatePost    Kind = "post.update"
	KindDeletePost    Kind = "post.delete"
	KindAddComment    Kind = "comment.add"
	KindUpdateComment Kind = "comment.update"
	KindLikeComment   Kind = "comment.like"
	KindDeleteComment Kind = "comment.delete"
)

// MutationEvent describes one settled write.
type MutationEvent struct {
	ID        ulid.ULID
	Kind      Kind
	Keys      []models.QueryKey
	Outcome   Outcome
	Err       error
	StartedAt time.Time
	SettledAt time.Time
}

// Observer is told about every mutation once it settles. It runs on the
// goroutine that issued the mutation and must not block.
type Observer interface {
	MutationSettled(event MutationEvent)
}

type ObserverFunc func(event MutationEvent)

func (f ObserverFunc) MutationSettled(event MutationEvent) {
	f(event)
}

// mutation tracks the snapshots taken by one write so a failure can put
// every touched key back.
type mutation struct {
	client    *Client
	event     MutationEvent
	snapshots []cache.Snapshot
}

func (c *Client) begin(kind Kind) *mutation {
	return &mutation{
		client: c,
		event: MutationEvent{
			ID:        ulid.Make(),
			Kind:      kind,
			StartedAt: c.now(),
		},
	}
}

func (m *mutation) patch(key models.QueryKey, ttl time.Duration, fn func(old any, ok bool) (any, bool)) {
	snapshot := m.client.store.Mutate(key, ttl, fn)
	m.snapshots = append(m.snapshots, snapshot)
	m.event.Keys = append(m.event.Keys, key)
}

func (m *mutation) patchAll(prefix models.QueryKey, fn func(key models.QueryKey, old any) (any, bool)) {
	snapshots := m.client.store.MutateAll(prefix, fn)
	m.snapshots = append(m.snapshots, snapshots...)
	for _, snapshot := range snapshots {
		m.event.Keys = append(m.event.Keys, snapshot.Key)
	}
}

// confirm applies the server's answer on top of what each patched key holds
// now.
func (m *mutation) confirm(fn func(current any) any) {
	for _, snapshot := range m.snapshots {
		m.client.store.Update(snapshot.Key, 0, func(current any, ok bool) (any, bool) {
			if !ok {
				return nil, false
			}
			return Reconcile(snapshot.Value, current, OutcomeCommitted, fn), true
		})
	}
}

// invalidateCreated marks stale every key the patch created from nothing.
// Such an entry only holds what this mutation put there, so the next read
// loads the whole collection from the server.
func (m *mutation) invalidateCreated() {
	for _, snapshot := range m.snapshots {
		if !snapshot.Present {
			m.client.store.Invalidate(snapshot.Key)
		}
	}
}

func (m *mutation) commit() {
	m.settle(OutcomeCommitted, nil)
}

// fail restores every snapshot verbatim and hands err back to the caller.
func (m *mutation) fail(err error) error {
	m.client.store.Restore(m.snapshots...)
	m.settle(OutcomeRolledBack, err)
	return err
}

func (m *mutation) settle(outcome Outcome, err error) {
	m.event.Outcome = outcome
	m.event.Err = err
	m.event.SettledAt = m.client.now()

	if err != nil {
		glog.Warningf("[queries]%s %s rolled back %d keys: %v\n", m.event.Kind, m.event.ID, len(m.snapshots), err)
	} else {
		glog.V(1).Infof("[queries]%s %s committed\n", m.event.Kind, m.event.ID)
	}

	for _, observer := range m.client.observers {
		observer.MutationSettled(m.event)
	}
}
