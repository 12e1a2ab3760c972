package database

import (
	"context"
	"database/sql"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/lib/pq"
	"masterboxer.com/posts-admin/queries"
)

const auditWriteTimeout = 5 * time.Second

type AuditEntry struct {
	ID        string
	Kind      string
	Keys      []string
	Outcome   string
	Error     string
	StartedAt time.Time
	SettledAt time.Time
}

type RollbackCount struct {
	Kind     string    `json:"kind"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"lastSeen"`
}

// AuditLog stores every settled mutation in the mutation_audit table.
type AuditLog struct {
	db      *sql.DB
	pending sync.WaitGroup
}

func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

func (a *AuditLog) Migrate(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS mutation_audit (
            id CHAR(26) PRIMARY KEY,
            kind VARCHAR(32) NOT NULL,
            keys TEXT[] NOT NULL,
            outcome VARCHAR(16) NOT NULL,
            error TEXT,
            started_at TIMESTAMPTZ NOT NULL,
            settled_at TIMESTAMPTZ NOT NULL
        )`)
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS mutation_audit_settled_at
        ON mutation_audit (outcome, settled_at)`)
	return err
}

// MutationSettled writes the event in the background so the mutation that
// produced it is never held up by the database.
func (a *AuditLog) MutationSettled(event queries.MutationEvent) {
	entry := EntryFromEvent(event)
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()

		if err := a.Record(ctx, entry); err != nil {
			log.Printf("[Audit] Failed to record %s %s: %v", entry.Kind, entry.ID, err)
		}
	}()
}

// Close waits for background writes started by MutationSettled. Each write
// is bounded by its own timeout.
func (a *AuditLog) Close() {
	a.pending.Wait()
}

func (a *AuditLog) Record(ctx context.Context, entry AuditEntry) error {
	var errText sql.NullString
	if entry.Error != "" {
		errText = sql.NullString{String: entry.Error, Valid: true}
	}

	_, err := a.db.ExecContext(ctx, `
        INSERT INTO mutation_audit (id, kind, keys, outcome, error, started_at, settled_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.Kind, pq.Array(entry.Keys), entry.Outcome, errText,
		entry.StartedAt, entry.SettledAt,
	)
	return err
}

func (a *AuditLog) RolledBackSince(ctx context.Context, since time.Time) ([]AuditEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
        SELECT id, kind, keys, outcome, error, started_at, settled_at
        FROM mutation_audit
        WHERE outcome = $1 AND settled_at >= $2
        ORDER BY settled_at DESC`,
		string(queries.OutcomeRolledBack), since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var entry AuditEntry
		var errText sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Kind, pq.Array(&entry.Keys), &entry.Outcome,
			&errText, &entry.StartedAt, &entry.SettledAt); err != nil {
			return nil, err
		}
		entry.Error = errText.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountRollbacks groups the rolled back entries by mutation kind, most
// frequent first.
func CountRollbacks(entries []AuditEntry) []RollbackCount {
	byKind := map[string]*RollbackCount{}
	order := []string{}
	for _, entry := range entries {
		count, ok := byKind[entry.Kind]
		if !ok {
			count = &RollbackCount{Kind: entry.Kind}
			byKind[entry.Kind] = count
			order = append(order, entry.Kind)
		}
		count.Count += 1
		if entry.SettledAt.After(count.LastSeen) {
			count.LastSeen = entry.SettledAt
		}
	}

	counts := make([]RollbackCount, 0, len(order))
	for _, kind := range order {
		counts = append(counts, *byKind[kind])
	}
	slices.SortStableFunc(counts, func(a, b RollbackCount) int {
		return b.Count - a.Count
	})
	return counts
}

func EntryFromEvent(event queries.MutationEvent) AuditEntry {
	keys := make([]string, 0, len(event.Keys))
	for _, key := range event.Keys {
		keys = append(keys, key.String())
	}
	entry := AuditEntry{
		ID:        event.ID.String(),
		Kind:      string(event.Kind),
		Keys:      keys,
		Outcome:   string(event.Outcome),
		StartedAt: event.StartedAt,
		SettledAt: event.SettledAt,
	}
	if event.Err != nil {
		entry.Error = event.Err.Error()
	}
	return entry
}
