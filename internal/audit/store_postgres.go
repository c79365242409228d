package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists ledger entries in PostgreSQL. Append-only: no
// update or delete path exists on purpose.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, orderID uuid.UUID, entries ...Entry) error {
	for _, entry := range entries {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO audit_entries (order_id, ts, kind, message, amount_cents)
			 VALUES ($1, $2, $3, $4, $5)`,
			orderID, entry.Timestamp, string(entry.Kind), entry.Message, entry.AmountCents,
		)
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, kind, message, amount_cents
		 FROM audit_entries
		 WHERE order_id = $1
		 ORDER BY ts, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			kind  string
		)
		if err := rows.Scan(&entry.Timestamp, &kind, &entry.Message, &entry.AmountCents); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Kind = Kind(kind)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
