package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"auszug/internal/domain"
)

// PostgresSessionStore persists abandoned sessions in PostgreSQL.
type PostgresSessionStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

const sessionColumns = `
	id, customer_name, customer_email,
	street, house_number, postal_code, town, federal_state,
	product_name, product_price,
	created_at, expires_at,
	reminder_1_sent, reminder_2_sent, reminder_3_sent, order_completed
`

func (s *PostgresSessionStore) ListOpen(ctx context.Context) ([]domain.AbandonedSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM abandoned_sessions WHERE NOT order_completed ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.AbandonedSession
	for rows.Next() {
		var session domain.AbandonedSession
		err := rows.Scan(
			&session.ID, &session.CustomerName, &session.CustomerEmail,
			&session.Street, &session.HouseNumber, &session.PostalCode, &session.Town, &session.FederalState,
			&session.ProductName, &session.ProductPrice,
			&session.CreatedAt, &session.ExpiresAt,
			&session.Reminder1Sent, &session.Reminder2Sent, &session.Reminder3Sent, &session.OrderCompleted,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *PostgresSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM abandoned_sessions WHERE expires_at < $1 AND NOT order_completed`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return int(deleted), nil
}

func (s *PostgresSessionStore) MarkReminderSent(ctx context.Context, id uuid.UUID, stage domain.ReminderStage) error {
	var column string
	switch stage {
	case domain.ReminderFirst:
		column = "reminder_1_sent"
	case domain.ReminderSecond:
		column = "reminder_2_sent"
	case domain.ReminderFinal:
		column = "reminder_3_sent"
	default:
		return fmt.Errorf("unknown reminder stage %d", stage)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE abandoned_sessions SET `+column+` = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresSessionStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE abandoned_sessions SET order_completed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark session completed: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresSessionStore) Save(ctx context.Context, session *domain.AbandonedSession) error {
	query := `
		INSERT INTO abandoned_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			customer_name = EXCLUDED.customer_name,
			customer_email = EXCLUDED.customer_email,
			street = EXCLUDED.street,
			house_number = EXCLUDED.house_number,
			postal_code = EXCLUDED.postal_code,
			town = EXCLUDED.town,
			federal_state = EXCLUDED.federal_state,
			product_name = EXCLUDED.product_name,
			product_price = EXCLUDED.product_price
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.CustomerName, session.CustomerEmail,
		session.Street, session.HouseNumber, session.PostalCode, session.Town, session.FederalState,
		session.ProductName, session.ProductPrice,
		session.CreatedAt, session.ExpiresAt,
		session.Reminder1Sent, session.Reminder2Sent, session.Reminder3Sent, session.OrderCompleted,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
