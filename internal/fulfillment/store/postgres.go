package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"auszug/internal/domain"
)

// PostgresOrderStore persists orders in PostgreSQL.
// This store is pure I/O — lifecycle rules belong in the fulfillment service.
type PostgresOrderStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed order store.
func NewPostgres(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, order_number, customer_name, customer_email,
		       variant, signed, digital_storage,
		       street, house_number, postal_code, town, federal_state,
		       registry_area, folio_number, registry_area_name,
		       status, documents, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)

	var (
		order        domain.Order
		variant      string
		status       string
		documentsRaw []byte
	)
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerEmail,
		&variant, &order.Signed, &order.DigitalStorage,
		&order.Street, &order.HouseNumber, &order.PostalCode, &order.Town, &order.FederalState,
		&order.RegistryArea, &order.FolioNumber, &order.RegistryAreaName,
		&status, &documentsRaw, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if order.Variant, err = domain.ParseProductVariant(variant); err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status, err = domain.ParseOrderStatus(status); err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(documentsRaw) > 0 {
		if err := json.Unmarshal(documentsRaw, &order.Documents); err != nil {
			return nil, fmt.Errorf("decode order documents: %w", err)
		}
	}
	return &order, nil
}

func (s *PostgresOrderStore) Save(ctx context.Context, order *domain.Order) error {
	documentsRaw, err := json.Marshal(order.Documents)
	if err != nil {
		return fmt.Errorf("encode order documents: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, order_number, customer_name, customer_email,
			variant, signed, digital_storage,
			street, house_number, postal_code, town, federal_state,
			registry_area, folio_number, registry_area_name,
			status, documents, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now())
		ON CONFLICT (id) DO UPDATE SET
			registry_area = EXCLUDED.registry_area,
			folio_number = EXCLUDED.folio_number,
			registry_area_name = EXCLUDED.registry_area_name,
			status = EXCLUDED.status,
			documents = EXCLUDED.documents,
			updated_at = now()
	`
	_, err = s.db.ExecContext(ctx, query,
		order.ID, order.OrderNumber, order.CustomerName, order.CustomerEmail,
		string(order.Variant), order.Signed, order.DigitalStorage,
		order.Street, order.HouseNumber, order.PostalCode, order.Town, order.FederalState,
		order.RegistryArea, order.FolioNumber, order.RegistryAreaName,
		string(order.Status), documentsRaw, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}
