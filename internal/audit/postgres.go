package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "bankflow/pkg/domain"
)

// Postgres persists the audit trail in the audit_log table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Append(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, actor_id, customer_id, document_id, detail, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		string(entry.Action),
		entry.ActorID,
		entry.CustomerID.String(),
		nullString(entry.DocumentID),
		entry.Detail,
		entry.RequestID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Postgres) ListByCustomer(ctx context.Context, customerID id.CustomerID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, actor_id, customer_id, document_id, detail, request_id, created_at
		FROM audit_log
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		customerID.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			action     string
			customerID string
			documentID sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&action,
			&entry.ActorID,
			&customerID,
			&documentID,
			&entry.Detail,
			&entry.RequestID,
			&entry.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Action = Action(action)
		parsed, err := id.ParseCustomerID(customerID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored customer id: %w", err)
		}
		entry.CustomerID = parsed
		entry.DocumentID = documentID.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
