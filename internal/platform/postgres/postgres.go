// Package postgres owns the database handle and the embedded schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		date_of_birth DATE NOT NULL,
		ssn_encrypted VARCHAR(255),
		address_line1 VARCHAR(255),
		address_line2 VARCHAR(255),
		city VARCHAR(100),
		state VARCHAR(50),
		zip_code VARCHAR(20),
		country VARCHAR(100),
		kyc_status VARCHAR(50) NOT NULL DEFAULT 'PENDING',
		kyc_verified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_kyc_status ON customers (kyc_status)`,
	`CREATE TABLE IF NOT EXISTS kyc_documents (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL REFERENCES customers (id) ON DELETE CASCADE,
		document_type VARCHAR(50) NOT NULL,
		document_number VARCHAR(100),
		blob_ref VARCHAR(500) NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'PENDING',
		rejection_reason TEXT,
		verified_by UUID,
		uploaded_at TIMESTAMPTZ NOT NULL,
		verified_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kyc_documents_customer ON kyc_documents (customer_id)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id UUID PRIMARY KEY,
		action VARCHAR(100) NOT NULL,
		actor_id VARCHAR(100) NOT NULL DEFAULT '',
		customer_id UUID NOT NULL,
		document_id UUID,
		detail TEXT NOT NULL DEFAULT '',
		request_id VARCHAR(100) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_customer ON audit_log (customer_id, created_at DESC)`,
}

// Migrate applies the embedded schema. Statements are idempotent so startup
// can run this unconditionally.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
