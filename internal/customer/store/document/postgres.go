package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bankflow/internal/customer/models"
	id "bankflow/pkg/domain"
	"bankflow/pkg/platform/sentinel"
)

// Postgres persists documents in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed document store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const documentColumns = `id, customer_id, document_type, document_number, blob_ref,
	status, rejection_reason, verified_by, uploaded_at, verified_at`

func (s *Postgres) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO kyc_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID.String(), doc.CustomerID.String(),
		string(doc.Type), nullString(doc.Number), doc.BlobRef,
		string(doc.Status), nullString(doc.RejectionReason),
		verifierValue(doc.VerifiedBy), doc.UploadedAt, doc.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE kyc_documents SET
			status = $2, rejection_reason = $3, verified_by = $4, verified_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		doc.ID.String(),
		string(doc.Status), nullString(doc.RejectionReason),
		verifierValue(doc.VerifiedBy), doc.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM kyc_documents WHERE id = $1`, docID.String())
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return doc, nil
}

func (s *Postgres) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM kyc_documents WHERE customer_id = $1 ORDER BY uploaded_at`,
		customerID.String())
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return out, nil
}

func (s *Postgres) Delete(ctx context.Context, docID id.DocumentID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM kyc_documents WHERE id = $1`, docID.String())
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) CountByCustomer(ctx context.Context, customerID id.CustomerID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kyc_documents WHERE customer_id = $1`, customerID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

func (s *Postgres) CountByCustomerAndStatus(ctx context.Context, customerID id.CustomerID, status models.DocumentStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kyc_documents WHERE customer_id = $1 AND status = $2`,
		customerID.String(), string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents by status: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc                        models.Document
		rawID, rawCustomerID       string
		rawType, rawStatus         string
		number, reason, verifiedBy sql.NullString
		verifiedAt                 sql.NullTime
	)
	err := row.Scan(
		&rawID, &rawCustomerID, &rawType, &number, &doc.BlobRef,
		&rawStatus, &reason, &verifiedBy, &doc.UploadedAt, &verifiedAt,
	)
	if err != nil {
		return nil, err
	}

	docID, err := id.ParseDocumentID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored document id invalid: %w", err)
	}
	customerID, err := id.ParseCustomerID(rawCustomerID)
	if err != nil {
		return nil, fmt.Errorf("stored customer id invalid: %w", err)
	}
	doc.ID = docID
	doc.CustomerID = customerID
	doc.Type = models.DocumentType(rawType)
	doc.Status = models.DocumentStatus(rawStatus)
	doc.Number = number.String
	doc.RejectionReason = reason.String
	if verifiedBy.Valid {
		verifier, err := id.ParseVerifierID(verifiedBy.String)
		if err != nil {
			return nil, fmt.Errorf("stored verifier id invalid: %w", err)
		}
		doc.VerifiedBy = &verifier
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time.UTC()
		doc.VerifiedAt = &t
	}
	return &doc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func verifierValue(v *id.VerifierID) any {
	if v == nil {
		return nil
	}
	return v.String()
}
