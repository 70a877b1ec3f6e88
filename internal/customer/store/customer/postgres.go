package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bankflow/internal/customer/models"
	id "bankflow/pkg/domain"
	"bankflow/pkg/platform/sentinel"
)

// Postgres persists customers in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed customer store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const customerColumns = `id, user_id, first_name, last_name, date_of_birth, ssn_encrypted,
	address_line1, address_line2, city, state, zip_code, country,
	kyc_status, kyc_verified_at, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		customer.ID.String(), customer.UserID.String(),
		customer.FirstName, customer.LastName, customer.DateOfBirth,
		nullString(customer.SSNEncrypted),
		nullString(customer.AddressLine1), nullString(customer.AddressLine2),
		nullString(customer.City), nullString(customer.State),
		nullString(customer.ZipCode), nullString(customer.Country),
		string(customer.KycStatus), customer.KycVerifiedAt,
		customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, customerID.String())
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find customer by id: %w", err)
	}
	return customer, nil
}

func (s *Postgres) FindByUserID(ctx context.Context, userID id.UserID) (*models.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE user_id = $1`, userID.String())
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find customer by user id: %w", err)
	}
	return customer, nil
}

func (s *Postgres) ExistsByUserID(ctx context.Context, userID id.UserID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE user_id = $1)`, userID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	return exists, nil
}

func (s *Postgres) Search(ctx context.Context, query string) ([]*models.Customer, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE first_name ILIKE $1 OR last_name ILIKE $1
		 ORDER BY created_at`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (s *Postgres) ListByKycStatus(ctx context.Context, status models.KycStatus) ([]*models.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE kyc_status = $1 ORDER BY created_at`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("list customers by status: %w", err)
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (s *Postgres) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers SET
			first_name = $2, last_name = $3, date_of_birth = $4, ssn_encrypted = $5,
			address_line1 = $6, address_line2 = $7, city = $8, state = $9,
			zip_code = $10, country = $11,
			kyc_status = $12, kyc_verified_at = $13, updated_at = $14
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		customer.ID.String(),
		customer.FirstName, customer.LastName, customer.DateOfBirth,
		nullString(customer.SSNEncrypted),
		nullString(customer.AddressLine1), nullString(customer.AddressLine2),
		nullString(customer.City), nullString(customer.State),
		nullString(customer.ZipCode), nullString(customer.Country),
		string(customer.KycStatus), customer.KycVerifiedAt, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		customer                    models.Customer
		rawID, rawUserID, rawStatus string
		ssn, line1, line2           sql.NullString
		city, state, zip, country   sql.NullString
		verifiedAt                  sql.NullTime
	)
	err := row.Scan(
		&rawID, &rawUserID, &customer.FirstName, &customer.LastName, &customer.DateOfBirth,
		&ssn, &line1, &line2, &city, &state, &zip, &country,
		&rawStatus, &verifiedAt, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	customerID, err := id.ParseCustomerID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored customer id invalid: %w", err)
	}
	userID, err := id.ParseUserID(rawUserID)
	if err != nil {
		return nil, fmt.Errorf("stored user id invalid: %w", err)
	}
	customer.ID = customerID
	customer.UserID = userID
	customer.KycStatus = models.KycStatus(rawStatus)
	customer.SSNEncrypted = ssn.String
	customer.AddressLine1 = line1.String
	customer.AddressLine2 = line2.String
	customer.City = city.String
	customer.State = state.String
	customer.ZipCode = zip.String
	customer.Country = country.String
	if verifiedAt.Valid {
		t := verifiedAt.Time.UTC()
		customer.KycVerifiedAt = &t
	}
	return &customer, nil
}

func collectCustomers(rows *sql.Rows) ([]*models.Customer, error) {
	var out []*models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		out = append(out, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
