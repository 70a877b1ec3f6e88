// Package customer orchestrates the customer lifecycle: profile CRUD, the
// SSN encryption discipline, and the aggregate KYC status.
package customer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bankflow/internal/audit"
	"bankflow/internal/customer/cache"
	"bankflow/internal/customer/metrics"
	"bankflow/internal/customer/models"
	id "bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
	"bankflow/pkg/platform/sentinel"
	"bankflow/pkg/requestcontext"
)

// Store is the customer persistence this service depends on.
type Store interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Customer, error)
	ExistsByUserID(ctx context.Context, userID id.UserID) (bool, error)
	Search(ctx context.Context, query string) ([]*models.Customer, error)
	ListByKycStatus(ctx context.Context, status models.KycStatus) ([]*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
}

// Codec encrypts the SSN before it reaches the store.
type Codec interface {
	Encrypt(plaintext string) (string, error)
}

// Publisher emits customer events. Publication is best-effort and never
// fails the calling operation.
type Publisher interface {
	Publish(ctx context.Context, eventType string, customer *models.Customer)
}

// Service owns customer records and their KYC status.
type Service struct {
	store     Store
	codec     Codec
	publisher Publisher
	cache     *cache.CustomerCache
	auditor   *audit.Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCache(c *cache.CustomerCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithAudit(r *audit.Recorder) Option {
	return func(s *Service) {
		s.auditor = r
	}
}

// New constructs a Service.
func New(store Store, codec Codec, publisher Publisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		codec:     codec,
		publisher: publisher,
		logger:    slog.Default(),
		tracer:    otel.Tracer("bankflow/customer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries the profile data for a new customer. SSN is
// plaintext here and ciphertext everywhere past this boundary.
type CreateParams struct {
	UserID      id.UserID
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	SSN         string

	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	ZipCode      string
	Country      string
}

// Create registers a new customer in PENDING status and announces it.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.Create")
	defer span.End()

	exists, err := s.store.ExistsByUserID(ctx, params.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check customer existence")
	}
	if exists {
		return nil, dErrors.New(dErrors.CodeConflict, "customer already exists for user")
	}

	customer, err := models.NewCustomer(params.UserID, params.FirstName, params.LastName,
		params.DateOfBirth, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if params.SSN != "" {
		ciphertext, err := s.codec.Encrypt(params.SSN)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to protect customer PII")
		}
		customer.SSNEncrypted = ciphertext
	}
	customer.AddressLine1 = params.AddressLine1
	customer.AddressLine2 = params.AddressLine2
	customer.City = params.City
	customer.State = params.State
	customer.ZipCode = params.ZipCode
	customer.Country = params.Country

	if err := s.store.Create(ctx, customer); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "customer already exists for user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create customer")
	}

	span.SetAttributes(attribute.String("customer.id", customer.ID.String()))
	s.logger.Info("customer created",
		"customer_id", customer.ID.String(),
		"user_id", customer.UserID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.metrics.IncrementCustomersCreated()
	s.publisher.Publish(ctx, models.EventCustomerCreated, customer)

	return customer, nil
}

// GetByID returns a customer, serving repeat reads from the cache. Cached
// copies never carry the SSN ciphertext.
func (s *Service) GetByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	if cached := s.cache.Get(ctx, customerID); cached != nil {
		return cached, nil
	}

	customer, err := s.store.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	s.cache.Set(ctx, customer)
	return customer, nil
}

// GetByUserID returns the customer linked to an identity-service user.
func (s *Service) GetByUserID(ctx context.Context, userID id.UserID) (*models.Customer, error) {
	customer, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	return customer, nil
}

// Search matches customers by name fragment.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Customer, error) {
	if query == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "search query cannot be empty")
	}
	found, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search customers")
	}
	return found, nil
}

// ListByKycStatus returns all customers currently in the given status.
func (s *Service) ListByKycStatus(ctx context.Context, status models.KycStatus) ([]*models.Customer, error) {
	found, err := s.store.ListByKycStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list customers")
	}
	return found, nil
}

// UpdateParams carries a partial profile update. Nil fields are left
// untouched; a non-empty SSN replaces the stored ciphertext.
type UpdateParams struct {
	FirstName   *string
	LastName    *string
	DateOfBirth *time.Time
	SSN         string

	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	ZipCode      *string
	Country      *string
}

// Update applies a profile edit and announces it.
func (s *Service) Update(ctx context.Context, customerID id.CustomerID, params UpdateParams) (*models.Customer, error) {
	customer, err := s.store.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	if params.FirstName != nil {
		if *params.FirstName == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "first name cannot be empty")
		}
		customer.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		if *params.LastName == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "last name cannot be empty")
		}
		customer.LastName = *params.LastName
	}
	if params.DateOfBirth != nil {
		customer.DateOfBirth = *params.DateOfBirth
	}
	if params.SSN != "" {
		ciphertext, err := s.codec.Encrypt(params.SSN)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to protect customer PII")
		}
		customer.SSNEncrypted = ciphertext
	}
	if params.AddressLine1 != nil {
		customer.AddressLine1 = *params.AddressLine1
	}
	if params.AddressLine2 != nil {
		customer.AddressLine2 = *params.AddressLine2
	}
	if params.City != nil {
		customer.City = *params.City
	}
	if params.State != nil {
		customer.State = *params.State
	}
	if params.ZipCode != nil {
		customer.ZipCode = *params.ZipCode
	}
	if params.Country != nil {
		customer.Country = *params.Country
	}
	customer.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, customer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update customer")
	}

	s.cache.Invalidate(ctx, customer.ID)
	s.publisher.Publish(ctx, models.EventCustomerUpdated, customer)
	return customer, nil
}

// UpdateKycStatus applies a status transition and announces it. There is no
// legality check against the current status: the administrative override
// path must be able to force any status, and the document-driven callers
// only ever request transitions the ledger has already justified.
func (s *Service) UpdateKycStatus(ctx context.Context, customerID id.CustomerID, status models.KycStatus) (*models.Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.UpdateKycStatus",
		trace.WithAttributes(attribute.String("kyc.status", string(status))))
	defer span.End()

	customer, err := s.store.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	oldStatus := customer.KycStatus
	customer.ApplyKycStatus(status, requestcontext.Now(ctx))

	if err := s.store.Update(ctx, customer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update customer status")
	}

	s.cache.Invalidate(ctx, customer.ID)
	s.logger.Info("kyc status changed",
		"customer_id", customer.ID.String(),
		"old_status", string(oldStatus),
		"new_status", string(status),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.metrics.IncrementKycTransition(string(status))
	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionKycStatusChanged,
		CustomerID: customer.ID,
		Detail:     string(oldStatus) + " -> " + string(status),
	})

	switch status {
	case models.KycStatusApproved:
		s.publisher.Publish(ctx, models.EventKycApproved, customer)
	case models.KycStatusRejected:
		s.publisher.Publish(ctx, models.EventKycRejected, customer)
	default:
		s.publisher.Publish(ctx, models.EventCustomerUpdated, customer)
	}

	return customer, nil
}
