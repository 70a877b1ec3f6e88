// Package handler exposes the customer and document REST API.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bankflow/internal/audit"
	"bankflow/internal/customer/models"
	custsvc "bankflow/internal/customer/service/customer"
	docsvc "bankflow/internal/customer/service/document"
	"bankflow/internal/platform/metrics"
	"bankflow/internal/platform/middleware"
	id "bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
	"bankflow/pkg/platform/httputil"
	"bankflow/pkg/requestcontext"
)

// CustomerService defines the customer operations the API exposes.
type CustomerService interface {
	Create(ctx context.Context, params custsvc.CreateParams) (*models.Customer, error)
	GetByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	GetByUserID(ctx context.Context, userID id.UserID) (*models.Customer, error)
	Search(ctx context.Context, query string) ([]*models.Customer, error)
	ListByKycStatus(ctx context.Context, status models.KycStatus) ([]*models.Customer, error)
	Update(ctx context.Context, customerID id.CustomerID, params custsvc.UpdateParams) (*models.Customer, error)
	UpdateKycStatus(ctx context.Context, customerID id.CustomerID, status models.KycStatus) (*models.Customer, error)
}

// DocumentService defines the document operations the API exposes.
type DocumentService interface {
	Upload(ctx context.Context, params docsvc.UploadParams) (*models.Document, error)
	List(ctx context.Context, customerID id.CustomerID) ([]*models.Document, error)
	Get(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	Verify(ctx context.Context, docID id.DocumentID, verifierID id.VerifierID) (*models.Document, error)
	Reject(ctx context.Context, docID id.DocumentID, reason string, verifierID id.VerifierID) (*models.Document, error)
	Delete(ctx context.Context, docID id.DocumentID) error
}

// AuditLog is the read side of the compliance audit trail.
type AuditLog interface {
	ListByCustomer(ctx context.Context, customerID id.CustomerID, limit int) ([]audit.Entry, error)
}

// Handler handles customer and document endpoints.
type Handler struct {
	customers      CustomerService
	documents      DocumentService
	audits         AuditLog
	logger         *slog.Logger
	metrics        *metrics.Metrics
	jwtValidator   middleware.JWTValidator
	adminTokenHash string
}

// New creates a new customer API Handler.
func New(
	customers CustomerService,
	documents DocumentService,
	audits AuditLog,
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	adminTokenHash string) *Handler {
	return &Handler{
		customers:      customers,
		documents:      documents,
		audits:         audits,
		logger:         logger,
		metrics:        m,
		jwtValidator:   jwtValidator,
		adminTokenHash: adminTokenHash,
	}
}

// Register registers the API routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.RequestTime)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(30 * time.Second))
	api.Use(h.metrics.LatencyMiddleware)
	api.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	api.Route("/customers", func(r chi.Router) {
		r.Post("/", h.handleCreateCustomer)
		r.Get("/search", h.handleSearchCustomers)
		r.Get("/user/{userId}", h.handleGetCustomerByUser)
		r.Get("/kyc-status/{status}", h.handleListByKycStatus)

		r.Route("/{customerId}", func(r chi.Router) {
			r.Get("/", h.handleGetCustomer)
			r.Put("/", h.handleUpdateCustomer)

			// Forcing a status is the administrative override: it needs
			// the compliance role and the ops-held override token.
			r.With(
				middleware.RequireRole(middleware.RoleCompliance, h.logger),
				middleware.RequireAdminToken(h.adminTokenHash, h.logger),
			).Put("/kyc-status", h.handleUpdateKycStatus)

			r.With(middleware.RequireRole(middleware.RoleCompliance, h.logger)).
				Get("/audit", h.handleListAuditTrail)

			r.Post("/documents", h.handleUploadDocument)
			r.Get("/documents", h.handleListDocuments)
		})
	})

	api.Route("/documents/{documentId}", func(r chi.Router) {
		r.Get("/", h.handleGetDocument)
		r.Delete("/", h.handleDeleteDocument)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleCompliance, h.logger))
			r.Put("/verify", h.handleVerifyDocument)
			r.Put("/reject", h.handleRejectDocument)
		})
	})

	r.Mount("/api", api)
}

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	req.Normalize()

	params, err := req.Validate(requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.customers.Create(ctx, params)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to create customer")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

func (h *Handler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.customers.GetByID(ctx, customerID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load customer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *Handler) handleGetCustomerByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.customers.GetByUserID(ctx, userID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load customer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *Handler) handleSearchCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := h.customers.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to search customers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponses(customers))
}

func (h *Handler) handleListByKycStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := models.ParseKycStatus(chi.URLParam(r, "status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	customers, err := h.customers.ListByKycStatus(ctx, status)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list customers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponses(customers))
}

func (h *Handler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	params, err := req.Validate(requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.customers.Update(ctx, customerID, params)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update customer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponse(customer))
}

func (h *Handler) handleUpdateKycStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req UpdateKycStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	status, err := req.Validate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "kyc status override requested",
		"customer_id", customerID.String(),
		"target_status", string(status),
		"operator", middleware.GetUserID(ctx),
		"request_id", middleware.GetRequestID(ctx),
	)

	customer, err := h.customers.UpdateKycStatus(ctx, customerID, status)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update kyc status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCustomerResponse(customer))
}

// writeServiceError logs server-class failures and translates everything
// through the shared error envelope.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	status := dErrors.ToHTTPStatus(dErrors.CodeOf(err))
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
