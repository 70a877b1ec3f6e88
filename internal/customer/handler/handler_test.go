package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bankflow/internal/audit"
	"bankflow/internal/customer/events"
	custstore "bankflow/internal/customer/store/customer"
	docstore "bankflow/internal/customer/store/document"
	"bankflow/internal/jwttoken"
	"bankflow/internal/pii"
	"bankflow/internal/storage"
	"bankflow/pkg/secrets"

	custsvc "bankflow/internal/customer/service/customer"
	docsvc "bankflow/internal/customer/service/document"
)

const adminToken = "override-token"

type apiFixture struct {
	router   http.Handler
	jwt      *jwttoken.JWTService
	auditor  *audit.Recorder
	auditLog *audit.InMemory
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	codec, err := pii.NewCodec("handler-test-passphrase")
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}

	auditLog := audit.NewInMemory()
	auditor := audit.NewRecorder(auditLog, audit.WithLogger(logger))

	publisher := events.New(nil, "customer-events", events.WithLogger(logger))
	customers := custsvc.New(custstore.NewInMemory(), codec, publisher,
		custsvc.WithLogger(logger), custsvc.WithAudit(auditor))
	documents := docsvc.New(docstore.NewInMemory(), customers, storage.NewMemoryStore(),
		docsvc.WithLogger(logger), docsvc.WithAudit(auditor))

	jwtSvc := jwttoken.NewJWTService("handler-test-signing-key", "bankflow", "bankflow-api")

	adminHash, err := secrets.Hash(adminToken)
	if err != nil {
		t.Fatalf("failed to hash admin token: %v", err)
	}

	h := New(customers, documents, auditLog, logger, nil, jwttoken.NewJWTServiceAdapter(jwtSvc), adminHash)
	r := chi.NewRouter()
	h.Register(r)

	return &apiFixture{router: r, jwt: jwtSvc, auditor: auditor, auditLog: auditLog}
}

// flushAudit drains the recorder's queue into the store.
func (f *apiFixture) flushAudit(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.auditor.Run(ctx); err != nil {
		t.Fatalf("failed to flush audit recorder: %v", err)
	}
}

func (f *apiFixture) bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := f.jwt.GenerateAccessToken(uuid.New(), role, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return "Bearer " + token
}

func (f *apiFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) createCustomer(t *testing.T, token string) CustomerResponse {
	t.Helper()
	payload := map[string]string{
		"userId":      uuid.New().String(),
		"firstName":   "Maya",
		"lastName":    "Chen",
		"dateOfBirth": "1991-04-17",
		"ssn":         "123-45-6789",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/customers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	rec := f.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating customer, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CustomerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode customer response: %v", err)
	}
	return resp
}

func (f *apiFixture) uploadDocument(t *testing.T, token, customerID, docType string) DocumentResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "scan.pdf")
	if err != nil {
		t.Fatalf("failed to build multipart form: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader("document bytes")); err != nil {
		t.Fatalf("failed to write file part: %v", err)
	}
	if err := mw.WriteField("documentType", docType); err != nil {
		t.Fatalf("failed to write documentType field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/customers/"+customerID+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", token)
	rec := f.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 uploading document, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp DocumentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode document response: %v", err)
	}
	return resp
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/customers/"+uuid.New().String(), nil)
	// No Authorization header set
	rec := f.do(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/customers/"+uuid.New().String(), nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = f.do(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestCreateAndGetCustomer(t *testing.T) {
	f := newAPIFixture(t)
	token := f.bearer(t, "user")

	created := f.createCustomer(t, token)
	if created.ID == "" {
		t.Fatalf("expected customer id in response")
	}
	if created.KycStatus != "PENDING" {
		t.Fatalf("expected new customer PENDING, got %s", created.KycStatus)
	}
	if !created.HasSSNOnFile {
		t.Fatalf("expected hasSsnOnFile true when ssn was supplied")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/customers/"+created.ID, nil)
	req.Header.Set("Authorization", token)
	rec := f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching customer, got %d", rec.Code)
	}

	// The SSN must not leak through the read path in any field.
	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode raw response: %v", err)
	}
	for key, value := range raw {
		s, ok := value.(string)
		if !ok {
			continue
		}
		if strings.Contains(s, "123-45-6789") || strings.Contains(s, "123456789") {
			t.Fatalf("ssn leaked through response field %q", key)
		}
		if key == "ssn" || key == "ssnEncrypted" {
			t.Fatalf("response carries forbidden field %q", key)
		}
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	f := newAPIFixture(t)
	token := f.bearer(t, "user")

	payload := map[string]string{
		"userId":      "not-a-uuid",
		"firstName":   "",
		"lastName":    "Chen",
		"dateOfBirth": "17/04/1991",
		"ssn":         "12-345",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/customers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	rec := f.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload, got %d", rec.Code)
	}

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	for _, field := range []string{"userId", "firstName", "dateOfBirth", "ssn"} {
		if resp.Fields[field] == "" {
			t.Fatalf("expected field error for %q, got %v", field, resp.Fields)
		}
	}
}

func TestDuplicateCustomerConflict(t *testing.T) {
	f := newAPIFixture(t)
	token := f.bearer(t, "user")

	userID := uuid.New().String()
	payload := map[string]string{
		"userId":      userID,
		"firstName":   "Maya",
		"lastName":    "Chen",
		"dateOfBirth": "1991-04-17",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/customers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	if rec := f.do(t, req); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first create, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/customers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	if rec := f.do(t, req); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate user link, got %d", rec.Code)
	}
}

func TestKycOverrideAccessControl(t *testing.T) {
	f := newAPIFixture(t)
	userToken := f.bearer(t, "user")
	complianceToken := f.bearer(t, "compliance")

	created := f.createCustomer(t, userToken)
	body, _ := json.Marshal(map[string]string{"kycStatus": "APPROVED"})
	url := "/api/customers/" + created.ID + "/kyc-status"

	// Compliance role without the operator token is not enough.
	req := httptest.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", complianceToken)
	if rec := f.do(t, req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin token, got %d", rec.Code)
	}

	// The operator token without the compliance role is not enough either.
	req = httptest.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", userToken)
	req.Header.Set("X-Admin-Token", adminToken)
	if rec := f.do(t, req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without compliance role, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", complianceToken)
	req.Header.Set("X-Admin-Token", adminToken)
	rec := f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 applying override, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CustomerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode customer response: %v", err)
	}
	if resp.KycStatus != "APPROVED" {
		t.Fatalf("expected APPROVED after override, got %s", resp.KycStatus)
	}
	if resp.KycVerifiedAt == nil {
		t.Fatalf("expected kycVerifiedAt stamped on approval")
	}
}

func TestDocumentLifecycleViaHandlers(t *testing.T) {
	f := newAPIFixture(t)
	userToken := f.bearer(t, "user")
	complianceToken := f.bearer(t, "compliance")

	created := f.createCustomer(t, userToken)

	first := f.uploadDocument(t, userToken, created.ID, "PASSPORT")
	if first.Status != "PENDING" {
		t.Fatalf("expected uploaded document PENDING, got %s", first.Status)
	}
	second := f.uploadDocument(t, userToken, created.ID, "PROOF_OF_ADDRESS")

	req := httptest.NewRequest(http.MethodGet, "/api/customers/"+created.ID+"/documents", nil)
	req.Header.Set("Authorization", userToken)
	rec := f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing documents, got %d", rec.Code)
	}
	var docs []DocumentResponse
	if err := json.NewDecoder(rec.Body).Decode(&docs); err != nil {
		t.Fatalf("failed to decode document list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	for _, docID := range []string{first.ID, second.ID} {
		req = httptest.NewRequest(http.MethodPut, "/api/documents/"+docID+"/verify", nil)
		req.Header.Set("Authorization", complianceToken)
		rec = f.do(t, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 verifying document, got %d: %s", rec.Code, rec.Body.String())
		}
		var verified DocumentResponse
		if err := json.NewDecoder(rec.Body).Decode(&verified); err != nil {
			t.Fatalf("failed to decode verified document: %v", err)
		}
		if verified.Status != "VERIFIED" {
			t.Fatalf("expected VERIFIED, got %s", verified.Status)
		}
		if verified.VerifiedBy == nil {
			t.Fatalf("expected verifiedBy recorded")
		}
	}

	// Both documents verified pushes the customer to APPROVED.
	req = httptest.NewRequest(http.MethodGet, "/api/customers/"+created.ID, nil)
	req.Header.Set("Authorization", userToken)
	rec = f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching customer, got %d", rec.Code)
	}
	var customer CustomerResponse
	if err := json.NewDecoder(rec.Body).Decode(&customer); err != nil {
		t.Fatalf("failed to decode customer: %v", err)
	}
	if customer.KycStatus != "APPROVED" {
		t.Fatalf("expected APPROVED after full verification, got %s", customer.KycStatus)
	}
}

func TestVerifyRequiresComplianceRole(t *testing.T) {
	f := newAPIFixture(t)
	userToken := f.bearer(t, "user")

	created := f.createCustomer(t, userToken)
	doc := f.uploadDocument(t, userToken, created.ID, "PASSPORT")

	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+doc.ID+"/verify", nil)
	req.Header.Set("Authorization", userToken)
	if rec := f.do(t, req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 verifying without compliance role, got %d", rec.Code)
	}
}

func TestRejectDocument(t *testing.T) {
	f := newAPIFixture(t)
	userToken := f.bearer(t, "user")
	complianceToken := f.bearer(t, "compliance")

	created := f.createCustomer(t, userToken)
	doc := f.uploadDocument(t, userToken, created.ID, "PASSPORT")

	// A rejection without a reason is refused.
	body, _ := json.Marshal(map[string]string{"reason": ""})
	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+doc.ID+"/reject", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", complianceToken)
	if rec := f.do(t, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 rejecting without reason, got %d", rec.Code)
	}

	body, _ = json.Marshal(map[string]string{"reason": "document is illegible"})
	req = httptest.NewRequest(http.MethodPut, "/api/documents/"+doc.ID+"/reject", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", complianceToken)
	rec := f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 rejecting document, got %d: %s", rec.Code, rec.Body.String())
	}
	var rejected DocumentResponse
	if err := json.NewDecoder(rec.Body).Decode(&rejected); err != nil {
		t.Fatalf("failed to decode rejected document: %v", err)
	}
	if rejected.Status != "REJECTED" {
		t.Fatalf("expected REJECTED, got %s", rejected.Status)
	}
	if rejected.RejectionReason != "document is illegible" {
		t.Fatalf("expected rejection reason preserved, got %q", rejected.RejectionReason)
	}

	// A rejected document takes the customer with it.
	req = httptest.NewRequest(http.MethodGet, "/api/customers/"+created.ID, nil)
	req.Header.Set("Authorization", userToken)
	rec = f.do(t, req)
	var customer CustomerResponse
	if err := json.NewDecoder(rec.Body).Decode(&customer); err != nil {
		t.Fatalf("failed to decode customer: %v", err)
	}
	if customer.KycStatus != "REJECTED" {
		t.Fatalf("expected customer REJECTED, got %s", customer.KycStatus)
	}
}

func TestDeleteDocument(t *testing.T) {
	f := newAPIFixture(t)
	token := f.bearer(t, "user")

	created := f.createCustomer(t, token)
	doc := f.uploadDocument(t, token, created.ID, "PASSPORT")

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+doc.ID, nil)
	req.Header.Set("Authorization", token)
	if rec := f.do(t, req); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting document, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+doc.ID, nil)
	req.Header.Set("Authorization", token)
	if rec := f.do(t, req); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestUploadUnknownDocumentType(t *testing.T) {
	f := newAPIFixture(t)
	token := f.bearer(t, "user")

	created := f.createCustomer(t, token)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "scan.pdf")
	_, _ = io.Copy(part, strings.NewReader("document bytes"))
	_ = mw.WriteField("documentType", "LIBRARY_CARD")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/customers/"+created.ID+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", token)
	if rec := f.do(t, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown document type, got %d", rec.Code)
	}
}

func TestAuditTrailEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	userToken := f.bearer(t, "user")
	complianceToken := f.bearer(t, "compliance")

	created := f.createCustomer(t, userToken)
	doc := f.uploadDocument(t, userToken, created.ID, "PASSPORT")

	body, _ := json.Marshal(map[string]string{"reason": "blurred photo"})
	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+doc.ID+"/reject", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", complianceToken)
	if rec := f.do(t, req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 rejecting document, got %d", rec.Code)
	}
	f.flushAudit(t)

	// The trail is compliance-only.
	req = httptest.NewRequest(http.MethodGet, "/api/customers/"+created.ID+"/audit", nil)
	req.Header.Set("Authorization", userToken)
	if rec := f.do(t, req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 reading trail without compliance role, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/customers/"+created.ID+"/audit", nil)
	req.Header.Set("Authorization", complianceToken)
	rec := f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading trail, got %d: %s", rec.Code, rec.Body.String())
	}

	var entries []AuditEntryResponse
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("failed to decode audit trail: %v", err)
	}
	// Newest first: the rejection-driven status change, the rejection
	// itself, and the review opened by the upload.
	if len(entries) != 3 {
		t.Fatalf("expected 3 trail entries, got %d", len(entries))
	}
	if entries[0].Action != "kyc.status_changed" {
		t.Fatalf("expected kyc.status_changed first, got %s", entries[0].Action)
	}
	if entries[0].Detail != "IN_REVIEW -> REJECTED" {
		t.Fatalf("expected transition detail, got %q", entries[0].Detail)
	}
	if entries[1].Action != "document.rejected" {
		t.Fatalf("expected document.rejected second, got %s", entries[1].Action)
	}
	if entries[2].Action != "kyc.status_changed" {
		t.Fatalf("expected review-opening entry last, got %s", entries[2].Action)
	}
	if entries[1].Detail != "blurred photo" {
		t.Fatalf("expected rejection reason in trail detail, got %q", entries[1].Detail)
	}
	if entries[1].ActorID == "" {
		t.Fatalf("expected verifier recorded as trail actor")
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	f := newAPIFixture(t)
	token := f.bearer(t, "user")

	req := httptest.NewRequest(http.MethodGet, "/api/customers/"+uuid.New().String(), nil)
	req.Header.Set("Authorization", token)
	if rec := f.do(t, req); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown customer, got %d", rec.Code)
	}
}
