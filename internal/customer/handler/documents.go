package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"bankflow/internal/customer/models"
	docsvc "bankflow/internal/customer/service/document"
	"bankflow/internal/platform/middleware"
	id "bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
	"bankflow/pkg/platform/httputil"
)

// maxUploadBytes caps document uploads at 10 MiB.
const maxUploadBytes = 10 << 20

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart request"))
		return
	}

	docType, err := models.ParseDocumentType(strings.ToUpper(strings.TrimSpace(r.FormValue("documentType"))))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.NewValidation("invalid upload request",
			map[string]string{"file": "is required"}))
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(ctx, docsvc.UploadParams{
		CustomerID: customerID,
		Type:       docType,
		Number:     r.FormValue("documentNumber"),
		Filename:   header.Filename,
		Content:    file,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to upload document")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	docs, err := h.documents.List(ctx, customerID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list documents")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponses(docs))
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.documents.Get(ctx, docID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load document")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// verifierFromContext resolves the acting compliance operator from the
// authenticated request.
func verifierFromContext(r *http.Request) (id.VerifierID, error) {
	return id.ParseVerifierID(middleware.GetUserID(r.Context()))
}

func (h *Handler) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	verifierID, err := verifierFromContext(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid verifier identity"))
		return
	}

	doc, err := h.documents.Verify(ctx, docID, verifierID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to verify document")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleRejectDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	verifierID, err := verifierFromContext(r)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid verifier identity"))
		return
	}

	var req RejectDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	reason, err := req.Validate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.documents.Reject(ctx, docID, reason, verifierID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to reject document")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.documents.Delete(ctx, docID); err != nil {
		h.writeServiceError(ctx, w, err, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
