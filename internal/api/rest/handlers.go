package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
	verificationsvc "github.com/covertrack/coc-verification-backend/internal/service/verification"
)

// VerificationService is the application entry point the handlers call into.
type VerificationService interface {
	VerifyDocument(ctx context.Context, req verificationsvc.VerifyDocumentRequest) (*verificationsvc.VerificationResult, error)
	GetVerification(ctx context.Context, id uuid.UUID) (*verificationsvc.VerificationResult, error)
}

// Handler serves the verification REST surface.
type Handler struct {
	service  VerificationService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the REST handler
func NewHandler(service VerificationService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes returns the router with all endpoints and middleware attached
func (h *Handler) Routes(rateLimit RateLimitSettings) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/verifications", h.handleVerifyDocument)
	mux.HandleFunc("GET /api/v1/verifications/{id}", h.handleGetVerification)
	mux.HandleFunc("GET /healthz", h.handleHealth)

	return chain(mux,
		recoveryMiddleware,
		requestIDMiddleware,
		tracingMiddleware,
		loggingMiddleware,
		rateLimitMiddleware(rateLimit),
	)
}

func (h *Handler) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	var req VerifyDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("INVALID_JSON", "request body is not valid JSON").WithCause(err))
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, errors.NewValidationError("INVALID_REQUEST", err.Error()))
		return
	}
	for _, requirement := range req.Requirements {
		if !requirement.CoverageType.IsValid() {
			writeError(w, errors.NewValidationError("UNSUPPORTED_COVERAGE_TYPE",
				"unsupported coverage type: "+string(requirement.CoverageType)))
			return
		}
	}

	svcReq := verificationsvc.VerifyDocumentRequest{
		Data:            req.ExtractedData,
		Requirements:    req.Requirements,
		Metadata:        req.Metadata,
		FileName:        req.FileName,
		DocumentHash:    req.DocumentHash,
		SubcontractorID: req.SubcontractorID,
		ProjectState:    req.ProjectState,
	}
	if req.ProjectEndDate != nil {
		t := req.ProjectEndDate.Time
		svcReq.ProjectEndDate = &t
	}

	result, err := h.service.VerifyDocument(r.Context(), svcReq)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "verification failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, errors.NewValidationError("INVALID_ID", "verification id must be a UUID"))
		return
	}

	result, err := h.service.GetVerification(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
