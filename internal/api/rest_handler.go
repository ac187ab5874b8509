package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
	"txguard/internal/domain"
	"txguard/internal/lock"
	"txguard/internal/repository"
	"txguard/internal/service"
	"txguard/pkg/crypto"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// VerificationService is the part of service.VerificationService the HTTP
// layer uses.
type VerificationService interface {
	Verify(ctx context.Context, req domain.VerificationRequest) (*service.VerificationResult, error)
	Preview(ctx context.Context, req domain.VerificationRequest) (*service.PreviewResult, error)
	ListAudits(ctx context.Context, transactionID string) ([]domain.VerificationAudit, error)
	VerifyApproval(ctx context.Context, token, transactionID, userID string) error
	SyncAccount(ctx context.Context, account *domain.Account) error
	RecordTransaction(ctx context.Context, record *domain.TransactionRecord) error
}

type APIHandler struct {
	service        VerificationService
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(svc VerificationService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		service:        svc,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type ApprovalRequest struct {
	Token         string `json:"token"`
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
}

type ApprovalResponse struct {
	Valid         bool   `json:"valid"`
	TransactionID string `json:"transaction_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req domain.VerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	result, err := h.service.Verify(ctx, req)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	// Every decision, including REJECTED, is a successful evaluation.
	h.sendJSON(w, result, http.StatusOK)
}

func (h *APIHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req domain.VerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	preview, err := h.service.Preview(ctx, req)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendJSON(w, preview, http.StatusOK)
}

func (h *APIHandler) ListAuditsHandler(w http.ResponseWriter, r *http.Request) {
	transactionID := r.URL.Query().Get("transaction_id")
	if transactionID == "" {
		h.sendError(w, "transaction_id is required", http.StatusBadRequest, "MISSING_ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	audits, err := h.service.ListAudits(ctx, transactionID)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendJSON(w, audits, http.StatusOK)
}

func (h *APIHandler) VerifyApprovalHandler(w http.ResponseWriter, r *http.Request) {
	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.Token == "" || req.TransactionID == "" || req.UserID == "" {
		h.sendError(w, "token, transaction_id and user_id are required", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	if err := h.service.VerifyApproval(r.Context(), req.Token, req.TransactionID, req.UserID); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendJSON(w, ApprovalResponse{Valid: true, TransactionID: req.TransactionID}, http.StatusOK)
}

func (h *APIHandler) SyncAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var account domain.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	account.ID = chi.URLParam(r, "id")

	if err := h.service.SyncAccount(ctx, &account); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendJSON(w, account, http.StatusOK)
}

func (h *APIHandler) RecordTransactionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var record domain.TransactionRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := h.service.RecordTransaction(ctx, &record); err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendJSON(w, record, http.StatusCreated)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
	case errors.Is(err, repository.ErrNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, service.ErrAccountRestricted):
		h.sendError(w, err.Error(), http.StatusForbidden, "ACCOUNT_RESTRICTED")
	case errors.Is(err, service.ErrAccountOwnership):
		h.sendError(w, "Account does not belong to user", http.StatusForbidden, "ACCOUNT_FORBIDDEN")
	case errors.Is(err, service.ErrCurrencyMismatch):
		h.sendError(w, err.Error(), http.StatusUnprocessableEntity, "CURRENCY_MISMATCH")
	case errors.Is(err, lock.ErrLockNotAcquired):
		h.sendError(w, "Another verification for this account is in progress", http.StatusConflict, "ACCOUNT_BUSY")
	case errors.Is(err, repository.ErrDuplicate):
		h.sendError(w, err.Error(), http.StatusConflict, "DUPLICATE")
	case errors.Is(err, crypto.ErrTokenExpired):
		h.sendError(w, "Approval token expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
	case errors.Is(err, crypto.ErrInvalidSignature), errors.Is(err, crypto.ErrMalformedToken):
		h.sendError(w, "Invalid approval token", http.StatusUnauthorized, "INVALID_TOKEN")
	case errors.Is(err, service.ErrEvaluationUnavailable):
		h.sendError(w, "Transaction could not be evaluated", http.StatusServiceUnavailable, "EVALUATION_UNAVAILABLE")
	default:
		h.logger.Error("Request failed", slog.String("error", err.Error()))
		h.sendError(w, "Internal server error", http.StatusInternalServerError, "SERVER_ERROR")
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.HealthCheckHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/verifications", h.VerifyHandler)
		r.Post("/verifications/preview", h.PreviewHandler)
		r.Get("/audits", h.ListAuditsHandler)
		r.Post("/approvals/verify", h.VerifyApprovalHandler)
		r.Put("/accounts/{id}", h.SyncAccountHandler)
		r.Post("/transactions", h.RecordTransactionHandler)
	})
}

// NewRouter builds the chi router with request IDs, slog access logging and
// panic recovery.
func NewRouter(h *APIHandler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	h.RegisterRoutes(r)

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// request_id is added by the logger from the context.
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
