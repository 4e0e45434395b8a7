package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"finance/internal/finance"
	"finance/internal/models"
	"finance/internal/resilience"
	"finance/internal/version"
)

// Handlers contains HTTP handlers for the finance API
type Handlers struct {
	service finance.ServiceInterface
	probe   *resilience.HealthProbe
}

// NewHandlers creates a new handlers instance
func NewHandlers(service finance.ServiceInterface, probe *resilience.HealthProbe) *Handlers {
	return &Handlers{
		service: service,
		probe:   probe,
	}
}

// ListAccounts handles account list requests
// GET /api/v1/accounts
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, accounts)
}

// GetAccount handles single account requests
// GET /api/v1/accounts/{account_name_owner}
func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	account, err := h.service.GetAccount(r.Context(), vars["account_name_owner"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, account)
}

// SaveAccount handles account create/update requests
// PUT /api/v1/accounts/{account_name_owner}
func (h *Handlers) SaveAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var account models.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	account.AccountNameOwner = vars["account_name_owner"]

	if err := h.service.SaveAccount(r.Context(), &account); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, &account)
}

// DeleteAccount handles account deletion requests
// DELETE /api/v1/accounts/{account_name_owner}
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.service.DeleteAccount(r.Context(), vars["account_name_owner"]); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles category list requests
// GET /api/v1/categories
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, categories)
}

// SaveCategory handles category create/update requests
// PUT /api/v1/categories/{name}
func (h *Handlers) SaveCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var category models.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	category.Name = vars["name"]

	if err := h.service.SaveCategory(r.Context(), &category); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, &category)
}

// DeleteCategory handles category deletion requests
// DELETE /api/v1/categories/{name}
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.service.DeleteCategory(r.Context(), vars["name"]); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions handles transaction list requests for an account
// GET /api/v1/accounts/{account_name_owner}/transactions
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	transactions, err := h.service.ListTransactions(r.Context(), vars["account_name_owner"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, transactions)
}

// GetTransaction handles single transaction requests
// GET /api/v1/transactions/{guid}
func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	txn, err := h.service.GetTransaction(r.Context(), vars["guid"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, txn)
}

// CreateTransaction handles transaction creation requests
// POST /api/v1/accounts/{account_name_owner}/transactions
func (h *Handlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var txn models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	txn.AccountNameOwner = vars["account_name_owner"]

	if err := h.service.SaveTransaction(r.Context(), &txn); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, &txn)
}

// UpdateTransaction handles transaction update requests
// PUT /api/v1/transactions/{guid}
func (h *Handlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var txn models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	txn.GUID = vars["guid"]

	// Existing record required; updates never create new transactions.
	if _, err := h.service.GetTransaction(r.Context(), txn.GUID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := h.service.SaveTransaction(r.Context(), &txn); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, &txn)
}

// DeleteTransaction handles transaction deletion requests
// DELETE /api/v1/transactions/{guid}
func (h *Handlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.service.DeleteTransaction(r.Context(), vars["guid"]); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPayments handles payment list requests
// GET /api/v1/payments
func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, payments)
}

// CreatePayment handles payment creation requests
// POST /api/v1/payments
func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var payment models.Payment
	if err := json.NewDecoder(r.Body).Decode(&payment); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	if err := h.service.SavePayment(r.Context(), &payment); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, &payment)
}

// DeletePayment handles payment deletion requests
// DELETE /api/v1/payments/{guid}
func (h *Handlers) DeletePayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.service.DeletePayment(r.Context(), vars["guid"]); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles health check requests
// GET /health
// Reports the storage probe result alongside the circuit breaker state.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = version.Version
	response.AddComponent("api", models.StatusHealthy, "API is operational")

	statusCode := http.StatusOK
	if h.probe != nil {
		storageStatus := h.probe.Check(r.Context())
		if storageStatus.Healthy {
			response.AddComponent("storage", models.StatusHealthy,
				"breaker "+storageStatus.BreakerState)
		} else {
			response.Status = models.StatusUnhealthy
			response.AddComponent("storage", models.StatusUnhealthy,
				storageStatus.Detail+" (breaker "+storageStatus.BreakerState+")")
			statusCode = http.StatusServiceUnavailable
		}
	}

	h.writeJSONResponse(w, statusCode, response)
}

// writeServiceError maps service errors to HTTP responses. Unrecognized
// errors become 500s without leaking internals.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *finance.ServiceError
	if errors.As(err, &svcErr) {
		h.writeErrorResponse(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}
	slog.Error("Unhandled service error", "error", err)
	h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing to send to the client.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	h.writeJSONResponse(w, statusCode, errorResp)
}
