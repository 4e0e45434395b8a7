package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"finance/internal/models"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/api/v1/health" &&
					r.URL.Path != "/metrics"
			}),
		))
	}
}

// WithRateLimiter adds the admission gate middleware to the router.
func WithRateLimiter(middleware func(http.Handler) http.Handler) RouteOption {
	return func(r *mux.Router) {
		r.Use(middleware)
	}
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(handlers *Handlers, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/accounts", handlers.ListAccounts).Methods("GET")
	api.HandleFunc("/accounts/{account_name_owner}", handlers.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{account_name_owner}", handlers.SaveAccount).Methods("PUT")
	api.HandleFunc("/accounts/{account_name_owner}", handlers.DeleteAccount).Methods("DELETE")

	api.HandleFunc("/accounts/{account_name_owner}/transactions", handlers.ListTransactions).Methods("GET")
	api.HandleFunc("/accounts/{account_name_owner}/transactions", handlers.CreateTransaction).Methods("POST")
	api.HandleFunc("/transactions/{guid}", handlers.GetTransaction).Methods("GET")
	api.HandleFunc("/transactions/{guid}", handlers.UpdateTransaction).Methods("PUT")
	api.HandleFunc("/transactions/{guid}", handlers.DeleteTransaction).Methods("DELETE")

	api.HandleFunc("/categories", handlers.ListCategories).Methods("GET")
	api.HandleFunc("/categories/{name}", handlers.SaveCategory).Methods("PUT")
	api.HandleFunc("/categories/{name}", handlers.DeleteCategory).Methods("DELETE")

	api.HandleFunc("/payments", handlers.ListPayments).Methods("GET")
	api.HandleFunc("/payments", handlers.CreatePayment).Methods("POST")
	api.HandleFunc("/payments/{guid}", handlers.DeletePayment).Methods("DELETE")

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods("GET")

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)
	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	return router
}

// methodNotAllowedHandler handles requests with invalid HTTP methods
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	errorResp := models.NewErrorResponse("Method not allowed", models.ErrorCodeInvalidRequest)
	json.NewEncoder(w).Encode(errorResp)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	errorResp := models.NewErrorResponse("Resource not found", models.ErrorCodeNotFound)
	json.NewEncoder(w).Encode(errorResp)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "error", err, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				errorResp := models.NewErrorResponse("Internal server error", models.ErrorCodeInternalError)
				json.NewEncoder(w).Encode(errorResp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
