package admission

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"finance/internal/models"
)

// Middleware returns HTTP middleware that enforces the admission gate, keyed
// by client IP. Every response carries X-RateLimit-* headers; denied requests
// get a 429 with a Retry-After header and a JSON error body.
func Middleware(gate *Gate) func(http.Handler) http.Handler {
	meter := otel.Meter("finance/admission")
	decisions, err := meter.Int64Counter(
		"admission.decisions",
		metric.WithDescription("Number of admission decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		slog.Warn("Failed to create admission decisions counter", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r)
			decision := gate.Admit(key, time.Now())

			if decisions != nil {
				decisions.Add(r.Context(), 1,
					metric.WithAttributes(attribute.Bool("allowed", decision.Allowed)))
			}

			// Always set rate limit headers
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", decision.ResetAt.Unix()))

			if !decision.Allowed {
				retryAfterSecs := int(time.Until(decision.ResetAt).Seconds()) + 1
				if retryAfterSecs < 1 {
					retryAfterSecs = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				errorResp := models.NewErrorResponse("Rate limit exceeded", models.ErrorCodeRateLimited)
				json.NewEncoder(w).Encode(errorResp)

				slog.Warn("Request rejected by admission gate",
					"key", key,
					"limit", decision.Limit,
					"retry_after", retryAfterSecs,
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
