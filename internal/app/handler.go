package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yourusername/fabriq-ai-query/models"
)

// NewRouter builds the HTTP surface: the AI query endpoint plus a health
// check. The calling route is expected to sit behind the host's admin
// authorization; this service trusts its caller.
func NewRouter(pipeline *Pipeline, requestTimeout time.Duration, logger *zap.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Post("/api/ai-query", handleQuery(pipeline, logger))

	return router
}

// handleQuery decodes the question, runs the pipeline and maps the error
// taxonomy onto status codes.
func handleQuery(pipeline *Pipeline, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request models.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			writeJSON(w, http.StatusBadRequest, &models.QueryResponse{
				OK:    false,
				Role:  models.RoleUser,
				Error: "Invalid JSON request body.",
			})
			return
		}

		start := time.Now()
		response, err := pipeline.Ask(r.Context(), request.Text())
		logger.Info("ai query handled",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Bool("ok", response.OK),
			zap.String("planner_source", string(response.PlannerSource)),
			zap.Duration("elapsed", time.Since(start)))

		writeJSON(w, statusFor(err), response)
	}
}

// statusFor maps the taxonomy one-to-one to HTTP status codes: 400 for
// empty/off-topic questions, 403 for refused operations, 500 for everything
// the caller cannot fix.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrEmptyInput), errors.Is(err, models.ErrOffTopic):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrBlockedDestructive),
		errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrForbiddenOperation),
		errors.Is(err, models.ErrDisallowedCollection),
		errors.Is(err, models.ErrDisallowedMethod):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
