package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/kirillkom/tradedoc-reconciler/internal/config"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/ports"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/logging"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg       config.Config
	validator ports.ShipmentValidator
	reader    ports.ValidationReader
	metrics   *metrics.HTTPServerMetrics
	health    func() map[string]string
	queue     ports.ValidationEnqueuer
}

func NewRouter(cfg config.Config, validator ports.ShipmentValidator, reader ports.ValidationReader) *Router {
	return &Router{
		cfg:       cfg,
		validator: validator,
		reader:    reader,
	}
}

// WithMetrics enables request instrumentation and the /metrics endpoint.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

// WithHealth attaches dependency states to /healthz.
func (rt *Router) WithHealth(fn func() map[string]string) *Router {
	rt.health = fn
	return rt
}

// WithQueue enables POST /v1/validations/async.
func (rt *Router) WithQueue(q ports.ValidationEnqueuer) *Router {
	rt.queue = q
	return rt
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (rt *Router) Handler() http.Handler {
	var onReject rejectionRecorder
	if rt.metrics != nil {
		onReject = func(reason string) { rt.metrics.RecordRejected(serviceName, reason) }
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/validations", rt.createValidation)
	api.HandleFunc("GET /v1/validations/{id}", rt.getValidation)
	if rt.queue != nil {
		api.HandleFunc("POST /v1/validations/async", rt.enqueueValidation)
	}
	var guarded http.Handler = api
	guarded = backpressureWithRecorder(guarded, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait, onReject)
	guarded = rateLimitMiddleware(guarded, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/", guarded)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if rt.health != nil {
		resp["dependencies"] = rt.health()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if rt.cfg.APIMaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, rt.cfg.APIMaxBodyBytes)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read request body", err)
	}
	return payload, nil
}

func (rt *Router) createValidation(w http.ResponseWriter, r *http.Request) {
	payload, err := rt.readBody(w, r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	run, err := rt.validator.ValidatePayload(r.Context(), payload)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("validation_completed",
		"validation_id", run.ID,
		"documents", run.DocumentCount,
		"overall_consistency", run.Report.Metrics.OverallConsistency,
		"discrepancies", len(run.Report.CriticalDiscrepancies),
	)
	w.Header().Set("Location", "/v1/validations/"+run.ID)
	writeJSON(w, http.StatusCreated, run)
}

type queuedResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

func (rt *Router) enqueueValidation(w http.ResponseWriter, r *http.Request) {
	payload, err := rt.readBody(w, r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.queue.Enqueue(r.Context(), payload); err != nil {
		rt.writeError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("validation_enqueued", "bytes", len(payload))
	writeJSON(w, http.StatusAccepted, queuedResponse{Status: "queued", RequestID: requestIDFromContext(r.Context())})
}

func (rt *Router) getValidation(w http.ResponseWriter, r *http.Request) {
	run, err := rt.reader.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request_failed", "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: message, RequestID: requestIDFromContext(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
