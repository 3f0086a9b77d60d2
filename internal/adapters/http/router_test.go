package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/tradedoc-reconciler/internal/config"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/observability/metrics"
)

type validatorFake struct {
	err     error
	payload []byte
}

func (f *validatorFake) Validate(context.Context, []domain.DocumentExtraction) (*domain.ValidationRun, error) {
	return nil, errors.New("not used")
}

func (f *validatorFake) ValidatePayload(_ context.Context, payload []byte) (*domain.ValidationRun, error) {
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ValidationRun{ID: "run-1", ContractVersion: domain.ContractVersion, DocumentCount: 2}, nil
}

type readerFake struct {
	err error
}

func (f readerFake) GetByID(_ context.Context, id string) (*domain.ValidationRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ValidationRun{ID: id, ContractVersion: domain.ContractVersion}, nil
}

type enqueuerFake struct {
	payloads []string
	err      error
}

func (f *enqueuerFake) Enqueue(_ context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func newTestHandler(cfg config.Config) http.Handler {
	return NewRouter(cfg, &validatorFake{}, readerFake{}).Handler()
}

func TestCreateValidationReturnsRun(t *testing.T) {
	validator := &validatorFake{}
	handler := NewRouter(config.Config{}, validator, readerFake{}).Handler()

	body := `{"documents":[]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/validations", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if got := res.Header().Get("Location"); got != "/v1/validations/run-1" {
		t.Fatalf("unexpected location %q", got)
	}
	if string(validator.payload) != body {
		t.Fatalf("payload not forwarded: %q", validator.payload)
	}

	var run domain.ValidationRun
	if err := json.NewDecoder(res.Body).Decode(&run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.ID != "run-1" || run.DocumentCount != 2 {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestCreateValidationMapsInvalidInputTo400(t *testing.T) {
	validator := &validatorFake{err: domain.WrapError(domain.ErrInvalidInput, "validate request", errors.New("documents: missing"))}
	handler := NewRouter(config.Config{}, validator, readerFake{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/validations", strings.NewReader(`{}`))
	req.Header.Set("X-Request-ID", "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if !strings.Contains(resp.Error, "documents: missing") {
		t.Fatalf("expected cause in error, got %q", resp.Error)
	}
	if resp.RequestID != "req-42" {
		t.Fatalf("expected request id echoed, got %q", resp.RequestID)
	}
}

func TestCreateValidationRejectsOversizedBody(t *testing.T) {
	handler := newTestHandler(config.Config{APIMaxBodyBytes: 8})

	req := httptest.NewRequest(http.MethodPost, "/v1/validations", bytes.NewReader(bytes.Repeat([]byte("x"), 64)))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestCreateValidationHidesInternalErrors(t *testing.T) {
	validator := &validatorFake{err: errors.New("save validation run: connection refused")}
	handler := NewRouter(config.Config{}, validator, readerFake{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/validations", strings.NewReader(`{"documents":[]}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if strings.Contains(res.Body.String(), "connection refused") {
		t.Fatalf("internal error leaked: %s", res.Body.String())
	}
}

func TestGetValidationByID(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/validations/abc", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var run domain.ValidationRun
	if err := json.NewDecoder(res.Body).Decode(&run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.ID != "abc" {
		t.Fatalf("expected path id, got %q", run.ID)
	}
}

func TestGetValidationReturns404ForNotFound(t *testing.T) {
	handler := NewRouter(
		config.Config{},
		&validatorFake{},
		readerFake{err: domain.WrapError(domain.ErrNotFound, "fetch validation run", errors.New("id=missing"))},
	).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/validations/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestHealthzReportsDependencies(t *testing.T) {
	handler := NewRouter(config.Config{}, &validatorFake{}, readerFake{}).
		WithHealth(func() map[string]string { return map[string]string{"postgres.save": "closed"} }).
		Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.Status != "ok" || resp.Dependencies["postgres.save"] != "closed" {
		t.Fatalf("unexpected health response %+v", resp)
	}
}

func TestMetricsEndpointExposesRequestSeries(t *testing.T) {
	handler := NewRouter(config.Config{}, &validatorFake{}, readerFake{}).
		WithMetrics(metrics.NewHTTPServerMetrics("api")).
		Handler()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/validations/abc", nil))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `path="/v1/validations/{id}"`) {
		t.Fatalf("expected normalized path label in metrics output")
	}
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrInvalidInput, "op", errors.New("x")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrNotFound, "op", errors.New("x")), http.StatusNotFound},
		{domain.WrapError(domain.ErrTemporary, "op", errors.New("x")), http.StatusServiceUnavailable},
		{domain.WrapError(domain.ErrInvalidInput, "read", &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Fatalf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestEnqueueValidationReturns202(t *testing.T) {
	queue := &enqueuerFake{}
	handler := NewRouter(config.Config{}, &validatorFake{}, readerFake{}).WithQueue(queue).Handler()

	body := `{"documents":[]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/validations/async", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if len(queue.payloads) != 1 || queue.payloads[0] != body {
		t.Fatalf("payload not enqueued: %v", queue.payloads)
	}
	var resp queuedResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "queued" || resp.RequestID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestEnqueueValidationMapsQueueOutageTo503(t *testing.T) {
	queue := &enqueuerFake{err: domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("connection closed"))}
	handler := NewRouter(config.Config{}, &validatorFake{}, readerFake{}).WithQueue(queue).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/validations/async", strings.NewReader(`{"documents":[]}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestEnqueueValidationNeedsQueue(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/validations/async", strings.NewReader(`{"documents":[]}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 without a queue, got %d", res.Code)
	}
}
