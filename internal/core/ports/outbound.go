package ports

import (
	"context"
	"time"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

// Reconciler runs the pure reconciliation pipeline.
type Reconciler interface {
	Validate(documents []domain.DocumentExtraction) (domain.ValidationReport, error)
}

// ValidationRepository persists validation runs.
type ValidationRepository interface {
	Save(ctx context.Context, run *domain.ValidationRun) error
	GetByID(ctx context.Context, id string) (*domain.ValidationRun, error)
}

// ResultPublisher announces completed runs to downstream consumers.
type ResultPublisher interface {
	PublishValidationResult(ctx context.Context, run *domain.ValidationRun) error
}

// RequestPublisher hands raw validation requests to the worker pool.
type RequestPublisher interface {
	PublishValidationRequest(ctx context.Context, payload []byte) error
}

// ValidationQueue carries asynchronous validation requests and results.
type ValidationQueue interface {
	ResultPublisher
	RequestPublisher
	SubscribeValidationRequests(ctx context.Context, handler func(ctx context.Context, payload []byte) error) error
}

// ExtractionSchema validates raw inbound payloads at the boundary.
type ExtractionSchema interface {
	ValidateRequest(payload []byte) error
}

// ValidationObserver records run outcomes.
type ValidationObserver interface {
	ObserveValidation(report *domain.ValidationReport, duration time.Duration, err error)
}
