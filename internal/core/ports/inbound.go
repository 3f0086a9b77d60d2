package ports

import (
	"context"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

// ShipmentValidator is the inbound contract for reconciling one shipment's
// document set.
type ShipmentValidator interface {
	Validate(ctx context.Context, documents []domain.DocumentExtraction) (*domain.ValidationRun, error)
	// ValidatePayload checks a raw ValidationRequest body against the
	// boundary schema before decoding and validating it.
	ValidatePayload(ctx context.Context, payload []byte) (*domain.ValidationRun, error)
}

// ValidationEnqueuer accepts a request for asynchronous validation; the run
// is announced on the result subject once a worker completes it.
type ValidationEnqueuer interface {
	Enqueue(ctx context.Context, payload []byte) error
}

// ValidationReader is the inbound read model for persisted runs.
type ValidationReader interface {
	GetByID(ctx context.Context, id string) (*domain.ValidationRun, error)
}
