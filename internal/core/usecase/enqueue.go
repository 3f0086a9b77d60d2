package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/ports"
)

// EnqueueValidationUseCase checks a request at the boundary and hands it to
// the worker pool, so malformed payloads are rejected before they are queued.
type EnqueueValidationUseCase struct {
	schema   ports.ExtractionSchema
	requests ports.RequestPublisher
}

func NewEnqueueValidationUseCase(schema ports.ExtractionSchema, requests ports.RequestPublisher) *EnqueueValidationUseCase {
	return &EnqueueValidationUseCase{schema: schema, requests: requests}
}

func (uc *EnqueueValidationUseCase) Enqueue(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if uc.schema != nil {
		if err := uc.schema.ValidateRequest(payload); err != nil {
			return err
		}
	}
	if _, err := decodeRequest(payload); err != nil {
		return err
	}
	if err := uc.requests.PublishValidationRequest(ctx, payload); err != nil {
		return fmt.Errorf("enqueue validation request: %w", err)
	}
	return nil
}
