package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

type requestPublisherFake struct {
	payloads []string
	err      error
}

func (f *requestPublisherFake) PublishValidationRequest(_ context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func TestEnqueuePublishesCheckedRequest(t *testing.T) {
	schema := &schemaFake{}
	requests := &requestPublisherFake{}
	uc := NewEnqueueValidationUseCase(schema, requests)

	payload := `{"documents":[{"documentId":"INV-1","documentType":"invoice","fields":{}}]}`
	if err := uc.Enqueue(context.Background(), []byte(payload)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if schema.payload != payload {
		t.Fatalf("schema not consulted")
	}
	if len(requests.payloads) != 1 || requests.payloads[0] != payload {
		t.Fatalf("unexpected published payloads %v", requests.payloads)
	}
}

func TestEnqueueRejectsBeforePublishing(t *testing.T) {
	requests := &requestPublisherFake{}
	schemaErr := domain.WrapError(domain.ErrInvalidInput, "validate request", errors.New("documents: required"))

	uc := NewEnqueueValidationUseCase(&schemaFake{err: schemaErr}, requests)
	if err := uc.Enqueue(context.Background(), []byte("{}")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected schema rejection, got %v", err)
	}

	uc = NewEnqueueValidationUseCase(nil, requests)
	if err := uc.Enqueue(context.Background(), []byte(`{"documents":[]} trailing`)); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected decode rejection, got %v", err)
	}
	if len(requests.payloads) != 0 {
		t.Fatalf("rejected payloads must not be queued: %v", requests.payloads)
	}
}

func TestEnqueueKeepsPublishErrorKind(t *testing.T) {
	down := domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("connection closed"))
	uc := NewEnqueueValidationUseCase(nil, &requestPublisherFake{err: down})
	err := uc.Enqueue(context.Background(), []byte(`{"documents":[]}`))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
