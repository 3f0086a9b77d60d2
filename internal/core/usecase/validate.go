package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/ports"
)

// ValidateShipmentUseCase wraps the engine with run bookkeeping. The
// repository, publisher and observer are optional.
type ValidateShipmentUseCase struct {
	engine    ports.Reconciler
	schema    ports.ExtractionSchema
	repo      ports.ValidationRepository
	publisher ports.ResultPublisher
	observer  ports.ValidationObserver

	now   func() time.Time
	newID func() string
}

func NewValidateShipmentUseCase(
	engine ports.Reconciler,
	schema ports.ExtractionSchema,
	repo ports.ValidationRepository,
	publisher ports.ResultPublisher,
	observer ports.ValidationObserver,
) *ValidateShipmentUseCase {
	return &ValidateShipmentUseCase{
		engine:    engine,
		schema:    schema,
		repo:      repo,
		publisher: publisher,
		observer:  observer,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

func (uc *ValidateShipmentUseCase) ValidatePayload(ctx context.Context, payload []byte) (*domain.ValidationRun, error) {
	if uc.schema != nil {
		if err := uc.schema.ValidateRequest(payload); err != nil {
			return nil, err
		}
	}
	req, err := decodeRequest(payload)
	if err != nil {
		return nil, err
	}
	return uc.Validate(ctx, req.Documents)
}

func (uc *ValidateShipmentUseCase) Validate(ctx context.Context, documents []domain.DocumentExtraction) (*domain.ValidationRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := uc.engine.Validate(documents)
	if uc.observer != nil {
		if err != nil {
			uc.observer.ObserveValidation(nil, time.Since(start), err)
		} else {
			uc.observer.ObserveValidation(&report, time.Since(start), nil)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("reconcile documents: %w", err)
	}

	run := &domain.ValidationRun{
		ID:              uc.newID(),
		ContractVersion: domain.ContractVersion,
		DocumentCount:   len(documents),
		Report:          report,
		CreatedAt:       uc.now(),
	}

	if uc.repo != nil {
		if err := uc.repo.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("save validation run: %w", err)
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishValidationResult(ctx, run); err != nil {
			return nil, fmt.Errorf("publish validation result: %w", err)
		}
	}
	return run, nil
}

func (uc *ValidateShipmentUseCase) GetByID(ctx context.Context, id string) (*domain.ValidationRun, error) {
	if uc.repo == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get validation run", errors.New("run persistence is disabled"))
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get validation run", fmt.Errorf("malformed id %q", id))
	}
	run, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch validation run: %w", err)
	}
	return run, nil
}

func decodeRequest(payload []byte) (domain.ValidationRequest, error) {
	var req domain.ValidationRequest
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&req); err != nil {
		return domain.ValidationRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode validation request", err)
	}
	if dec.More() {
		return domain.ValidationRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode validation request", errors.New("trailing data after request body"))
	}
	return req, nil
}
