package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/engine"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
)

type engineFake struct {
	report domain.ValidationReport
	err    error
	docs   []domain.DocumentExtraction
}

func (f *engineFake) Validate(docs []domain.DocumentExtraction) (domain.ValidationReport, error) {
	f.docs = docs
	return f.report, f.err
}

type schemaFake struct {
	err     error
	payload string
}

func (f *schemaFake) ValidateRequest(payload []byte) error {
	f.payload = string(payload)
	return f.err
}

type repoFake struct {
	saved  *domain.ValidationRun
	runs   map[string]*domain.ValidationRun
	err    error
	getErr error
}

func (f *repoFake) Save(_ context.Context, run *domain.ValidationRun) error {
	if f.err != nil {
		return f.err
	}
	copyRun := *run
	f.saved = &copyRun
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.ValidationRun, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	run, ok := f.runs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get run", errors.New("missing"))
	}
	return run, nil
}

type publisherFake struct {
	published []string
	err       error
}

func (f *publisherFake) PublishValidationResult(_ context.Context, run *domain.ValidationRun) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, run.ID)
	return nil
}

type observerFake struct {
	calls int
	err   error
}

func (f *observerFake) ObserveValidation(_ *domain.ValidationReport, _ time.Duration, err error) {
	f.calls++
	f.err = err
}

func fixedUseCase(uc *ValidateShipmentUseCase) *ValidateShipmentUseCase {
	uc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	uc.newID = func() string { return "2f1b8c1e-9d1c-4c55-9a43-1f7a0b1e2d3c" }
	return uc
}

func TestValidateSavesAndPublishesRun(t *testing.T) {
	eng := &engineFake{report: domain.ValidationReport{Metrics: domain.Metrics{OverallConsistency: 87.5}}}
	repo := &repoFake{}
	pub := &publisherFake{}
	obs := &observerFake{}
	uc := fixedUseCase(NewValidateShipmentUseCase(eng, nil, repo, pub, obs))

	docs := []domain.DocumentExtraction{{DocumentID: "INV-1", DocumentType: domain.DocInvoice}}
	run, err := uc.Validate(context.Background(), docs)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if run.ID != "2f1b8c1e-9d1c-4c55-9a43-1f7a0b1e2d3c" || run.ContractVersion != domain.ContractVersion || run.DocumentCount != 1 {
		t.Fatalf("unexpected run envelope %+v", run)
	}
	if repo.saved == nil || repo.saved.Report.Metrics.OverallConsistency != 87.5 {
		t.Fatalf("expected saved run, got %+v", repo.saved)
	}
	if len(pub.published) != 1 || pub.published[0] != run.ID {
		t.Fatalf("expected one published run, got %v", pub.published)
	}
	if obs.calls != 1 || obs.err != nil {
		t.Fatalf("expected one successful observation, got %d (%v)", obs.calls, obs.err)
	}
}

func TestValidateWithoutOptionalCollaborators(t *testing.T) {
	uc := NewValidateShipmentUseCase(&engineFake{}, nil, nil, nil, nil)
	run, err := uc.Validate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if run.ID == "" || run.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", run)
	}
}

func TestValidateEngineErrorIsObservedAndReturned(t *testing.T) {
	engineErr := domain.AggregationError("report.build", "boom")
	obs := &observerFake{}
	repo := &repoFake{}
	uc := NewValidateShipmentUseCase(&engineFake{err: engineErr}, nil, repo, nil, obs)

	_, err := uc.Validate(context.Background(), nil)
	if !domain.IsKind(err, domain.ErrAggregationInconsistency) {
		t.Fatalf("expected aggregation inconsistency, got %v", err)
	}
	if obs.err == nil {
		t.Fatalf("observer should see the failure")
	}
	if repo.saved != nil {
		t.Fatalf("failed runs must not be saved")
	}
}

func TestValidatePublishError(t *testing.T) {
	uc := NewValidateShipmentUseCase(&engineFake{}, nil, nil, &publisherFake{err: errors.New("queue down")}, nil)
	_, err := uc.Validate(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "publish validation result") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestValidatePayloadChecksSchemaFirst(t *testing.T) {
	schemaErr := domain.WrapError(domain.ErrInvalidInput, "schema", errors.New("documents is required"))
	eng := &engineFake{}
	uc := NewValidateShipmentUseCase(eng, &schemaFake{err: schemaErr}, nil, nil, nil)

	_, err := uc.ValidatePayload(context.Background(), []byte(`{}`))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if eng.docs != nil {
		t.Fatalf("engine must not run on a rejected payload")
	}
}

func TestValidatePayloadDecodesNestedFields(t *testing.T) {
	eng := &engineFake{}
	schema := &schemaFake{}
	uc := NewValidateShipmentUseCase(eng, schema, nil, nil, nil)

	payload := `{"documents":[{"documentId":"INV-1","documentType":"Commercial Invoice","fields":{"shipper":{"name":{"value":"Acme","confidence":0.8}},"Gross Weight":"37 kg"}}]}`
	if _, err := uc.ValidatePayload(context.Background(), []byte(payload)); err != nil {
		t.Fatalf("ValidatePayload() error = %v", err)
	}
	if schema.payload != payload {
		t.Fatalf("schema should see the raw payload")
	}
	if len(eng.docs) != 1 {
		t.Fatalf("expected one decoded document, got %d", len(eng.docs))
	}
	doc := eng.docs[0]
	if doc.DocumentType != domain.DocInvoice {
		t.Fatalf("expected invoice, got %s", doc.DocumentType)
	}
	if got := doc.Fields["shipper.name"]; got.Text() != "Acme" || got.Confidence != 0.8 {
		t.Fatalf("unexpected flattened field %+v", got)
	}
	if got := doc.Fields["Gross Weight"]; got.Confidence != domain.DefaultConfidence {
		t.Fatalf("bare scalars default to full confidence, got %+v", got)
	}
}

func TestValidatePayloadRejectsTrailingData(t *testing.T) {
	uc := NewValidateShipmentUseCase(&engineFake{}, nil, nil, nil, nil)
	_, err := uc.ValidatePayload(context.Background(), []byte(`{"documents":[]} {"documents":[]}`))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	id := "2f1b8c1e-9d1c-4c55-9a43-1f7a0b1e2d3c"
	repo := &repoFake{runs: map[string]*domain.ValidationRun{id: {ID: id}}}
	uc := NewValidateShipmentUseCase(&engineFake{}, nil, repo, nil, nil)

	run, err := uc.GetByID(context.Background(), id)
	if err != nil || run.ID != id {
		t.Fatalf("GetByID() = %+v, %v", run, err)
	}
	if _, err := uc.GetByID(context.Background(), "not-a-uuid"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for malformed id, got %v", err)
	}
	if _, err := uc.GetByID(context.Background(), "0b6f0c38-55a4-4a8e-8a57-0d0e0c6c8f11"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	disabled := NewValidateShipmentUseCase(&engineFake{}, nil, nil, nil, nil)
	if _, err := disabled.GetByID(context.Background(), id); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found with persistence disabled, got %v", err)
	}
}

func TestValidateWithRealEngine(t *testing.T) {
	eng, err := engine.New(registry.Default(), engine.Options{})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	uc := NewValidateShipmentUseCase(eng, nil, nil, nil, nil)
	payload := `{"documents":[
		{"documentId":"AWB-1","documentType":"air_waybill","fields":{"Gross Weight":{"value":"37 KGS","confidence":0.9}}},
		{"documentId":"PL-1","documentType":"packing_list","fields":{"Gross Weight":{"value":"37KG","confidence":0.8}}}
	]}`
	run, err := uc.ValidatePayload(context.Background(), []byte(payload))
	if err != nil {
		t.Fatalf("ValidatePayload() error = %v", err)
	}
	var found bool
	for _, rec := range run.Report.FieldComparisons {
		if rec.GroupID == "weight.gross" {
			found = true
			if rec.Status != domain.MatchSemantic {
				t.Fatalf("expected semantic gross weight, got %s", rec.Status)
			}
		}
	}
	if !found {
		t.Fatalf("expected a gross weight comparison")
	}
}
