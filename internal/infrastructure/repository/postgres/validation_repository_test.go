package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/infrastructure/resilience"
)

func newRepoWithMock(t *testing.T, executor *resilience.Executor) (*ValidationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewValidationRepository(db, executor), mock, func() { _ = db.Close() }
}

func sampleRun() *domain.ValidationRun {
	return &domain.ValidationRun{
		ID:              "2f1b8c1e-9d1c-4c55-9a43-1f7a0b1e2d3c",
		ContractVersion: domain.ContractVersion,
		DocumentCount:   2,
		CreatedAt:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Report: domain.ValidationReport{
			Metrics: domain.Metrics{OverallConsistency: 91.5},
			CriticalDiscrepancies: []domain.Discrepancy{
				{Kind: domain.DiscrepancyMismatch, Severity: domain.SeverityError, GroupID: "weight.gross"},
			},
		},
	}
}

func TestSaveInsertsReportJSON(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	run := sampleRun()
	mock.ExpectExec("INSERT INTO validation_runs").
		WithArgs(run.ID, "1", 2, 91.5, 1, sqlmock.AnyArg(), run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(context.Background(), run); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveDuplicateIsInvalidInput(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	mock.ExpectExec("INSERT INTO validation_runs").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	err := repo.Save(context.Background(), sampleRun())
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveRetriesConnectionFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	}))
	defer done()

	mock.ExpectExec("INSERT INTO validation_runs").
		WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})
	mock.ExpectExec("INSERT INTO validation_runs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(context.Background(), sampleRun()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveSurfacesTemporaryFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	mock.ExpectExec("INSERT INTO validation_runs").
		WillReturnError(&pgconn.PgError{Code: "57P01", Message: "admin shutdown"})

	if err := repo.Save(context.Background(), sampleRun()); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	mock.ExpectQuery("SELECT id, contract_version, document_count").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDDecodesReport(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	run := sampleRun()
	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rows := sqlmock.NewRows([]string{"id", "contract_version", "document_count", "report", "created_at"}).
		AddRow(run.ID, run.ContractVersion, run.DocumentCount, reportJSON, run.CreatedAt)
	mock.ExpectQuery("SELECT id, contract_version, document_count").
		WithArgs(run.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Report.Metrics.OverallConsistency != 91.5 || len(got.Report.CriticalDiscrepancies) != 1 {
		t.Fatalf("unexpected decoded report %+v", got.Report)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Fatalf("expected created_at %s, got %s", run.CreatedAt, got.CreatedAt)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS validation_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
