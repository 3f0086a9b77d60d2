package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/infrastructure/resilience"
)

type ValidationRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

// NewValidationRepository returns a repository over db. A nil executor runs
// every statement once.
func NewValidationRepository(db *sql.DB, executor *resilience.Executor) *ValidationRepository {
	return &ValidationRepository{db: db, executor: executor}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ValidationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS validation_runs (
	id TEXT PRIMARY KEY,
	contract_version TEXT NOT NULL,
	document_count INTEGER NOT NULL,
	overall_consistency DOUBLE PRECISION NOT NULL,
	discrepancy_count INTEGER NOT NULL,
	report JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validation_runs_created_at ON validation_runs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ValidationRepository) Save(ctx context.Context, run *domain.ValidationRun) error {
	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	err = r.execute(ctx, resilience.OpSaveRun, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO validation_runs (
	id, contract_version, document_count, overall_consistency, discrepancy_count, report, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
			run.ID, run.ContractVersion, run.DocumentCount, run.Report.Metrics.OverallConsistency,
			len(run.Report.CriticalDiscrepancies), reportJSON, run.CreatedAt,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.WrapError(domain.ErrInvalidInput, "insert validation run", fmt.Errorf("run %s already exists", run.ID))
		}
		return wrapTemporaryIfNeeded("insert validation run", err)
	}
	return nil
}

func (r *ValidationRepository) GetByID(ctx context.Context, id string) (*domain.ValidationRun, error) {
	var (
		run       domain.ValidationRun
		reportRaw []byte
	)
	err := r.execute(ctx, resilience.OpGetRun, func(ctx context.Context) error {
		row := r.db.QueryRowContext(ctx, `
SELECT id, contract_version, document_count, report, created_at
FROM validation_runs
WHERE id = $1
`, id)
		return row.Scan(&run.ID, &run.ContractVersion, &run.DocumentCount, &reportRaw, &run.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get validation run", fmt.Errorf("validation run not found: %s", id))
		}
		return nil, wrapTemporaryIfNeeded("scan validation run", err)
	}

	if err := json.Unmarshal(reportRaw, &run.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &run, nil
}

func (r *ValidationRepository) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if r.executor == nil {
		return fn(ctx)
	}
	return r.executor.Execute(ctx, operation, fn, classifyPostgresError)
}

// classifyPostgresError retries connection-level failures only. Missing rows
// and constraint violations are answers, not faults.
func classifyPostgresError(err error) resilience.ErrorClassification {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exceptions, class 57 operator intervention.
		transient := strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57") || pgErr.Code == "40001"
		return resilience.ErrorClassification{Retryable: transient, RecordFailure: transient}
	}
	if errors.Is(err, sql.ErrConnDone) || pgconn.Timeout(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyPostgresError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
