package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrExecutionTerminal indicates an update against a completed or failed execution.
var ErrExecutionTerminal = errors.New("execution already terminal")

const executionColumns = "id, job_type, triggered_by, status, title_id, params_json, result_json, error_message, items_processed, items_succeeded, items_failed, started_at, completed_at"

const defaultHistoryLimit = 50

func scanExecution(scanner interface{ Scan(dest ...any) error }) (*JobExecution, error) {
	var (
		id           string
		jobType      string
		triggeredBy  string
		status       string
		titleID      sql.NullInt64
		paramsJSON   sql.NullString
		resultJSON   sql.NullString
		errorMessage sql.NullString
		processed    int
		succeeded    int
		failed       int
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobType,
		&triggeredBy,
		&status,
		&titleID,
		&paramsJSON,
		&resultJSON,
		&errorMessage,
		&processed,
		&succeeded,
		&failed,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	execution := &JobExecution{
		ID:             id,
		Type:           JobType(jobType),
		Trigger:        Trigger(triggeredBy),
		Status:         JobStatus(status),
		ParamsJSON:     paramsJSON.String,
		ResultJSON:     resultJSON.String,
		ErrorMessage:   errorMessage.String,
		ItemsProcessed: processed,
		ItemsSucceeded: succeeded,
		ItemsFailed:    failed,
	}
	if titleID.Valid {
		v := titleID.Int64
		execution.TitleID = &v
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		execution.StartedAt = started
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			execution.CompletedAt = &completed
		}
	}
	return execution, nil
}

// CreateExecution inserts a new execution record.
func (s *Store) CreateExecution(ctx context.Context, execution *JobExecution) error {
	if execution.StartedAt.IsZero() {
		execution.StartedAt = time.Now().UTC()
	}
	if execution.Status == "" {
		execution.Status = JobQueued
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO job_executions (
            id, job_type, triggered_by, status, title_id, params_json,
            result_json, error_message, items_processed, items_succeeded,
            items_failed, started_at, completed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		execution.ID,
		string(execution.Type),
		string(execution.Trigger),
		string(execution.Status),
		nullableInt64(execution.TitleID),
		nullableString(execution.ParamsJSON),
		nullableString(execution.ResultJSON),
		nullableString(execution.ErrorMessage),
		execution.ItemsProcessed,
		execution.ItemsSucceeded,
		execution.ItemsFailed,
		formatTime(execution.StartedAt),
		nullableTime(execution.CompletedAt),
	); err != nil {
		return fmt.Errorf("create execution: %w", err)
	}
	return nil
}

// UpdateExecution persists the mutable fields of an execution. Terminal
// records are immutable; updating one fails.
func (s *Store) UpdateExecution(ctx context.Context, execution *JobExecution) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE job_executions SET
            status = ?,
            result_json = ?,
            error_message = ?,
            items_processed = ?,
            items_succeeded = ?,
            items_failed = ?,
            completed_at = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		string(execution.Status),
		nullableString(execution.ResultJSON),
		nullableString(execution.ErrorMessage),
		execution.ItemsProcessed,
		execution.ItemsSucceeded,
		execution.ItemsFailed,
		nullableTime(execution.CompletedAt),
		execution.ID,
		string(JobCompleted),
		string(JobFailed),
	)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update execution rows: %w", err)
	}
	if affected == 0 {
		existing, getErr := s.GetExecution(ctx, execution.ID)
		if getErr == nil && existing != nil && existing.IsTerminal() {
			return fmt.Errorf("%w: %s", ErrExecutionTerminal, execution.ID)
		}
		return fmt.Errorf("update execution: no row for %s", execution.ID)
	}
	return nil
}

// GetExecution fetches an execution by id. Returns nil when absent.
func (s *Store) GetExecution(ctx context.Context, id string) (*JobExecution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+executionColumns+` FROM job_executions WHERE id = ?`, id)
	execution, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}
	return execution, nil
}

// ListExecutions returns execution history newest first, narrowed by the filter.
func (s *Store) ListExecutions(ctx context.Context, filter HistoryFilter) ([]*JobExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM job_executions`
	var conditions []string
	var args []any
	if filter.Type != "" {
		conditions = append(conditions, "job_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.TitleID != nil {
		conditions = append(conditions, "title_id = ?")
		args = append(args, *filter.TitleID)
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var executions []*JobExecution
	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		executions = append(executions, execution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return executions, nil
}

// RunningExecutions returns executions not yet terminal, oldest first.
func (s *Store) RunningExecutions(ctx context.Context) ([]*JobExecution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+executionColumns+` FROM job_executions
         WHERE status IN (?, ?) ORDER BY started_at ASC`,
		string(JobQueued), string(JobRunning))
	if err != nil {
		return nil, fmt.Errorf("list running executions: %w", err)
	}
	defer rows.Close()

	var executions []*JobExecution
	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		executions = append(executions, execution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate running executions: %w", err)
	}
	return executions, nil
}

// Statistics aggregates executions by status since the cutoff. A nil
// cutoff spans all history.
func (s *Store) Statistics(ctx context.Context, since *time.Time) ([]StatusAggregate, error) {
	query := `SELECT status, COUNT(1),
            COALESCE(SUM(items_processed), 0),
            COALESCE(SUM(items_succeeded), 0),
            COALESCE(SUM(items_failed), 0)
        FROM job_executions`
	var args []any
	if since != nil {
		query += " WHERE started_at >= ?"
		args = append(args, formatTime(*since))
	}
	query += " GROUP BY status ORDER BY status"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	defer rows.Close()

	var aggregates []StatusAggregate
	for rows.Next() {
		var agg StatusAggregate
		var status string
		if err := rows.Scan(&status, &agg.Count, &agg.TotalProcessed, &agg.TotalSucceeded, &agg.TotalFailed); err != nil {
			return nil, fmt.Errorf("scan statistics: %w", err)
		}
		agg.Status = JobStatus(status)
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statistics: %w", err)
	}
	return aggregates, nil
}
