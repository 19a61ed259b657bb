package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-llm-connections/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const DefaultAttemptPageSize = 50

// AttemptStore is the SQL attempt ledger. Each negotiation attempt is one
// row keyed by invocation id and attempt number.
type AttemptStore struct {
	db   *bun.DB
	repo repository.Repository[*attemptRecord]
}

func NewAttemptStore(db *bun.DB) (*AttemptStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*attemptRecord](db, attemptHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid attempt repository wiring: %w", err)
		}
	}
	return &AttemptStore{db: db, repo: repo}, nil
}

func NewAttemptStoreFromPersistence(client *persistence.Client) (*AttemptStore, error) {
	if client == nil {
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	}
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewAttemptStore(db)
}

func (s *AttemptStore) RecordAttempt(ctx context.Context, record core.AttemptRecord) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: attempt store is not configured")
	}
	invocationID := strings.TrimSpace(record.InvocationID)
	if invocationID == "" {
		return fmt.Errorf("sqlstore: attempt invocation id is required")
	}
	procedure := strings.TrimSpace(record.Procedure)
	if procedure == "" {
		return fmt.Errorf("sqlstore: attempt procedure is required")
	}
	if record.Attempt <= 0 {
		return fmt.Errorf("sqlstore: attempt number must be > 0")
	}
	startedAt := record.StartedAt.UTC()
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	row := &attemptRecord{
		ID:           uuid.NewString(),
		InvocationID: invocationID,
		ProjectID:    strings.TrimSpace(record.ProjectID),
		Procedure:    procedure,
		Format:       strings.TrimSpace(record.Format),
		Method:       strings.TrimSpace(record.Method),
		Attempt:      record.Attempt,
		StatusCode:   record.StatusCode,
		Outcome:      string(record.Outcome),
		Message:      record.Message,
		DurationMS:   record.Duration.Milliseconds(),
		StartedAt:    startedAt,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.repo.Create(ctx, row)
	return err
}

// ListAttempts returns matching attempts, newest first. A zero limit uses
// DefaultAttemptPageSize.
func (s *AttemptStore) ListAttempts(ctx context.Context, filter core.AttemptFilter) ([]core.AttemptRecord, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: attempt store is not configured")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultAttemptPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	selectors := []repository.SelectCriteria{
		repository.OrderBy("started_at DESC"),
		repository.SelectPaginate(limit, offset),
	}
	if projectID := strings.TrimSpace(filter.ProjectID); projectID != "" {
		selectors = append(selectors, repository.SelectBy("project_id", "=", projectID))
	}
	if procedure := strings.TrimSpace(filter.Procedure); procedure != "" {
		selectors = append(selectors, repository.SelectBy("procedure", "=", procedure))
	}
	if invocationID := strings.TrimSpace(filter.InvocationID); invocationID != "" {
		selectors = append(selectors, repository.SelectBy("invocation_id", "=", invocationID))
	}
	if outcome := strings.TrimSpace(string(filter.Outcome)); outcome != "" {
		selectors = append(selectors, repository.SelectBy("outcome", "=", outcome))
	}

	records, _, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return nil, err
	}
	out := make([]core.AttemptRecord, 0, len(records))
	for _, record := range records {
		out = append(out, attemptRecordToDomain(record))
	}
	return out, nil
}

// Prune deletes attempts started before cutoff and reports the row count.
func (s *AttemptStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: attempt store is not configured")
	}
	res, err := s.db.NewDelete().
		Model((*attemptRecord)(nil)).
		Where("started_at < ?", cutoff.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func attemptRecordToDomain(record *attemptRecord) core.AttemptRecord {
	if record == nil {
		return core.AttemptRecord{}
	}
	return core.AttemptRecord{
		InvocationID: record.InvocationID,
		ProjectID:    record.ProjectID,
		Procedure:    record.Procedure,
		Format:       record.Format,
		Method:       record.Method,
		Attempt:      record.Attempt,
		StatusCode:   record.StatusCode,
		Outcome:      core.AttemptOutcome(record.Outcome),
		Message:      record.Message,
		Duration:     time.Duration(record.DurationMS) * time.Millisecond,
		StartedAt:    record.StartedAt.UTC(),
	}
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
