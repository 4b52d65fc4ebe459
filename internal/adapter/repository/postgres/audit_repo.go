package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase"
)

const auditColumns = `
	id, tenant_id, actor_id, action, resource_type, resource_id,
	request_id, reason, before_state, after_state, status, created_at`

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateTx inserts an audit log entry in the caller's transaction.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = ulid.Make().String()
	}

	before, err := marshalState(log.BeforeState)
	if err != nil {
		return err
	}
	after, err := marshalState(log.AfterState)
	if err != nil {
		return err
	}

	_, err = conn(r.db, tx).Exec(ctx, `
		INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		log.ID, log.TenantID, log.ActorID, string(log.Action), log.ResourceType, log.ResourceID,
		log.RequestID, log.Reason, before, after, string(log.Status), timeToPgTimestamptz(log.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List retrieves the tenant's audit logs, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	add("tenant_id = $%d", filter.TenantID)
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}
	if filter.ResourceType != "" {
		add("resource_type = $%d", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		add("resource_id = $%d", filter.ResourceID)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return collectRows(rows, scanAuditLog)
}

func marshalState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal audit state: %w", err)
	}
	return data, nil
}

func scanAuditLog(row pgx.Row) (*domain.AuditLog, error) {
	var (
		log            domain.AuditLog
		action, status string
		before, after  []byte
	)
	err := row.Scan(
		&log.ID, &log.TenantID, &log.ActorID, &action, &log.ResourceType, &log.ResourceID,
		&log.RequestID, &log.Reason, &before, &after, &status, &log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	log.Action = domain.AuditAction(action)
	log.Status = domain.AuditStatus(status)
	if len(before) > 0 {
		_ = json.Unmarshal(before, &log.BeforeState)
	}
	if len(after) > 0 {
		_ = json.Unmarshal(after, &log.AfterState)
	}
	return &log, nil
}
