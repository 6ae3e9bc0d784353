package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"remitdesk/internal/models"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// AuditRepository handles console audit journal access.
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record appends an entry. ID and CreatedAt are filled in when empty.
func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	payload := entry.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	query := `
		INSERT INTO console_audit (id, actor_id, actor_email, action, subject_type, subject_id, payload, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.ActorEmail,
		entry.Action,
		entry.SubjectType,
		entry.SubjectID,
		[]byte(payload),
		entry.RequestID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List retrieves entries matching the filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditEntry, error) {
	var conditions []string
	var args []any
	argNum := 1

	if filter.SubjectType != "" {
		conditions = append(conditions, fmt.Sprintf("subject_type = $%d", argNum))
		args = append(args, filter.SubjectType)
		argNum++
	}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", argNum))
		args = append(args, filter.SubjectID)
		argNum++
	}

	if filter.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", argNum))
		args = append(args, *filter.ActorID)
		argNum++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, actor_email, action, subject_type, subject_id, payload,
			COALESCE(request_id, ''), created_at
		FROM console_audit
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		where,
		argNum,
		argNum+1,
	)
	args = append(args, limit, offset)

	return r.scanMany(ctx, query, args...)
}

func (r *AuditRepository) scanMany(ctx context.Context, query string, args ...any) ([]*models.AuditEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *AuditRepository) scan(s scanner) (*models.AuditEntry, error) {
	var e models.AuditEntry
	var payload []byte

	err := s.Scan(
		&e.ID,
		&e.ActorID,
		&e.ActorEmail,
		&e.Action,
		&e.SubjectType,
		&e.SubjectID,
		&payload,
		&e.RequestID,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = json.RawMessage(payload)

	return &e, nil
}
