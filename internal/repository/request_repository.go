package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

const requestColumns = `id, tracking_code, citizen_id, category, subcategory, title, description,
               priority, status, ward_id, department_id, assigned_staff_id, submitted_at,
               sla_due_at, resolved_at, closed_at, escalated, workload_released, resolution_notes,
               rejection_reason, version, created_at, updated_at`

func (s *PostgresStore) CreateRequest(ctx context.Context, req *domain.Request) error {
	const query = `
        INSERT INTO requests (tracking_code, citizen_id, category, subcategory, title, description,
            priority, status, ward_id, department_id, assigned_staff_id, submitted_at, sla_due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, version, created_at, updated_at`
	return s.q.QueryRow(ctx, query,
		req.TrackingCode,
		req.CitizenID,
		req.Category,
		req.Subcategory,
		req.Title,
		req.Description,
		req.Priority,
		req.Status,
		req.WardID,
		req.DepartmentID,
		req.AssignedStaffID,
		req.SubmittedAt,
		req.SLADueAt,
	).Scan(&req.ID, &req.Version, &req.CreatedAt, &req.UpdatedAt)
}

func (s *PostgresStore) UpdateRequest(ctx context.Context, req *domain.Request) error {
	const query = `
        UPDATE requests SET priority=$1, status=$2, ward_id=$3, department_id=$4,
            assigned_staff_id=$5, sla_due_at=$6, resolved_at=$7, closed_at=$8, escalated=$9,
            workload_released=$10, resolution_notes=$11, rejection_reason=$12,
            version=version+1, updated_at=NOW()
        WHERE id=$13 AND version=$14`
	cmd, err := s.q.Exec(ctx, query,
		req.Priority,
		req.Status,
		req.WardID,
		req.DepartmentID,
		req.AssignedStaffID,
		req.SLADueAt,
		req.ResolvedAt,
		req.ClosedAt,
		req.Escalated,
		req.WorkloadReleased,
		req.ResolutionNotes,
		req.RejectionReason,
		req.ID,
		req.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	req.Version++
	return nil
}

func (s *PostgresStore) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id=$1`, requestColumns)
	return s.fetchRequest(ctx, query, id)
}

func (s *PostgresStore) GetRequestByTrackingCode(ctx context.Context, code string) (*domain.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE tracking_code=$1`, requestColumns)
	return s.fetchRequest(ctx, query, code)
}

func (s *PostgresStore) fetchRequest(ctx context.Context, query string, arg any) (*domain.Request, error) {
	var req domain.Request
	if err := scanRequest(s.q.QueryRow(ctx, query, arg), &req); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *PostgresStore) ListRequests(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	base := fmt.Sprintf(`SELECT %s FROM requests`, requestColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CitizenID != nil {
		args = append(args, *filter.CitizenID)
		clauses = append(clauses, fmt.Sprintf("citizen_id=$%d", len(args)))
	}
	if filter.WardID != nil {
		args = append(args, *filter.WardID)
		clauses = append(clauses, fmt.Sprintf("ward_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.AssignedStaffID != nil {
		args = append(args, *filter.AssignedStaffID)
		clauses = append(clauses, fmt.Sprintf("assigned_staff_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		clauses = append(clauses, fmt.Sprintf("sla_due_at IS NOT NULL AND sla_due_at < $%d", len(args)))
	}
	if filter.SubmittedFrom != nil {
		args = append(args, *filter.SubmittedFrom)
		clauses = append(clauses, fmt.Sprintf("submitted_at >= $%d", len(args)))
	}
	if filter.SubmittedTo != nil {
		args = append(args, *filter.SubmittedTo)
		clauses = append(clauses, fmt.Sprintf("submitted_at <= $%d", len(args)))
	}
	if filter.Escalated != nil {
		args = append(args, *filter.Escalated)
		clauses = append(clauses, fmt.Sprintf("escalated=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Request
	for rows.Next() {
		var req domain.Request
		if err := scanRequest(rows, &req); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row, req *domain.Request) error {
	return row.Scan(
		&req.ID,
		&req.TrackingCode,
		&req.CitizenID,
		&req.Category,
		&req.Subcategory,
		&req.Title,
		&req.Description,
		&req.Priority,
		&req.Status,
		&req.WardID,
		&req.DepartmentID,
		&req.AssignedStaffID,
		&req.SubmittedAt,
		&req.SLADueAt,
		&req.ResolvedAt,
		&req.ClosedAt,
		&req.Escalated,
		&req.WorkloadReleased,
		&req.ResolutionNotes,
		&req.RejectionReason,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
}
