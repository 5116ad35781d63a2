package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

func (s *PostgresStore) CreateEscalation(ctx context.Context, esc *domain.Escalation) error {
	const query = `
        INSERT INTO escalations (request_id, escalated_at, escalated_by, reason, sla_breached,
            escalated_to_staff_id, escalated_to_department_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return s.q.QueryRow(ctx, query,
		esc.RequestID,
		esc.EscalatedAt,
		esc.EscalatedBy,
		esc.Reason,
		esc.SLABreached,
		esc.EscalatedToStaffID,
		esc.EscalatedToDepartmentID,
	).Scan(&esc.ID)
}

func (s *PostgresStore) GetEscalation(ctx context.Context, id string) (*domain.Escalation, error) {
	const query = `
        SELECT id, request_id, escalated_at, escalated_by, reason, sla_breached,
               escalated_to_staff_id, escalated_to_department_id, resolved_at, resolution_note
        FROM escalations WHERE id=$1`
	return s.fetchEscalation(ctx, query, id)
}

func (s *PostgresStore) GetOpenEscalation(ctx context.Context, requestID string) (*domain.Escalation, error) {
	const query = `
        SELECT id, request_id, escalated_at, escalated_by, reason, sla_breached,
               escalated_to_staff_id, escalated_to_department_id, resolved_at, resolution_note
        FROM escalations WHERE request_id=$1 AND resolved_at IS NULL
        ORDER BY escalated_at DESC LIMIT 1`
	return s.fetchEscalation(ctx, query, requestID)
}

func (s *PostgresStore) fetchEscalation(ctx context.Context, query string, arg any) (*domain.Escalation, error) {
	var esc domain.Escalation
	if err := s.q.QueryRow(ctx, query, arg).Scan(
		&esc.ID,
		&esc.RequestID,
		&esc.EscalatedAt,
		&esc.EscalatedBy,
		&esc.Reason,
		&esc.SLABreached,
		&esc.EscalatedToStaffID,
		&esc.EscalatedToDepartmentID,
		&esc.ResolvedAt,
		&esc.ResolutionNote,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &esc, nil
}

func (s *PostgresStore) UpdateEscalation(ctx context.Context, esc *domain.Escalation) error {
	const query = `
        UPDATE escalations SET reason=$1, sla_breached=$2, escalated_to_staff_id=$3,
            escalated_to_department_id=$4, resolved_at=$5, resolution_note=$6
        WHERE id=$7`
	cmd, err := s.q.Exec(ctx, query,
		esc.Reason,
		esc.SLABreached,
		esc.EscalatedToStaffID,
		esc.EscalatedToDepartmentID,
		esc.ResolvedAt,
		esc.ResolutionNote,
		esc.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
