package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

func (s *PostgresStore) CreateStaff(ctx context.Context, staff *domain.StaffWorkload) error {
	const query = `
        INSERT INTO staff_members (name, email, password_hash, role, department_id, ward_id,
            availability, active_assignments, max_concurrent, performance_rating)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return s.q.QueryRow(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.DepartmentID,
		staff.WardID,
		staff.Availability,
		staff.ActiveAssignments,
		staff.MaxConcurrent,
		staff.PerformanceRating,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (s *PostgresStore) GetStaff(ctx context.Context, id string) (*domain.StaffWorkload, error) {
	const query = `
        SELECT id, name, email, password_hash, role, department_id, ward_id, availability,
               active_assignments, max_concurrent, performance_rating, created_at, updated_at
        FROM staff_members WHERE id=$1`
	return s.fetchStaff(ctx, query, id)
}

func (s *PostgresStore) GetStaffByEmail(ctx context.Context, email string) (*domain.StaffWorkload, error) {
	const query = `
        SELECT id, name, email, password_hash, role, department_id, ward_id, availability,
               active_assignments, max_concurrent, performance_rating, created_at, updated_at
        FROM staff_members WHERE email=$1`
	return s.fetchStaff(ctx, query, email)
}

func (s *PostgresStore) fetchStaff(ctx context.Context, query string, arg any) (*domain.StaffWorkload, error) {
	var staff domain.StaffWorkload
	if err := scanStaff(s.q.QueryRow(ctx, query, arg), &staff); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &staff, nil
}

func (s *PostgresStore) ListStaff(ctx context.Context, filter StaffFilter) ([]domain.StaffWorkload, error) {
	query := `
        SELECT id, name, email, password_hash, role, department_id, ward_id, availability,
               active_assignments, max_concurrent, performance_rating, created_at, updated_at
        FROM staff_members`
	args := []any{}
	clauses := []string{}

	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.WardID != nil {
		args = append(args, *filter.WardID)
		clauses = append(clauses, fmt.Sprintf("ward_id=$%d", len(args)))
	}
	if filter.Availability != nil {
		args = append(args, *filter.Availability)
		clauses = append(clauses, fmt.Sprintf("availability=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffWorkload
	for rows.Next() {
		var staff domain.StaffWorkload
		if err := scanStaff(rows, &staff); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}

// ReserveStaffCapacity is a single conditional write so concurrent
// assignments to the same member cannot lose updates.
func (s *PostgresStore) ReserveStaffCapacity(ctx context.Context, staffID string) error {
	const query = `
        UPDATE staff_members SET active_assignments=active_assignments+1, updated_at=NOW()
        WHERE id=$1 AND active_assignments < max_concurrent`
	cmd, err := s.q.Exec(ctx, query, staffID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := s.GetStaff(ctx, staffID); err != nil {
			return err
		}
		return ErrStaffAtCapacity
	}
	return nil
}

func (s *PostgresStore) ReleaseStaffCapacity(ctx context.Context, staffID string) error {
	const query = `
        UPDATE staff_members SET active_assignments=GREATEST(active_assignments-1, 0), updated_at=NOW()
        WHERE id=$1`
	cmd, err := s.q.Exec(ctx, query, staffID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateStaffAvailability(ctx context.Context, staffID string, availability domain.StaffAvailability) error {
	const query = `
        UPDATE staff_members SET availability=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := s.q.Exec(ctx, query, availability, staffID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStaff(row pgx.Row, staff *domain.StaffWorkload) error {
	return row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.PasswordHash,
		&staff.Role,
		&staff.DepartmentID,
		&staff.WardID,
		&staff.Availability,
		&staff.ActiveAssignments,
		&staff.MaxConcurrent,
		&staff.PerformanceRating,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	)
}
