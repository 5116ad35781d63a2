package repository

import (
	"context"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

func (s *PostgresStore) AppendHistory(ctx context.Context, entry *domain.StatusHistoryEntry) error {
	const query = `
        INSERT INTO status_history (request_id, kind, old_status, new_status, actor_id, actor_role, note)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return s.q.QueryRow(ctx, query,
		entry.RequestID,
		entry.Kind,
		entry.OldStatus,
		entry.NewStatus,
		entry.ActorID,
		entry.ActorRole,
		entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (s *PostgresStore) ListHistory(ctx context.Context, requestID string) ([]domain.StatusHistoryEntry, error) {
	const query = `
        SELECT id, request_id, kind, old_status, new_status, actor_id, actor_role, note, created_at
        FROM status_history WHERE request_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := s.q.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Kind,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
