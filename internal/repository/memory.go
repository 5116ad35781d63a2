package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sandesh225/smartpokhara-sub002/internal/domain"
)

// MemoryStore is a mutex-guarded TxStore used by tests and by local runs
// without a Postgres DSN. Atomically takes a snapshot and restores it when
// the callback fails, matching the transactional contract.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
	// inTx marks a view handed to an Atomically callback; such views reuse
	// the already-held lock.
	inTx bool
}

type memoryState struct {
	requests    map[string]*domain.Request
	history     []*domain.StatusHistoryEntry
	escalations map[string]*domain.Escalation
	staff       map[string]*domain.StaffWorkload
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			requests:    make(map[string]*domain.Request),
			escalations: make(map[string]*domain.Escalation),
			staff:       make(map[string]*domain.StaffWorkload),
		},
	}
}

// Atomically runs fn under the store lock with snapshot rollback.
func (m *MemoryStore) Atomically(ctx context.Context, fn func(Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	view := &MemoryStore{state: m.state, inTx: true}
	if err := fn(view); err != nil {
		m.state.requests = snapshot.requests
		m.state.history = snapshot.history
		m.state.escalations = snapshot.escalations
		m.state.staff = snapshot.staff
		return err
	}
	return nil
}

func (m *MemoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryStore) CreateRequest(ctx context.Context, req *domain.Request) error {
	defer m.lock()()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.Version = 1
	req.CreatedAt = now
	req.UpdatedAt = now
	m.state.requests[req.ID] = cloneRequest(req)
	return nil
}

func (m *MemoryStore) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	defer m.lock()()
	stored, ok := m.state.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(stored), nil
}

func (m *MemoryStore) GetRequestByTrackingCode(ctx context.Context, code string) (*domain.Request, error) {
	defer m.lock()()
	for _, stored := range m.state.requests {
		if stored.TrackingCode == code {
			return cloneRequest(stored), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateRequest(ctx context.Context, req *domain.Request) error {
	defer m.lock()()
	stored, ok := m.state.requests[req.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != req.Version {
		return ErrVersionConflict
	}
	req.Version++
	req.UpdatedAt = time.Now().UTC()
	m.state.requests[req.ID] = cloneRequest(req)
	return nil
}

func (m *MemoryStore) ListRequests(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	defer m.lock()()
	var result []domain.Request
	for _, stored := range m.state.requests {
		if !matchRequest(stored, filter) {
			continue
		}
		result = append(result, *cloneRequest(stored))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	offset := filter.Offset
	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func matchRequest(req *domain.Request, filter RequestFilter) bool {
	if filter.CitizenID != nil && req.CitizenID != *filter.CitizenID {
		return false
	}
	if filter.WardID != nil && req.WardID != *filter.WardID {
		return false
	}
	if filter.DepartmentID != nil && req.DepartmentID != *filter.DepartmentID {
		return false
	}
	if filter.AssignedStaffID != nil {
		if req.AssignedStaffID == nil || *req.AssignedStaffID != *filter.AssignedStaffID {
			return false
		}
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if req.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.DueBefore != nil {
		if req.SLADueAt == nil || !req.SLADueAt.Before(*filter.DueBefore) {
			return false
		}
	}
	if filter.SubmittedFrom != nil && req.SubmittedAt.Before(*filter.SubmittedFrom) {
		return false
	}
	if filter.SubmittedTo != nil && req.SubmittedAt.After(*filter.SubmittedTo) {
		return false
	}
	if filter.Escalated != nil && req.Escalated != *filter.Escalated {
		return false
	}
	return true
}

func (m *MemoryStore) AppendHistory(ctx context.Context, entry *domain.StatusHistoryEntry) error {
	defer m.lock()()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	stored := *entry
	if entry.Note != nil {
		note := *entry.Note
		stored.Note = &note
	}
	m.state.history = append(m.state.history, &stored)
	return nil
}

func (m *MemoryStore) ListHistory(ctx context.Context, requestID string) ([]domain.StatusHistoryEntry, error) {
	defer m.lock()()
	var result []domain.StatusHistoryEntry
	for _, entry := range m.state.history {
		if entry.RequestID == requestID {
			result = append(result, *entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MemoryStore) CreateEscalation(ctx context.Context, esc *domain.Escalation) error {
	defer m.lock()()
	if esc.ID == "" {
		esc.ID = uuid.NewString()
	}
	m.state.escalations[esc.ID] = cloneEscalation(esc)
	return nil
}

func (m *MemoryStore) GetEscalation(ctx context.Context, id string) (*domain.Escalation, error) {
	defer m.lock()()
	stored, ok := m.state.escalations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEscalation(stored), nil
}

func (m *MemoryStore) GetOpenEscalation(ctx context.Context, requestID string) (*domain.Escalation, error) {
	defer m.lock()()
	for _, stored := range m.state.escalations {
		if stored.RequestID == requestID && stored.ResolvedAt == nil {
			return cloneEscalation(stored), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateEscalation(ctx context.Context, esc *domain.Escalation) error {
	defer m.lock()()
	if _, ok := m.state.escalations[esc.ID]; !ok {
		return ErrNotFound
	}
	m.state.escalations[esc.ID] = cloneEscalation(esc)
	return nil
}

func (m *MemoryStore) CreateStaff(ctx context.Context, staff *domain.StaffWorkload) error {
	defer m.lock()()
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	staff.CreatedAt = now
	staff.UpdatedAt = now
	copied := *staff
	m.state.staff[staff.ID] = &copied
	return nil
}

func (m *MemoryStore) GetStaff(ctx context.Context, id string) (*domain.StaffWorkload, error) {
	defer m.lock()()
	stored, ok := m.state.staff[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (m *MemoryStore) GetStaffByEmail(ctx context.Context, email string) (*domain.StaffWorkload, error) {
	defer m.lock()()
	for _, stored := range m.state.staff {
		if stored.Email == email {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListStaff(ctx context.Context, filter StaffFilter) ([]domain.StaffWorkload, error) {
	defer m.lock()()
	var result []domain.StaffWorkload
	for _, stored := range m.state.staff {
		if filter.DepartmentID != nil && stored.DepartmentID != *filter.DepartmentID {
			continue
		}
		if filter.WardID != nil && stored.WardID != *filter.WardID {
			continue
		}
		if filter.Availability != nil && stored.Availability != *filter.Availability {
			continue
		}
		result = append(result, *stored)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MemoryStore) ReserveStaffCapacity(ctx context.Context, staffID string) error {
	defer m.lock()()
	stored, ok := m.state.staff[staffID]
	if !ok {
		return ErrNotFound
	}
	if stored.ActiveAssignments >= stored.MaxConcurrent {
		return ErrStaffAtCapacity
	}
	stored.ActiveAssignments++
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) ReleaseStaffCapacity(ctx context.Context, staffID string) error {
	defer m.lock()()
	stored, ok := m.state.staff[staffID]
	if !ok {
		return ErrNotFound
	}
	if stored.ActiveAssignments > 0 {
		stored.ActiveAssignments--
	}
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) UpdateStaffAvailability(ctx context.Context, staffID string, availability domain.StaffAvailability) error {
	defer m.lock()()
	stored, ok := m.state.staff[staffID]
	if !ok {
		return ErrNotFound
	}
	stored.Availability = availability
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryState) clone() *memoryState {
	cloned := &memoryState{
		requests:    make(map[string]*domain.Request, len(s.requests)),
		history:     make([]*domain.StatusHistoryEntry, len(s.history)),
		escalations: make(map[string]*domain.Escalation, len(s.escalations)),
		staff:       make(map[string]*domain.StaffWorkload, len(s.staff)),
	}
	for id, req := range s.requests {
		cloned.requests[id] = cloneRequest(req)
	}
	copy(cloned.history, s.history)
	for id, esc := range s.escalations {
		cloned.escalations[id] = cloneEscalation(esc)
	}
	for id, staff := range s.staff {
		copied := *staff
		cloned.staff[id] = &copied
	}
	return cloned
}

func cloneRequest(req *domain.Request) *domain.Request {
	copied := *req
	copied.AssignedStaffID = cloneString(req.AssignedStaffID)
	copied.SLADueAt = cloneTime(req.SLADueAt)
	copied.ResolvedAt = cloneTime(req.ResolvedAt)
	copied.ClosedAt = cloneTime(req.ClosedAt)
	copied.ResolutionNotes = cloneString(req.ResolutionNotes)
	copied.RejectionReason = cloneString(req.RejectionReason)
	return &copied
}

func cloneEscalation(esc *domain.Escalation) *domain.Escalation {
	copied := *esc
	copied.EscalatedToStaffID = cloneString(esc.EscalatedToStaffID)
	copied.EscalatedToDepartmentID = cloneString(esc.EscalatedToDepartmentID)
	copied.ResolvedAt = cloneTime(esc.ResolvedAt)
	copied.ResolutionNote = cloneString(esc.ResolutionNote)
	return &copied
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
