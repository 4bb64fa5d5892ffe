package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/repository"
)

// fakeStore backs the in-memory repository fakes used across the service
// tests. All fakes share one store so cross-entity reads (tickets joining
// departments, approvals written by the ticket repo) behave like the real
// schema.
type fakeStore struct {
	seq         int
	users       map[string]*domain.User
	departments map[string]*domain.Department
	resources   map[string]*domain.Resource
	tickets     map[string]*domain.Ticket
	approvals   []domain.Approval

	failApprovalInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*domain.User),
		departments: make(map[string]*domain.Department),
		resources:   make(map[string]*domain.Resource),
		tickets:     make(map[string]*domain.Ticket),
	}
}

func (st *fakeStore) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%d", prefix, st.seq)
}

type fakeUserRepo struct{ st *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.st.nextID("usr")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.st.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.st.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.st.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	stored, ok := r.st.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.st.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.st.users {
		result = append(result, *user)
	}
	return result, nil
}

type fakeTicketRepo struct{ st *fakeStore }

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	ticket.ID = r.st.nextID("tkt")
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.st.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	stored, ok := r.st.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, from, to domain.TicketStatus) error {
	stored, ok := r.st.tickets[id]
	if !ok || stored.Status != from {
		return repository.ErrAlreadyProcessed
	}
	stored.Status = to
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTicketRepo) List(_ context.Context) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range r.st.tickets {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeTicketRepo) ListByUser(_ context.Context, userID string) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range r.st.tickets {
		if t.UserID == userID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) ListByHOD(_ context.Context, hodID string) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range r.st.tickets {
		dept, ok := r.st.departments[t.DepartmentID]
		if ok && dept.HODID == hodID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) ListApprovedInWindow(_ context.Context, resourceID string, from, to time.Time) ([]domain.Ticket, error) {
	return r.approvedOverlapping(resourceID, from, to), nil
}

func (r *fakeTicketRepo) approvedOverlapping(resourceID string, from, to time.Time) []domain.Ticket {
	var result []domain.Ticket
	for _, t := range r.st.tickets {
		if t.ResourceID == resourceID && t.Status == domain.TicketStatusApproved &&
			t.StartTime.Before(to) && t.EndTime.After(from) {
			result = append(result, *t)
		}
	}
	return result
}

// ApproveWithAudit mirrors the transactional contract of the real repository:
// guard first, then the conditional status flip, then the audit insert, and a
// failure anywhere leaves the stored ticket untouched. The guard set is read
// over the caller's slot-aligned window, not the ticket's raw interval.
func (r *fakeTicketRepo) ApproveWithAudit(_ context.Context, ticket *domain.Ticket, hodID string, windowStart, windowEnd time.Time, guard repository.ApprovalGuard) error {
	resource, ok := r.st.resources[ticket.ResourceID]
	if !ok {
		return pgx.ErrNoRows
	}
	if guard != nil {
		approved := r.approvedOverlapping(ticket.ResourceID, windowStart, windowEnd)
		if err := guard(resource.Quantity, approved); err != nil {
			return err
		}
	}
	stored, ok := r.st.tickets[ticket.ID]
	if !ok || stored.Status != domain.TicketStatusPending {
		return repository.ErrAlreadyProcessed
	}
	if r.st.failApprovalInsert {
		return errors.New("insert approvals: connection reset")
	}
	stored.Status = domain.TicketStatusApproved
	stored.UpdatedAt = time.Now()
	r.st.approvals = append(r.st.approvals, domain.Approval{
		ID:        r.st.nextID("apr"),
		TicketID:  ticket.ID,
		HODID:     hodID,
		Status:    domain.TicketStatusApproved,
		CreatedAt: time.Now(),
	})
	ticket.Status = domain.TicketStatusApproved
	return nil
}

type fakeResourceRepo struct{ st *fakeStore }

func (r *fakeResourceRepo) Create(_ context.Context, resource *domain.Resource) error {
	resource.ID = r.st.nextID("res")
	copied := *resource
	r.st.resources[resource.ID] = &copied
	return nil
}

func (r *fakeResourceRepo) Update(_ context.Context, resource *domain.Resource) error {
	if _, ok := r.st.resources[resource.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *resource
	r.st.resources[resource.ID] = &copied
	return nil
}

func (r *fakeResourceRepo) GetByID(_ context.Context, id string) (*domain.Resource, error) {
	stored, ok := r.st.resources[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeResourceRepo) GetByNameInDepartment(_ context.Context, name, departmentID string) (*domain.Resource, error) {
	for _, res := range r.st.resources {
		if res.Name == name && res.DepartmentID == departmentID {
			copied := *res
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeResourceRepo) List(_ context.Context) ([]domain.Resource, error) {
	var result []domain.Resource
	for _, res := range r.st.resources {
		result = append(result, *res)
	}
	return result, nil
}

func (r *fakeResourceRepo) ListByDepartment(_ context.Context, departmentID string) ([]domain.Resource, error) {
	var result []domain.Resource
	for _, res := range r.st.resources {
		if res.DepartmentID == departmentID {
			result = append(result, *res)
		}
	}
	return result, nil
}

type fakeDepartmentRepo struct{ st *fakeStore }

func (r *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	dept.ID = r.st.nextID("dept")
	copied := *dept
	r.st.departments[dept.ID] = &copied
	return nil
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	stored, ok := r.st.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeDepartmentRepo) GetByHOD(_ context.Context, hodID string) (*domain.Department, error) {
	for _, dept := range r.st.departments {
		if dept.HODID == hodID {
			copied := *dept
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	for _, dept := range r.st.departments {
		result = append(result, *dept)
	}
	return result, nil
}

type fakeApprovalRepo struct{ st *fakeStore }

func (r *fakeApprovalRepo) GetByTicket(_ context.Context, ticketID string) (*domain.Approval, error) {
	for i := range r.st.approvals {
		if r.st.approvals[i].TicketID == ticketID {
			copied := r.st.approvals[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeApprovalRepo) ListByHOD(_ context.Context, hodID string) ([]domain.Approval, error) {
	var result []domain.Approval
	for _, apr := range r.st.approvals {
		if apr.HODID == hodID {
			result = append(result, apr)
		}
	}
	return result, nil
}
