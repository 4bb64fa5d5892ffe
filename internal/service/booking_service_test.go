package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/re-allocator/internal/domain"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

type bookingFixture struct {
	st       *fakeStore
	booking  *BookingService
	grids    *AvailabilityService
	hod      *domain.User
	dept     *domain.Department
	resource *domain.Resource
}

// newBookingFixture seeds one department headed by one HOD with a single
// five-unit resource, the smallest world in which every lifecycle rule is
// observable.
func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	return buildBookingFixture(t, nil)
}

func newBookingFixtureWithCache(t *testing.T) (*bookingFixture, *memoryCache) {
	t.Helper()
	cache := newMemoryCache()
	return buildBookingFixture(t, cache), cache
}

func buildBookingFixture(t *testing.T, cache AvailabilityCache) *bookingFixture {
	t.Helper()

	st := newFakeStore()
	tickets := &fakeTicketRepo{st: st}
	resources := &fakeResourceRepo{st: st}
	departments := &fakeDepartmentRepo{st: st}
	approvals := &fakeApprovalRepo{st: st}

	hod := &domain.User{ID: st.nextID("usr"), Name: "Dr. Rao", Email: "rao@college.edu", Role: domain.RoleHOD}
	st.users[hod.ID] = hod

	dept := &domain.Department{Name: "Physics", HODID: hod.ID}
	require.NoError(t, departments.Create(context.Background(), dept))

	resource := &domain.Resource{
		Name:         "Projector",
		Type:         "equipment",
		DepartmentID: dept.ID,
		Quantity:     5,
		Available:    true,
	}
	require.NoError(t, resources.Create(context.Background(), resource))

	grids := NewAvailabilityService(AvailabilityDependencies{
		ResourceRepo: resources,
		TicketRepo:   tickets,
		Cache:        cache,
		Location:     time.UTC,
	})
	booking := NewBookingService(BookingDependencies{
		TicketRepo:     tickets,
		ResourceRepo:   resources,
		DepartmentRepo: departments,
		ApprovalRepo:   approvals,
		Availability:   grids,
	})

	return &bookingFixture{st: st, booking: booking, grids: grids, hod: hod, dept: dept, resource: resource}
}

func (f *bookingFixture) createTicket(t *testing.T, quantity int, start, end string) *domain.Ticket {
	t.Helper()
	ticket, err := f.booking.CreateTicket(context.Background(), "usr-student", BookingCreateInput{
		ResourceID:        f.resource.ID,
		DepartmentID:      f.dept.ID,
		RequestedQuantity: quantity,
		StartTime:         mustTime(t, start),
		EndTime:           mustTime(t, end),
	})
	require.NoError(t, err)
	return ticket
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestCreateTicket_Success(t *testing.T) {
	f := newBookingFixture(t)

	ticket := f.createTicket(t, 3, "2025-03-10T10:00:00Z", "2025-03-10T12:00:00Z")

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, 3, ticket.RequestedQuantity)

	stored := f.st.tickets[ticket.ID]
	require.NotNil(t, stored)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)
}

func TestCreateTicket_ResourceNotFound(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.booking.CreateTicket(context.Background(), "usr-student", BookingCreateInput{
		ResourceID:        "res-missing",
		DepartmentID:      f.dept.ID,
		RequestedQuantity: 1,
		StartTime:         mustTime(t, "2025-03-10T10:00:00Z"),
		EndTime:           mustTime(t, "2025-03-10T11:00:00Z"),
	})
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestCreateTicket_ResourceUnavailable(t *testing.T) {
	f := newBookingFixture(t)
	f.st.resources[f.resource.ID].Available = false

	_, err := f.booking.CreateTicket(context.Background(), "usr-student", BookingCreateInput{
		ResourceID:        f.resource.ID,
		DepartmentID:      f.dept.ID,
		RequestedQuantity: 1,
		StartTime:         mustTime(t, "2025-03-10T10:00:00Z"),
		EndTime:           mustTime(t, "2025-03-10T11:00:00Z"),
	})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Equal(t, "resource is currently unavailable", de.Message)
}

func TestCreateTicket_QuantityBeyondTotal(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.booking.CreateTicket(context.Background(), "usr-student", BookingCreateInput{
		ResourceID:        f.resource.ID,
		DepartmentID:      f.dept.ID,
		RequestedQuantity: 6,
		StartTime:         mustTime(t, "2025-03-10T10:00:00Z"),
		EndTime:           mustTime(t, "2025-03-10T11:00:00Z"),
	})
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestCreateTicket_UnavailableCheckedBeforeQuantity(t *testing.T) {
	f := newBookingFixture(t)
	f.st.resources[f.resource.ID].Available = false

	// Both preconditions fail; the availability flag must win.
	_, err := f.booking.CreateTicket(context.Background(), "usr-student", BookingCreateInput{
		ResourceID:        f.resource.ID,
		DepartmentID:      f.dept.ID,
		RequestedQuantity: 6,
		StartTime:         mustTime(t, "2025-03-10T10:00:00Z"),
		EndTime:           mustTime(t, "2025-03-10T11:00:00Z"),
	})
	require.Error(t, err)
	assert.Equal(t, "resource is currently unavailable", apperrors.ToDomainError(err).Message)
}

func TestCreateTicket_InvalidInterval(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.booking.CreateTicket(context.Background(), "usr-student", BookingCreateInput{
		ResourceID:        f.resource.ID,
		DepartmentID:      f.dept.ID,
		RequestedQuantity: 1,
		StartTime:         mustTime(t, "2025-03-10T12:00:00Z"),
		EndTime:           mustTime(t, "2025-03-10T10:00:00Z"),
	})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = f.booking.CreateTicket(context.Background(), "usr-student", BookingCreateInput{
		ResourceID:        f.resource.ID,
		DepartmentID:      f.dept.ID,
		RequestedQuantity: 0,
		StartTime:         mustTime(t, "2025-03-10T10:00:00Z"),
		EndTime:           mustTime(t, "2025-03-10T11:00:00Z"),
	})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestCreateTicket_RejectedWhenSlotAlreadyCommitted(t *testing.T) {
	f := newBookingFixture(t)

	first := f.createTicket(t, 3, "2025-03-10T10:00:00Z", "2025-03-10T12:00:00Z")
	_, err := f.booking.ApproveTicket(context.Background(), f.hod, first.ID)
	require.NoError(t, err)

	// 3 of 5 units are committed for 11:00; another 3 cannot fit.
	_, err = f.booking.CreateTicket(context.Background(), "usr-other", BookingCreateInput{
		ResourceID:        f.resource.ID,
		DepartmentID:      f.dept.ID,
		RequestedQuantity: 3,
		StartTime:         mustTime(t, "2025-03-10T11:00:00Z"),
		EndTime:           mustTime(t, "2025-03-10T12:00:00Z"),
	})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Contains(t, de.Message, "11:00 - 12:00")

	// 2 units still fit.
	f.createTicket(t, 2, "2025-03-10T11:00:00Z", "2025-03-10T12:00:00Z")
}

func TestApproveTicket_Success(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 3, "2025-03-10T10:00:00Z", "2025-03-10T12:00:00Z")

	approved, err := f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusApproved, approved.Status)
	assert.Equal(t, domain.TicketStatusApproved, f.st.tickets[ticket.ID].Status)

	require.Len(t, f.st.approvals, 1)
	assert.Equal(t, ticket.ID, f.st.approvals[0].TicketID)
	assert.Equal(t, f.hod.ID, f.st.approvals[0].HODID)

	audit, err := f.booking.GetApprovalForTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, f.hod.ID, audit.HODID)
}

func TestApproveTicket_NotFound(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.booking.ApproveTicket(context.Background(), f.hod, "tkt-missing")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestApproveTicket_AlreadyProcessed(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 1, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")

	_, err := f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)

	_, err = f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Equal(t, "ticket is already processed", de.Message)
	assert.Len(t, f.st.approvals, 1)
}

func TestApproveTicket_WrongHOD(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 1, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")

	other := &domain.User{ID: "usr-other-hod", Role: domain.RoleHOD}
	_, err := f.booking.ApproveTicket(context.Background(), other, ticket.ID)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
	assert.Equal(t, domain.TicketStatusPending, f.st.tickets[ticket.ID].Status)
	assert.Empty(t, f.st.approvals)
}

func TestApproveTicket_UnknownDepartment(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 1, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")
	f.st.tickets[ticket.ID].DepartmentID = "dept-missing"

	_, err := f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestApproveTicket_SlotCapacityRecheckedInTransaction(t *testing.T) {
	f := newBookingFixture(t)

	// Two pending tickets individually fit but cannot both hold 10:00-11:00.
	first := f.createTicket(t, 3, "2025-03-10T10:00:00Z", "2025-03-10T12:00:00Z")
	second := f.createTicket(t, 3, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")

	_, err := f.booking.ApproveTicket(context.Background(), f.hod, first.ID)
	require.NoError(t, err)

	_, err = f.booking.ApproveTicket(context.Background(), f.hod, second.ID)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Contains(t, de.Message, "not enough availability in slot")

	assert.Equal(t, domain.TicketStatusPending, f.st.tickets[second.ID].Status)
	assert.Len(t, f.st.approvals, 1)
}

func TestApproveTicket_SameSlotWithoutIntervalOverlap(t *testing.T) {
	f := newBookingFixture(t)

	// A and B never overlap as intervals but both touch "10:00 - 11:00",
	// so approving both would commit 4+3=7 units against 5.
	first := f.createTicket(t, 4, "2025-03-10T10:00:00Z", "2025-03-10T10:30:00Z")
	second := f.createTicket(t, 3, "2025-03-10T10:36:00Z", "2025-03-10T11:00:00Z")

	_, err := f.booking.ApproveTicket(context.Background(), f.hod, first.ID)
	require.NoError(t, err)

	_, err = f.booking.ApproveTicket(context.Background(), f.hod, second.ID)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Contains(t, de.Message, "10:00 - 11:00")
	assert.Equal(t, domain.TicketStatusPending, f.st.tickets[second.ID].Status)

	// One unit still fits alongside the four committed.
	third := f.createTicket(t, 1, "2025-03-10T10:45:00Z", "2025-03-10T11:00:00Z")
	_, err = f.booking.ApproveTicket(context.Background(), f.hod, third.ID)
	require.NoError(t, err)
}

func TestApproveTicket_FailedAuditLeavesTicketPending(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 1, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")

	f.st.failApprovalInsert = true
	_, err := f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.Error(t, err)

	assert.Equal(t, domain.TicketStatusPending, f.st.tickets[ticket.ID].Status)
	assert.Empty(t, f.st.approvals)

	f.st.failApprovalInsert = false
	_, err = f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusApproved, f.st.tickets[ticket.ID].Status)
}

func TestRejectTicket(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 1, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")

	rejected, err := f.booking.RejectTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusRejected, rejected.Status)
	assert.Empty(t, f.st.approvals, "rejections leave no audit row")

	_, err = f.booking.RejectTicket(context.Background(), f.hod, ticket.ID)
	require.Error(t, err)
	assert.Equal(t, "ticket is already processed", apperrors.ToDomainError(err).Message)
}

func TestRejectTicket_ApprovedTicket(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 1, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")
	_, err := f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)

	_, err = f.booking.RejectTicket(context.Background(), f.hod, ticket.ID)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
	assert.Equal(t, domain.TicketStatusApproved, f.st.tickets[ticket.ID].Status)
}

func TestCompleteTicket(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 1, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")

	// PENDING tickets cannot be completed.
	_, err := f.booking.CompleteTicket(context.Background(), f.hod, ticket.ID)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Equal(t, "ticket is not approved", de.Message)

	_, err = f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)

	completed, err := f.booking.CompleteTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, completed.Status)

	_, err = f.booking.CompleteTicket(context.Background(), f.hod, ticket.ID)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestApprovalFreesNothing_CompletionKeepsSlotUsage(t *testing.T) {
	f := newBookingFixture(t)
	ticket := f.createTicket(t, 3, "2025-03-10T10:00:00Z", "2025-03-10T12:00:00Z")
	_, err := f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)

	// Total quantity is a ceiling, not a depleting counter.
	assert.Equal(t, 5, f.st.resources[f.resource.ID].Quantity)

	// Completion removes the ticket from the APPROVED set and frees its slots.
	_, err = f.booking.CompleteTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)
	grid, err := f.grids.ComputeDaily(context.Background(), f.resource.ID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 5, grid["10:00 - 11:00"])
}

func TestCompleteTicket_DropsCachedDates(t *testing.T) {
	f, cache := newBookingFixtureWithCache(t)

	ticket := f.createTicket(t, 3, "2025-03-10T22:00:00Z", "2025-03-11T02:00:00Z")
	_, err := f.booking.ApproveTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)

	// Warm the cache for both touched dates, then complete.
	_, err = f.grids.ComputeDaily(context.Background(), f.resource.ID, "2025-03-10")
	require.NoError(t, err)
	_, err = f.grids.ComputeDaily(context.Background(), f.resource.ID, "2025-03-11")
	require.NoError(t, err)

	_, err = f.booking.CompleteTicket(context.Background(), f.hod, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, cache.grids[f.resource.ID+":2025-03-10"])
	assert.Nil(t, cache.grids[f.resource.ID+":2025-03-11"])

	// A fresh read no longer counts the completed ticket.
	grid, err := f.grids.ComputeDaily(context.Background(), f.resource.ID, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 5, grid["22:00 - 23:00"])
}

func TestListTickets_Scoping(t *testing.T) {
	f := newBookingFixture(t)
	mine := f.createTicket(t, 1, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")

	other, err := f.booking.CreateTicket(context.Background(), "usr-someone-else", BookingCreateInput{
		ResourceID:        f.resource.ID,
		DepartmentID:      f.dept.ID,
		RequestedQuantity: 1,
		StartTime:         mustTime(t, "2025-03-10T13:00:00Z"),
		EndTime:           mustTime(t, "2025-03-10T14:00:00Z"),
	})
	require.NoError(t, err)

	all, err := f.booking.ListTickets(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byUser, err := f.booking.ListTicketsByUser(context.Background(), "usr-student")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, mine.ID, byUser[0].ID)

	byHOD, err := f.booking.ListTicketsByHOD(context.Background(), f.hod.ID)
	require.NoError(t, err)
	assert.Len(t, byHOD, 2)

	byOtherHOD, err := f.booking.ListTicketsByHOD(context.Background(), "usr-nobody")
	require.NoError(t, err)
	assert.Empty(t, byOtherHOD)
	_ = other
}
