package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/events"
	"github.com/spec-kit/re-allocator/internal/repository"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// BookingService drives the ticket lifecycle: creation, approval, rejection
// and completion.
type BookingService struct {
	tickets      repository.TicketRepository
	resources    repository.ResourceRepository
	departments  repository.DepartmentRepository
	approvals    repository.ApprovalRepository
	availability *AvailabilityService
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// BookingDependencies bundles collaborators for the booking service.
type BookingDependencies struct {
	TicketRepo     repository.TicketRepository
	ResourceRepo   repository.ResourceRepository
	DepartmentRepo repository.DepartmentRepository
	ApprovalRepo   repository.ApprovalRepository
	Availability   *AvailabilityService
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// BookingCreateInput describes a booking request payload.
type BookingCreateInput struct {
	ResourceID        string
	DepartmentID      string
	RequestedQuantity int
	StartTime         time.Time
	EndTime           time.Time
}

// NewBookingService constructs the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		tickets:      deps.TicketRepo,
		resources:    deps.ResourceRepo,
		departments:  deps.DepartmentRepo,
		approvals:    deps.ApprovalRepo,
		availability: deps.Availability,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// CreateTicket validates a booking request and records it as PENDING.
// Preconditions run in order and the first failure wins. Beyond the total
// quantity check, the request is also validated against the per-slot
// remaining availability so an approval can never be asked for a window that
// is already fully committed.
func (s *BookingService) CreateTicket(ctx context.Context, userID string, input BookingCreateInput) (*domain.Ticket, error) {
	resource, err := s.resources.GetByID(ctx, input.ResourceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("resource", nil)
		}
		return nil, err
	}
	if !resource.Available {
		return nil, apperrors.NewConflict("resource is currently unavailable", nil)
	}
	if input.RequestedQuantity > resource.Quantity {
		return nil, apperrors.NewConflict("not enough resource quantity available", nil)
	}
	if input.RequestedQuantity <= 0 {
		return nil, apperrors.NewValidationError("requested quantity must be positive", nil)
	}
	if !input.StartTime.Before(input.EndTime) {
		return nil, apperrors.NewValidationError("start time must be before end time", nil)
	}
	if err := s.availability.EnsureCapacity(ctx, resource, input.StartTime, input.EndTime, input.RequestedQuantity); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		UserID:            userID,
		ResourceID:        input.ResourceID,
		DepartmentID:      input.DepartmentID,
		RequestedQuantity: input.RequestedQuantity,
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		Status:            domain.TicketStatusPending,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventBookingCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: userID},
		Payload: events.BookingCreatedPayload{
			ResourceID:        ticket.ResourceID,
			DepartmentID:      ticket.DepartmentID,
			RequestedQuantity: ticket.RequestedQuantity,
			StartTime:         ticket.StartTime,
			EndTime:           ticket.EndTime,
		},
	})
	return ticket, nil
}

// ApproveTicket moves a PENDING ticket to APPROVED on behalf of the owning
// department's head, writing the approval audit row in the same transaction.
// Capacity is re-validated per slot inside that transaction, under the
// resource row lock, so two approvals racing for the same window cannot both
// commit past the resource's quantity.
func (s *BookingService) ApproveTicket(ctx context.Context, hod *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanTransition(domain.TicketStatusApproved) {
		return nil, apperrors.NewConflict("ticket is already processed", nil)
	}
	if err := s.authorizeApproval(ctx, hod, ticket); err != nil {
		return nil, err
	}

	resource, err := s.resources.GetByID(ctx, ticket.ResourceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("resource", nil)
		}
		return nil, err
	}
	if resource.Quantity < ticket.RequestedQuantity {
		return nil, apperrors.NewConflict("not enough resources available", nil)
	}

	loc := s.availability.Location()
	windowStart, windowEnd := domain.SlotWindow(ticket.StartTime, ticket.EndTime, loc)
	guard := func(quantity int, approved []domain.Ticket) error {
		for dayStart := windowStart; dayStart.Before(ticket.EndTime); dayStart = dayStart.Add(24 * time.Hour) {
			if err := ensureSlotCapacity(quantity, approved, ticket.StartTime, ticket.EndTime, ticket.RequestedQuantity, dayStart, loc); err != nil {
				return err
			}
		}
		return nil
	}

	if err := s.tickets.ApproveWithAudit(ctx, ticket, hod.ID, windowStart, windowEnd, guard); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return nil, apperrors.NewConflict("ticket is already processed", nil)
		}
		return nil, err
	}

	s.availability.InvalidateWindow(ctx, ticket.ResourceID, ticket.StartTime, ticket.EndTime)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventBookingApproved,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: hod.ID, Role: hod.Role},
		Payload: events.BookingDecisionPayload{
			OldStatus: domain.TicketStatusPending,
			NewStatus: domain.TicketStatusApproved,
			HODID:     hod.ID,
		},
	})
	return ticket, nil
}

// RejectTicket moves a PENDING ticket to REJECTED. No audit row is written;
// only approvals are recorded in the approval trail.
func (s *BookingService) RejectTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.transition(ctx, actor, ticketID,
		domain.TicketStatusPending, domain.TicketStatusRejected,
		events.EventBookingRejected, "ticket is already processed")
}

// CompleteTicket moves an APPROVED ticket to COMPLETED. Completion removes
// the ticket from the approved set, so its cached availability dates are
// stale and get dropped.
func (s *BookingService) CompleteTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.transition(ctx, actor, ticketID,
		domain.TicketStatusApproved, domain.TicketStatusCompleted,
		events.EventBookingCompleted, "ticket is not approved")
	if err != nil {
		return nil, err
	}
	s.availability.InvalidateWindow(ctx, ticket.ResourceID, ticket.StartTime, ticket.EndTime)
	return ticket, nil
}

// GetTicket fetches a ticket by id.
func (s *BookingService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.loadTicket(ctx, ticketID)
}

// ListTickets returns every ticket.
func (s *BookingService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.List(ctx)
}

// ListTicketsByUser returns the requester's tickets.
func (s *BookingService) ListTicketsByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// ListTicketsByHOD returns tickets for departments headed by the given HOD.
func (s *BookingService) ListTicketsByHOD(ctx context.Context, hodID string) ([]domain.Ticket, error) {
	return s.tickets.ListByHOD(ctx, hodID)
}

// ListApprovalsByHOD returns the approval audit trail for one HOD.
func (s *BookingService) ListApprovalsByHOD(ctx context.Context, hodID string) ([]domain.Approval, error) {
	return s.approvals.ListByHOD(ctx, hodID)
}

// GetApprovalForTicket returns the audit record behind an APPROVED ticket.
func (s *BookingService) GetApprovalForTicket(ctx context.Context, ticketID string) (*domain.Approval, error) {
	approval, err := s.approvals.GetByTicket(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("approval", nil)
		}
		return nil, err
	}
	return approval, nil
}

func (s *BookingService) transition(ctx context.Context, actor *domain.User, ticketID string, from, to domain.TicketStatus, eventType events.EventType, conflictMsg string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != from || !ticket.CanTransition(to) {
		return nil, apperrors.NewConflict(conflictMsg, nil)
	}
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, from, to); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return nil, apperrors.NewConflict(conflictMsg, nil)
		}
		return nil, err
	}
	ticket.Status = to

	actorMeta := events.Actor{}
	if actor != nil {
		actorMeta = events.Actor{UserID: actor.ID, Role: actor.Role}
	}
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Actor:    actorMeta,
		Payload: events.BookingDecisionPayload{
			OldStatus: from,
			NewStatus: to,
		},
	})
	return ticket, nil
}

// authorizeApproval passes only when the acting head owns the department the
// ticket was filed under. A missing department and a mismatched head are
// deliberately indistinguishable to the caller.
func (s *BookingService) authorizeApproval(ctx context.Context, hod *domain.User, ticket *domain.Ticket) error {
	department, err := s.departments.GetByID(ctx, ticket.DepartmentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			s.logger.Warn("approval for ticket with unknown department",
				zap.String("ticket_id", ticket.ID),
				zap.String("department_id", ticket.DepartmentID))
			return apperrors.NewForbidden("you are not authorized to approve this ticket")
		}
		return err
	}
	if department.HODID != hod.ID {
		s.logger.Warn("approval attempted by non-owning head",
			zap.String("ticket_id", ticket.ID),
			zap.String("hod_id", hod.ID))
		return apperrors.NewForbidden("you are not authorized to approve this ticket")
	}
	return nil
}

func (s *BookingService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

func (s *BookingService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
