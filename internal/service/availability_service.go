package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/re-allocator/internal/domain"
	"github.com/spec-kit/re-allocator/internal/repository"
	apperrors "github.com/spec-kit/re-allocator/pkg/util"
)

// DateLayout is the wire format for availability dates.
const DateLayout = "2006-01-02"

// AvailabilityCache memoizes computed grids per resource+date.
type AvailabilityCache interface {
	Get(ctx context.Context, resourceID, date string) (map[string]int, error)
	Set(ctx context.Context, resourceID, date string, grid map[string]int) error
	Invalidate(ctx context.Context, resourceID, date string) error
	InvalidateResource(ctx context.Context, resourceID string) error
}

// AvailabilityService computes the per-slot remaining quantity for a resource
// on a calendar day by subtracting approved bookings from the resource's
// total quantity.
type AvailabilityService struct {
	resources repository.ResourceRepository
	tickets   repository.TicketRepository
	cache     AvailabilityCache
	loc       *time.Location
}

// AvailabilityDependencies bundles collaborators for the engine.
type AvailabilityDependencies struct {
	ResourceRepo repository.ResourceRepository
	TicketRepo   repository.TicketRepository
	Cache        AvailabilityCache
	Location     *time.Location
}

// NewAvailabilityService constructs the engine.
func NewAvailabilityService(deps AvailabilityDependencies) *AvailabilityService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{
		resources: deps.ResourceRepo,
		tickets:   deps.TicketRepo,
		cache:     deps.Cache,
		loc:       loc,
	}
}

// ComputeDaily returns the full 24-slot grid for one resource and date.
// The read is deterministic over the day's approved tickets, so cache misses
// and cache failures both fall back to recomputation.
func (s *AvailabilityService) ComputeDaily(ctx context.Context, resourceID, date string) (map[string]int, error) {
	day, err := time.ParseInLocation(DateLayout, date, s.loc)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date, expected YYYY-MM-DD", nil)
	}

	if s.cache != nil {
		if grid, err := s.cache.Get(ctx, resourceID, date); err == nil && grid != nil {
			return grid, nil
		}
	}

	resource, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("resource", nil)
		}
		return nil, err
	}

	dayStart, dayEnd := domain.DayWindow(day, s.loc)
	approved, err := s.tickets.ListApprovedInWindow(ctx, resourceID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	grid := domain.BuildAvailability(resource.Quantity, approved, dayStart, s.loc)
	if s.cache != nil {
		_ = s.cache.Set(ctx, resourceID, date, grid)
	}
	return grid, nil
}

// EnsureCapacity verifies that every hourly slot touched by [start, end) has
// at least requested units left once the day's approved bookings are
// subtracted. It always reads fresh state, never the cache.
func (s *AvailabilityService) EnsureCapacity(ctx context.Context, resource *domain.Resource, start, end time.Time, requested int) error {
	for dayStart, _ := domain.DayWindow(start, s.loc); dayStart.Before(end); dayStart = dayStart.Add(24 * time.Hour) {
		dayEnd := dayStart.Add(24 * time.Hour)
		approved, err := s.tickets.ListApprovedInWindow(ctx, resource.ID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if err := ensureSlotCapacity(resource.Quantity, approved, start, end, requested, dayStart, s.loc); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateWindow drops cached grids for every date the interval touches.
func (s *AvailabilityService) InvalidateWindow(ctx context.Context, resourceID string, start, end time.Time) {
	if s.cache == nil {
		return
	}
	for dayStart, _ := domain.DayWindow(start, s.loc); dayStart.Before(end); dayStart = dayStart.Add(24 * time.Hour) {
		_ = s.cache.Invalidate(ctx, resourceID, dayStart.In(s.loc).Format(DateLayout))
	}
}

// InvalidateResource drops every cached date for one resource. Quantity
// changes shift the baseline of every slot, so date-scoped invalidation is
// not enough.
func (s *AvailabilityService) InvalidateResource(ctx context.Context, resourceID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateResource(ctx, resourceID)
}

// Location exposes the booking reference timezone.
func (s *AvailabilityService) Location() *time.Location {
	return s.loc
}

// ensureSlotCapacity checks one day's slots against a candidate booking.
// approved must be the APPROVED tickets overlapping that day for the same
// resource; the candidate itself is expected to be absent from the set.
func ensureSlotCapacity(quantity int, approved []domain.Ticket, start, end time.Time, requested int, dayStart time.Time, loc *time.Location) error {
	grid := domain.BuildAvailability(quantity, approved, dayStart, loc)
	for _, hour := range domain.CoveredHours(start, end, dayStart, loc) {
		label := domain.SlotLabel(hour)
		if grid[label] < requested {
			return apperrors.NewConflict("not enough availability in slot "+label, map[string]any{
				"slot":      label,
				"remaining": grid[label],
			})
		}
	}
	return nil
}
