package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/re-allocator/internal/domain"
)

// ErrAlreadyProcessed signals a conditional status update that matched no row
// because the ticket left the expected state concurrently.
var ErrAlreadyProcessed = errors.New("ticket already processed")

// ApprovalGuard re-validates capacity inside the approval transaction. It
// receives the resource's quantity and the approved tickets overlapping the
// candidate's interval, both read under the resource row lock.
type ApprovalGuard func(resourceQuantity int, approved []domain.Ticket) error

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) error
	List(ctx context.Context) ([]domain.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	ListByHOD(ctx context.Context, hodID string) ([]domain.Ticket, error)
	ListApprovedInWindow(ctx context.Context, resourceID string, from, to time.Time) ([]domain.Ticket, error)
	ApproveWithAudit(ctx context.Context, ticket *domain.Ticket, hodID string, windowStart, windowEnd time.Time, guard ApprovalGuard) error
}

const ticketColumns = `id, user_id, resource_id, department_id, requested_quantity,
               start_time, end_time, status, created_at, updated_at`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, resource_id, department_id, requested_quantity, start_time, end_time, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.UserID,
		ticket.ResourceID,
		ticket.DepartmentID,
		ticket.RequestedQuantity,
		ticket.StartTime,
		ticket.EndTime,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// UpdateStatus moves a ticket between states only when it is still in the
// expected source state, so two concurrent transitions cannot both win.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) error {
	const query = `UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByHOD(ctx context.Context, hodID string) ([]domain.Ticket, error) {
	const query = `
        SELECT t.id, t.user_id, t.resource_id, t.department_id, t.requested_quantity,
               t.start_time, t.end_time, t.status, t.created_at, t.updated_at
        FROM tickets t
        JOIN departments d ON d.id = t.department_id
        WHERE d.hod_id=$1
        ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, query, hodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListApprovedInWindow(ctx context.Context, resourceID string, from, to time.Time) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE resource_id=$1 AND status=$2 AND start_time < $3 AND end_time > $4
        ORDER BY start_time`
	rows, err := r.pool.Query(ctx, query, resourceID, domain.TicketStatusApproved, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ApproveWithAudit flips the ticket to APPROVED and inserts the approval row
// in one transaction. The resource row is locked first, the guard re-checks
// capacity against the approved set read under that lock, and the status
// update is conditional on the ticket still being PENDING. Either both writes
// commit or neither does. windowStart/windowEnd bound the approved set the
// guard sees; callers pass the slot-aligned window (domain.SlotWindow), not
// the ticket's raw interval, so tickets that share a slot without overlapping
// as intervals are still counted.
func (r *ticketRepository) ApproveWithAudit(ctx context.Context, ticket *domain.Ticket, hodID string, windowStart, windowEnd time.Time, guard ApprovalGuard) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var quantity int
	if err := tx.QueryRow(ctx,
		`SELECT quantity FROM resources WHERE id=$1 FOR UPDATE`,
		ticket.ResourceID,
	).Scan(&quantity); err != nil {
		return err
	}

	if guard != nil {
		const overlapQuery = `SELECT ` + ticketColumns + `
            FROM tickets
            WHERE resource_id=$1 AND status=$2 AND start_time < $3 AND end_time > $4
            ORDER BY start_time`
		rows, err := tx.Query(ctx, overlapQuery,
			ticket.ResourceID, domain.TicketStatusApproved, windowEnd, windowStart)
		if err != nil {
			return err
		}
		approved, err := scanTickets(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if err := guard(quantity, approved); err != nil {
			return err
		}
	}

	cmd, err := tx.Exec(ctx,
		`UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		domain.TicketStatusApproved, ticket.ID, domain.TicketStatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO approvals (ticket_id, hod_id, status) VALUES ($1,$2,$3)`,
		ticket.ID, hodID, domain.TicketStatusApproved); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	ticket.Status = domain.TicketStatusApproved
	return nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.ResourceID,
		&ticket.DepartmentID,
		&ticket.RequestedQuantity,
		&ticket.StartTime,
		&ticket.EndTime,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
