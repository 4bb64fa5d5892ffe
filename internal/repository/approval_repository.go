package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/re-allocator/internal/domain"
)

// ApprovalRepository reads the append-only approval audit trail. Inserts
// happen only inside TicketRepository.ApproveWithAudit; approval rows are
// never updated or deleted.
type ApprovalRepository interface {
	GetByTicket(ctx context.Context, ticketID string) (*domain.Approval, error)
	ListByHOD(ctx context.Context, hodID string) ([]domain.Approval, error)
}

type approvalRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalRepository builds the repository.
func NewApprovalRepository(pool *pgxpool.Pool) ApprovalRepository {
	return &approvalRepository{pool: pool}
}

func (r *approvalRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Approval, error) {
	const query = `
        SELECT id, ticket_id, hod_id, status, created_at
        FROM approvals WHERE ticket_id=$1`
	var approval domain.Approval
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&approval.ID,
		&approval.TicketID,
		&approval.HODID,
		&approval.Status,
		&approval.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) ListByHOD(ctx context.Context, hodID string) ([]domain.Approval, error) {
	const query = `
        SELECT id, ticket_id, hod_id, status, created_at
        FROM approvals WHERE hod_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, hodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Approval
	for rows.Next() {
		var approval domain.Approval
		if err := rows.Scan(
			&approval.ID,
			&approval.TicketID,
			&approval.HODID,
			&approval.Status,
			&approval.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, approval)
	}
	return result, rows.Err()
}
