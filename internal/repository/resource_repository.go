package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/re-allocator/internal/domain"
)

// ResourceRepository encapsulates resource ledger persistence.
type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) error
	Update(ctx context.Context, resource *domain.Resource) error
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
	GetByNameInDepartment(ctx context.Context, name, departmentID string) (*domain.Resource, error)
	List(ctx context.Context) ([]domain.Resource, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.Resource, error)
}

type resourceRepository struct {
	pool *pgxpool.Pool
}

// NewResourceRepository instantiates repository.
func NewResourceRepository(pool *pgxpool.Pool) ResourceRepository {
	return &resourceRepository{pool: pool}
}

func (r *resourceRepository) Create(ctx context.Context, resource *domain.Resource) error {
	const query = `
        INSERT INTO resources (name, description, type, department_id, quantity, available)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		resource.Name,
		resource.Description,
		resource.Type,
		resource.DepartmentID,
		resource.Quantity,
		resource.Available,
	).Scan(&resource.ID, &resource.CreatedAt, &resource.UpdatedAt)
}

func (r *resourceRepository) Update(ctx context.Context, resource *domain.Resource) error {
	const query = `
        UPDATE resources SET quantity=$1, available=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query,
		resource.Quantity,
		resource.Available,
		resource.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	const query = `
        SELECT id, name, description, type, department_id, quantity, available, created_at, updated_at
        FROM resources WHERE id=$1`
	return r.fetchSingle(ctx, r.pool.QueryRow(ctx, query, id))
}

func (r *resourceRepository) GetByNameInDepartment(ctx context.Context, name, departmentID string) (*domain.Resource, error) {
	const query = `
        SELECT id, name, description, type, department_id, quantity, available, created_at, updated_at
        FROM resources WHERE name=$1 AND department_id=$2`
	return r.fetchSingle(ctx, r.pool.QueryRow(ctx, query, name, departmentID))
}

func (r *resourceRepository) fetchSingle(_ context.Context, row pgx.Row) (*domain.Resource, error) {
	var resource domain.Resource
	if err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.Description,
		&resource.Type,
		&resource.DepartmentID,
		&resource.Quantity,
		&resource.Available,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepository) List(ctx context.Context) ([]domain.Resource, error) {
	const query = `
        SELECT id, name, description, type, department_id, quantity, available, created_at, updated_at
        FROM resources ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResources(rows)
}

func (r *resourceRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Resource, error) {
	const query = `
        SELECT id, name, description, type, department_id, quantity, available, created_at, updated_at
        FROM resources WHERE department_id=$1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResources(rows)
}

func scanResources(rows pgx.Rows) ([]domain.Resource, error) {
	var result []domain.Resource
	for rows.Next() {
		var resource domain.Resource
		if err := rows.Scan(
			&resource.ID,
			&resource.Name,
			&resource.Description,
			&resource.Type,
			&resource.DepartmentID,
			&resource.Quantity,
			&resource.Available,
			&resource.CreatedAt,
			&resource.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, resource)
	}
	return result, rows.Err()
}
