// internal/store/refdata.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"paperless-analytics/internal/models"
)

// RefStore reads the branch and service reference tables. Reference data is
// maintained elsewhere; the statistics path only reads it and degrades to raw
// identifiers when a row is missing.
type RefStore struct {
	db *sql.DB
}

func NewRefStore(db *sql.DB) *RefStore {
	return &RefStore{db: db}
}

// GetBranch returns the branch reference row, or nil when unknown.
func (s *RefStore) GetBranch(ctx context.Context, branchID string) (*models.Branch, error) {
	var b models.Branch
	err := s.db.QueryRowContext(ctx, `
		SELECT branch_id, branch_name, district FROM branches WHERE branch_id = $1`,
		branchID,
	).Scan(&b.BranchID, &b.BranchName, &b.District)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return &b, nil
}

// CountBranches counts registered branches, optionally per district.
func (s *RefStore) CountBranches(ctx context.Context, district string) (int, error) {
	query := `SELECT COUNT(*) FROM branches`
	args := []interface{}{}
	if district != "" {
		query += ` WHERE district = $1`
		args = append(args, district)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count branches: %w", err)
	}
	return n, nil
}

// CountActiveServices counts services currently offered.
func (s *RefStore) CountActiveServices(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services WHERE is_active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active services: %w", err)
	}
	return n, nil
}
