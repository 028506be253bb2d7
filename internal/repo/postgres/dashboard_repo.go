package postgres

import (
	"context"

	"github.com/geocoder89/tenderhub/internal/domain/dashboard"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DashboardRepo struct {
	base
}

func NewDashboardRepo(pool *pgxpool.Pool, prom *observability.Prom) *DashboardRepo {
	return &DashboardRepo{base{pool: pool, prom: prom}}
}

// Stats computes every dashboard counter in a single round trip.
func (r *DashboardRepo) Stats(ctx context.Context) (dashboard.Stats, error) {
	var s dashboard.Stats

	err := r.observe("dashboard.stats", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM projects),
				(SELECT COUNT(*) FROM projects WHERE status = 'open'),
				COUNT(*),
				COUNT(*) FILTER (WHERE status = 'submitted'),
				COUNT(*) FILTER (WHERE status = 'under_review'),
				COUNT(*) FILTER (WHERE status = 'accepted'),
				COUNT(*) FILTER (WHERE status = 'rejected'),
				(SELECT COUNT(*) FROM candidates)
			FROM bids
		`).Scan(
			&s.TotalProjects,
			&s.OpenProjects,
			&s.TotalBids,
			&s.PendingBids,
			&s.UnderReviewBids,
			&s.AcceptedBids,
			&s.RejectedBids,
			&s.TotalCandidates,
		)
	})
	return s, err
}
