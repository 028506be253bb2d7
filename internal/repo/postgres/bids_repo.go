package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/bid"
	"github.com/geocoder89/tenderhub/internal/domain/document"
	"github.com/geocoder89/tenderhub/internal/domain/job"
	"github.com/geocoder89/tenderhub/internal/domain/project"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BidsRepo struct {
	base
	jobs *JobsRepo
	now  func() time.Time
}

func NewBidsRepo(pool *pgxpool.Pool, prom *observability.Prom, jobs *JobsRepo) *BidsRepo {
	return &BidsRepo{
		base: base{pool: pool, prom: prom},
		jobs: jobs,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

const bidViewSelect = `
	SELECT b.id, b.project_id, b.candidate_id, b.proposed_amount, b.proposed_timeline,
	       b.status, b.notes, b.submitted_at, b.reviewed_at, b.updated_at,
	       p.title, c.company_name, u.email, u.id
	FROM bids b
	JOIN projects p ON p.id = b.project_id
	JOIN candidates c ON c.id = b.candidate_id
	JOIN users u ON u.id = c.user_id
`

func scanBidView(row pgx.Row) (bid.View, error) {
	var v bid.View
	err := row.Scan(
		&v.ID, &v.ProjectID, &v.CandidateID, &v.ProposedAmount, &v.ProposedTimeline,
		&v.Status, &v.Notes, &v.SubmittedAt, &v.ReviewedAt, &v.UpdatedAt,
		&v.ProjectTitle, &v.CompanyName, &v.CandidateEmail, &v.CandidateUser,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bid.View{}, bid.ErrNotFound
		}
		return bid.View{}, err
	}
	v.CreatedAt = v.SubmittedAt
	v.Documents = []document.Document{}
	return v, nil
}

// Submit inserts a bid with its attached documents and the notification job in one transaction.
// The project row is share-locked so a concurrent status change cannot slip between check and insert.
func (r *BidsRepo) Submit(ctx context.Context, b bid.Bid, docs []document.Document, notify *job.CreateRequest) error {
	return r.observe("bids.submit", func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			var status string
			var deadline time.Time

			err := tx.QueryRow(ctx, `SELECT status, deadline FROM projects WHERE id = $1 FOR SHARE`, b.ProjectID).
				Scan(&status, &deadline)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return project.ErrNotFound
				}
				return err
			}

			if status != project.StatusOpen {
				return bid.ErrProjectNotOpen
			}
			if !r.now().Before(deadline) {
				return bid.ErrDeadlinePassed
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO bids (id, project_id, candidate_id, proposed_amount, proposed_timeline, status, notes, submitted_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			`, b.ID, b.ProjectID, b.CandidateID, b.ProposedAmount, b.ProposedTimeline, b.Status, b.Notes, b.SubmittedAt, b.UpdatedAt)
			if err != nil {
				if IsUniqueViolation(err) {
					return bid.ErrAlreadySubmitted
				}
				return err
			}

			for _, d := range docs {
				if err := insertDocument(ctx, tx, d); err != nil {
					return err
				}
			}

			if notify != nil {
				if _, err := r.jobs.CreateTx(ctx, tx, *notify); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (r *BidsRepo) GetView(ctx context.Context, id string) (bid.View, error) {
	var v bid.View

	err := r.observe("bids.get_view", func() error {
		var err error
		v, err = scanBidView(r.pool.QueryRow(ctx, bidViewSelect+` WHERE b.id = $1`, id))
		if err != nil {
			return err
		}

		docs, err := listDocuments(ctx, r.pool, []string{v.ID})
		if err != nil {
			return err
		}
		v.Documents = append(v.Documents, docs[v.ID]...)
		return nil
	})
	return v, err
}

// List returns bid views matching f, newest first, with their documents.
func (r *BidsRepo) List(ctx context.Context, f bid.ListFilter) ([]bid.View, error) {
	var (
		conds   []string
		args    []any
		argsPos = 1
	)

	if f.ProjectID != nil {
		conds = append(conds, fmt.Sprintf("b.project_id = $%d", argsPos))
		args = append(args, *f.ProjectID)
		argsPos++
	}
	if f.CandidateID != nil {
		conds = append(conds, fmt.Sprintf("b.candidate_id = $%d", argsPos))
		args = append(args, *f.CandidateID)
		argsPos++
	}
	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("b.status = $%d", argsPos))
		args = append(args, *f.Status)
		argsPos++
	}

	q := bidViewSelect
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY b.submitted_at DESC, b.id DESC"

	out := make([]bid.View, 0)

	err := r.observe("bids.list", func() error {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			v, err := scanBidView(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}

		ids := make([]string, len(out))
		for i := range out {
			ids[i] = out[i].ID
		}

		docs, err := listDocuments(ctx, r.pool, ids)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].Documents = append(out[i].Documents, docs[out[i].ID]...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus records an admin review decision and enqueues the candidate notice.
func (r *BidsRepo) UpdateStatus(ctx context.Context, id string, req bid.UpdateStatusRequest, notify *job.CreateRequest) (bid.View, error) {
	now := r.now()

	err := r.observe("bids.update_status", func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `
				UPDATE bids
				SET status = $2,
				    notes = COALESCE($3, notes),
				    reviewed_at = $4,
				    updated_at = $4
				WHERE id = $1
			`, id, req.Status, req.Notes, now)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return bid.ErrNotFound
			}

			if notify != nil {
				if _, err := r.jobs.CreateTx(ctx, tx, *notify); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return bid.View{}, err
	}

	return r.GetView(ctx, id)
}
