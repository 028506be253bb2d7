package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/tenderhub/internal/domain/project"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/geocoder89/tenderhub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectsRepo struct {
	base
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{base{pool: pool, prom: prom}}
}

const projectColumns = `p.id, p.title, p.description, p.project_type, p.budget, p.deadline, p.status,
	p.created_by, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM bids b WHERE b.project_id = p.id) AS bid_count`

func scanProject(row pgx.Row, extra ...any) (project.Project, error) {
	var p project.Project
	dest := []any{
		&p.ID, &p.Title, &p.Description, &p.ProjectType, &p.Budget, &p.Deadline, &p.Status,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.BidCount,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}
	return p, nil
}

func (r *ProjectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	err := r.observe("projects.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO projects (id, title, description, project_type, budget, deadline, status, created_by, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			p.ID, p.Title, p.Description, p.ProjectType, p.Budget, p.Deadline, p.Status, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	var p project.Project
	err := r.observe("projects.get_by_id", func() error {
		var err error
		p, err = scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = $1`, id))
		return err
	})
	return p, err
}

// List returns projects newest first. nextCursor is set when more rows exist after the page.
func (r *ProjectsRepo) List(ctx context.Context, f project.ListFilter) (items []project.Project, total int, nextCursor *string, err error) {
	var (
		conds   []string
		args    []any
		argsPos = 1
	)

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("p.status = $%d", argsPos))
		args = append(args, *f.Status)
		argsPos++
	}
	if f.Type != nil {
		conds = append(conds, fmt.Sprintf("p.project_type = $%d", argsPos))
		args = append(args, *f.Type)
		argsPos++
	}
	if f.Query != nil && strings.TrimSpace(*f.Query) != "" {
		conds = append(conds, fmt.Sprintf(`(p.title ILIKE $%d ESCAPE '\' OR p.description ILIKE $%d ESCAPE '\')`, argsPos, argsPos))
		args = append(args, containsPattern(strings.TrimSpace(*f.Query)))
		argsPos++
	}

	// total ignores the keyset position so the header stays stable across pages
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	countArgs := append([]any(nil), args...)

	if f.AfterCreatedAt != nil && f.AfterID != "" {
		conds = append(conds, fmt.Sprintf("(p.created_at, p.id) < ($%d, $%d)", argsPos, argsPos+1))
		args = append(args, *f.AfterCreatedAt, f.AfterID)
		argsPos += 2
	}

	q := `SELECT ` + projectColumns + ` FROM projects p`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d", argsPos)
	args = append(args, f.Limit+1)

	err = r.observe("projects.list", func() error {
		if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects p`+where, countArgs...).Scan(&total); err != nil {
			return err
		}

		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		items = make([]project.Project, 0, f.Limit)
		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			items = append(items, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, nil, err
	}

	if len(items) > f.Limit {
		items = items[:f.Limit]
		last := items[len(items)-1]

		cur, encErr := utils.EncodeCursor(last.CreatedAt, last.ID)
		if encErr != nil {
			return nil, 0, nil, encErr
		}
		nextCursor = &cur
	}

	return items, total, nextCursor, nil
}

// Update writes the full mutable row. Callers merge partial updates with Project.Apply first.
func (r *ProjectsRepo) Update(ctx context.Context, p project.Project) (project.Project, error) {
	var out project.Project

	err := r.observe("projects.update", func() error {
		var err error
		out, err = scanProject(r.pool.QueryRow(ctx, `
			WITH updated AS (
				UPDATE projects
				SET title = $2,
				    description = $3,
				    project_type = $4,
				    budget = $5,
				    deadline = $6,
				    status = $7,
				    updated_at = $8
				WHERE id = $1
				RETURNING *
			)
			SELECT `+projectColumns+` FROM updated p`,
			p.ID, p.Title, p.Description, p.ProjectType, p.Budget, p.Deadline, p.Status, p.UpdatedAt,
		))
		return err
	})
	return out, err
}

// Delete removes the project with its bids and documents and returns the stored file paths
// so the caller can clean up the upload directory.
func (r *ProjectsRepo) Delete(ctx context.Context, id string) ([]string, error) {
	var paths []string

	err := r.observe("projects.delete", func() error {
		return r.inTx(ctx, func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, `
				SELECT d.file_path
				FROM documents d
				JOIN bids b ON b.id = d.bid_id
				WHERE b.project_id = $1
			`, id)
			if err != nil {
				return err
			}
			for rows.Next() {
				var p string
				if err := rows.Scan(&p); err != nil {
					rows.Close()
					return err
				}
				paths = append(paths, p)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}

			var tag pgconn.CommandTag
			tag, err = tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return project.ErrNotFound
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// CloseExpired moves open projects whose deadline passed to under_review and returns their ids.
func (r *ProjectsRepo) CloseExpired(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string

	err := r.observe("projects.close_expired", func() error {
		rows, err := r.pool.Query(ctx, `
			UPDATE projects
			SET status = $1, updated_at = $3
			WHERE status = $2 AND deadline <= $3
			RETURNING id
		`, project.StatusUnderReview, project.StatusOpen, now)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	return ids, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds an ILIKE substring pattern that matches q literally.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
