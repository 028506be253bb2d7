package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/tenderhub/internal/domain/document"
	"github.com/geocoder89/tenderhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentsRepo struct {
	base
}

func NewDocumentsRepo(pool *pgxpool.Pool, prom *observability.Prom) *DocumentsRepo {
	return &DocumentsRepo{base{pool: pool, prom: prom}}
}

const documentColumns = `id, bid_id, document_type, file_name, file_path, file_size, content_type,
	uploaded_at, verified, verification_notes`

func scanDocument(row pgx.Row) (document.Document, error) {
	var d document.Document
	err := row.Scan(
		&d.ID, &d.BidID, &d.DocumentType, &d.FileName, &d.FilePath, &d.FileSize, &d.ContentType,
		&d.UploadedAt, &d.Verified, &d.VerificationNotes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return document.Document{}, document.ErrNotFound
		}
		return document.Document{}, err
	}
	return d, nil
}

func insertDocument(ctx context.Context, q querier, d document.Document) error {
	_, err := q.Exec(ctx, `
		INSERT INTO documents (id, bid_id, document_type, file_name, file_path, file_size, content_type, uploaded_at, verified, verification_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, d.ID, d.BidID, d.DocumentType, d.FileName, d.FilePath, d.FileSize, d.ContentType, d.UploadedAt, d.Verified, d.VerificationNotes)
	return err
}

// listDocuments groups the documents of the given bids by bid id.
func listDocuments(ctx context.Context, q querier, bidIDs []string) (map[string][]document.Document, error) {
	rows, err := q.Query(ctx, `SELECT `+documentColumns+` FROM documents WHERE bid_id = ANY($1) ORDER BY uploaded_at ASC, id ASC`, bidIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]document.Document, len(bidIDs))
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out[d.BidID] = append(out[d.BidID], d)
	}
	return out, rows.Err()
}

func (r *DocumentsRepo) Create(ctx context.Context, d document.Document) (document.Document, error) {
	err := r.observe("documents.create", func() error {
		return insertDocument(ctx, r.pool, d)
	})
	if err != nil {
		return document.Document{}, err
	}
	return d, nil
}

func (r *DocumentsRepo) GetByID(ctx context.Context, id string) (document.Document, error) {
	var d document.Document
	err := r.observe("documents.get_by_id", func() error {
		var err error
		d, err = scanDocument(r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
		return err
	})
	return d, err
}

func (r *DocumentsRepo) ListByBid(ctx context.Context, bidID string) ([]document.Document, error) {
	var out []document.Document
	err := r.observe("documents.list_by_bid", func() error {
		docs, err := listDocuments(ctx, r.pool, []string{bidID})
		if err != nil {
			return err
		}
		out = docs[bidID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []document.Document{}
	}
	return out, nil
}

func (r *DocumentsRepo) Verify(ctx context.Context, id string, req document.VerifyRequest) (document.Document, error) {
	var d document.Document
	err := r.observe("documents.verify", func() error {
		var err error
		d, err = scanDocument(r.pool.QueryRow(ctx, `
			UPDATE documents
			SET verified = $2, verification_notes = $3
			WHERE id = $1
			RETURNING `+documentColumns,
			id, *req.Verified, req.VerificationNotes,
		))
		return err
	})
	return d, err
}
