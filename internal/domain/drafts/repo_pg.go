package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Draft Repository ===========

type draftRepoPG struct{ pool *pgxpool.Pool }

// NewDraftRepoPG creates a PostgreSQL-backed DraftRepository.
func NewDraftRepoPG(pool *pgxpool.Pool) DraftRepository { return &draftRepoPG{pool: pool} }

const draftCols = `id, title, document_type, original_content, edited_content,
	status, created_at, last_modified, created_by, reviewed_by, notes, metadata, tags`

func scanDraft(row pgx.Row) (*DocumentDraft, error) {
	var d DocumentDraft
	var metadata []byte
	err := row.Scan(&d.ID, &d.Title, &d.DocumentType, &d.OriginalContent, &d.EditedContent,
		&d.Status, &d.CreatedAt, &d.LastModified, &d.CreatedBy, &d.ReviewedBy, &d.Notes,
		&metadata, &d.Tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal draft metadata: %w", err)
		}
	}
	return &d, nil
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (r *draftRepoPG) Create(ctx context.Context, d *DocumentDraft) error {
	metadata, err := marshalMetadata(d.Metadata)
	if err != nil {
		return fmt.Errorf("marshal draft metadata: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO document_draft (id, title, document_type, original_content, edited_content,
			status, created_at, last_modified, created_by, reviewed_by, notes, metadata, tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		d.ID, d.Title, d.DocumentType, d.OriginalContent, d.EditedContent,
		d.Status, d.CreatedAt, d.LastModified, d.CreatedBy, d.ReviewedBy, d.Notes,
		metadata, d.Tags)
	return err
}

func (r *draftRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DocumentDraft, error) {
	return scanDraft(r.pool.QueryRow(ctx, `SELECT `+draftCols+` FROM document_draft WHERE id = $1`, id))
}

func (r *draftRepoPG) Update(ctx context.Context, d *DocumentDraft) error {
	metadata, err := marshalMetadata(d.Metadata)
	if err != nil {
		return fmt.Errorf("marshal draft metadata: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE document_draft SET edited_content=$2, status=$3, last_modified=$4,
			reviewed_by=$5, notes=$6, metadata=$7, tags=$8
		WHERE id = $1`,
		d.ID, d.EditedContent, d.Status, d.LastModified,
		d.ReviewedBy, d.Notes, metadata, d.Tags)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func (r *draftRepoPG) List(ctx context.Context, filter ListFilter) ([]*DocumentDraft, error) {
	query := `SELECT ` + draftCols + ` FROM document_draft WHERE 1=1`
	var args []interface{}
	n := 0
	add := func(clause string, arg interface{}) {
		n++
		query += fmt.Sprintf(" AND "+clause, n)
		args = append(args, arg)
	}
	if filter.CreatedBy != "" {
		add("created_by = $%d", filter.CreatedBy)
	}
	if filter.DocumentType != "" {
		add("document_type = $%d", filter.DocumentType)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if len(filter.Tags) > 0 {
		add("tags && $%d", filter.Tags)
	}
	query += ` ORDER BY last_modified DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*DocumentDraft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// =========== Revision Log ===========

type revisionLogPG struct{ pool *pgxpool.Pool }

// NewRevisionLogPG creates a PostgreSQL-backed RevisionLog. The
// document_revision table is insert-only; nothing in this type updates or
// deletes rows.
func NewRevisionLogPG(pool *pgxpool.Pool) RevisionLog { return &revisionLogPG{pool: pool} }

const revisionCols = `revision_id, document_id, content, changed_by, changed_at,
	change_summary, lines_added, total_lines, characters_changed`

func scanRevision(row pgx.Row) (*DocumentRevision, error) {
	var rev DocumentRevision
	err := row.Scan(&rev.RevisionID, &rev.DocumentID, &rev.Content, &rev.ChangedBy, &rev.ChangedAt,
		&rev.ChangeSummary, &rev.DiffStats.LinesAdded, &rev.DiffStats.TotalLines, &rev.DiffStats.CharactersChanged)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (l *revisionLogPG) Append(ctx context.Context, rev *DocumentRevision) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO document_revision (revision_id, document_id, content, changed_by, changed_at,
			change_summary, lines_added, total_lines, characters_changed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rev.RevisionID, rev.DocumentID, rev.Content, rev.ChangedBy, rev.ChangedAt,
		rev.ChangeSummary, rev.DiffStats.LinesAdded, rev.DiffStats.TotalLines, rev.DiffStats.CharactersChanged)
	return err
}

func (l *revisionLogPG) Latest(ctx context.Context, documentID uuid.UUID) (*DocumentRevision, error) {
	rev, err := scanRevision(l.pool.QueryRow(ctx, `
		SELECT `+revisionCols+` FROM document_revision
		WHERE document_id = $1 ORDER BY changed_at DESC, revision_id DESC LIMIT 1`, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rev, nil
}

func (l *revisionLogPG) History(ctx context.Context, documentID uuid.UUID) ([]*DocumentRevision, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+revisionCols+` FROM document_revision
		WHERE document_id = $1 ORDER BY changed_at ASC, revision_id ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	revs := make([]*DocumentRevision, 0)
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	return revs, rows.Err()
}

func (l *revisionLogPG) Count(ctx context.Context, documentID uuid.UUID) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_revision WHERE document_id = $1`, documentID).Scan(&count)
	return count, err
}

func (l *revisionLogPG) CountAll(ctx context.Context) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_revision`).Scan(&count)
	return count, err
}
