package drafts

import (
	"context"

	"github.com/google/uuid"
)

// DraftRepository owns DocumentDraft entities, keyed by id.
type DraftRepository interface {
	Create(ctx context.Context, d *DocumentDraft) error
	GetByID(ctx context.Context, id uuid.UUID) (*DocumentDraft, error)
	Update(ctx context.Context, d *DocumentDraft) error
	List(ctx context.Context, filter ListFilter) ([]*DocumentDraft, error)
}

// RevisionLog owns DocumentRevision entities, grouped by document id.
// It is append-only: revisions are never updated, deleted, or reordered,
// and they outlive their draft for audit purposes.
type RevisionLog interface {
	Append(ctx context.Context, r *DocumentRevision) error
	// Latest returns the most recently appended revision for the document,
	// or (nil, nil) when the document has no revisions yet.
	Latest(ctx context.Context, documentID uuid.UUID) (*DocumentRevision, error)
	// History returns all revisions for the document ordered by changed_at
	// ascending. An unknown document yields an empty slice, not an error.
	History(ctx context.Context, documentID uuid.UUID) ([]*DocumentRevision, error)
	Count(ctx context.Context, documentID uuid.UUID) (int, error)
	CountAll(ctx context.Context) (int, error)
}
