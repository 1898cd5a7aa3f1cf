package drafts

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// draftRepoMemory is the reference in-memory draft store. It is safe for
// concurrent use; the service layer additionally serializes per-document
// mutation pairs (draft update + revision append).
type draftRepoMemory struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*DocumentDraft
}

// NewDraftRepoMemory creates an in-memory DraftRepository.
func NewDraftRepoMemory() DraftRepository {
	return &draftRepoMemory{items: make(map[uuid.UUID]*DocumentDraft)}
}

func cloneDraft(d *DocumentDraft) *DocumentDraft {
	c := *d
	if d.EditedContent != nil {
		v := *d.EditedContent
		c.EditedContent = &v
	}
	if d.Metadata != nil {
		c.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}
	if d.Tags != nil {
		c.Tags = append([]string(nil), d.Tags...)
	}
	return &c
}

func (r *draftRepoMemory) Create(_ context.Context, d *DocumentDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[d.ID] = cloneDraft(d)
	return nil
}

func (r *draftRepoMemory) GetByID(_ context.Context, id uuid.UUID) (*DocumentDraft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return cloneDraft(d), nil
}

func (r *draftRepoMemory) Update(_ context.Context, d *DocumentDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[d.ID]; !ok {
		return ErrDraftNotFound
	}
	r.items[d.ID] = cloneDraft(d)
	return nil
}

func (r *draftRepoMemory) List(_ context.Context, filter ListFilter) ([]*DocumentDraft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*DocumentDraft
	for _, d := range r.items {
		if matchesFilter(d, filter) {
			result = append(result, cloneDraft(d))
		}
	}
	return result, nil
}

// matchesFilter applies AND semantics across filters; the tags filter is
// satisfied by any overlap between draft tags and requested tags.
func matchesFilter(d *DocumentDraft, f ListFilter) bool {
	if f.CreatedBy != "" && (d.CreatedBy == nil || *d.CreatedBy != f.CreatedBy) {
		return false
	}
	if f.DocumentType != "" && d.DocumentType != f.DocumentType {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, have := range d.Tags {
				if have == want {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// revisionLogMemory is the reference in-memory append-only revision log.
type revisionLogMemory struct {
	mu    sync.RWMutex
	byDoc map[uuid.UUID][]*DocumentRevision
	total int
}

// NewRevisionLogMemory creates an in-memory RevisionLog.
func NewRevisionLogMemory() RevisionLog {
	return &revisionLogMemory{byDoc: make(map[uuid.UUID][]*DocumentRevision)}
}

func cloneRevision(r *DocumentRevision) *DocumentRevision {
	c := *r
	if r.ChangedBy != nil {
		v := *r.ChangedBy
		c.ChangedBy = &v
	}
	return &c
}

func (l *revisionLogMemory) Append(_ context.Context, r *DocumentRevision) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored := cloneRevision(r)
	l.byDoc[stored.DocumentID] = append(l.byDoc[stored.DocumentID], stored)
	l.total++
	return nil
}

func (l *revisionLogMemory) Latest(_ context.Context, documentID uuid.UUID) (*DocumentRevision, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	revs := l.byDoc[documentID]
	if len(revs) == 0 {
		return nil, nil
	}
	return cloneRevision(revs[len(revs)-1]), nil
}

func (l *revisionLogMemory) History(_ context.Context, documentID uuid.UUID) ([]*DocumentRevision, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	revs := l.byDoc[documentID]
	result := make([]*DocumentRevision, 0, len(revs))
	for _, r := range revs {
		result = append(result, cloneRevision(r))
	}
	return result, nil
}

func (l *revisionLogMemory) Count(_ context.Context, documentID uuid.UUID) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byDoc[documentID]), nil
}

func (l *revisionLogMemory) CountAll(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total, nil
}
