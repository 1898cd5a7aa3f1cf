package drafts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const initialRevisionSummary = "Initial draft created"

// Service implements the draft store operations over a DraftRepository and
// a RevisionLog. A striped per-document lock keeps each mutation and its
// revision append atomic as a pair; documents are independent, so no
// operation ever holds more than one stripe.
type Service struct {
	repo      DraftRepository
	revisions RevisionLog

	locks [64]sync.Mutex
}

func NewService(repo DraftRepository, revisions RevisionLog) *Service {
	return &Service{repo: repo, revisions: revisions}
}

func (s *Service) lock(id uuid.UUID) *sync.Mutex {
	return &s.locks[id[0]%uint8(len(s.locks))]
}

// CreateInput carries the fields accepted at draft creation.
type CreateInput struct {
	Title            string
	DocumentType     string
	GeneratedContent string
	CreatedBy        *string
	Metadata         map[string]string
	Tags             []string
}

// CreateDraft stores a new draft in status draft and appends the initial
// revision, whose content is exactly the generated content.
func (s *Service) CreateDraft(ctx context.Context, in CreateInput) (uuid.UUID, error) {
	now := time.Now().UTC()
	d := &DocumentDraft{
		ID:              uuid.New(),
		Title:           in.Title,
		DocumentType:    in.DocumentType,
		OriginalContent: in.GeneratedContent,
		Status:          StatusDraft,
		CreatedAt:       now,
		LastModified:    now,
		CreatedBy:       in.CreatedBy,
		Metadata:        in.Metadata,
		Tags:            in.Tags,
	}

	mu := s.lock(d.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.repo.Create(ctx, d); err != nil {
		return uuid.Nil, fmt.Errorf("create draft: %w", err)
	}
	if err := s.appendRevision(ctx, d.ID, in.GeneratedContent, in.CreatedBy, initialRevisionSummary); err != nil {
		return uuid.Nil, fmt.Errorf("append initial revision: %w", err)
	}
	return d.ID, nil
}

// appendRevision records a full content snapshot with diff stats computed
// against the latest revision (zero baseline when none exists). Caller must
// hold the document's lock.
func (s *Service) appendRevision(ctx context.Context, documentID uuid.UUID, content string, changedBy *string, summary string) error {
	prev, err := s.revisions.Latest(ctx, documentID)
	if err != nil {
		return err
	}
	oldContent := ""
	if prev != nil {
		oldContent = prev.Content
	}
	return s.revisions.Append(ctx, &DocumentRevision{
		RevisionID:    uuid.New(),
		DocumentID:    documentID,
		Content:       content,
		ChangedBy:     changedBy,
		ChangedAt:     time.Now().UTC(),
		ChangeSummary: summary,
		DiffStats:     computeDiffStats(oldContent, content),
	})
}

// EditDraft replaces the draft's effective content and records a revision.
// Returns ErrDraftNotFound for an unknown id; no revision is written in that
// case.
func (s *Service) EditDraft(ctx context.Context, id uuid.UUID, newContent string, editedBy *string, changeSummary string) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if changeSummary == "" {
		changeSummary = "Content edited"
	}

	d.EditedContent = &newContent
	d.LastModified = time.Now().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if err := s.appendRevision(ctx, id, newContent, editedBy, changeSummary); err != nil {
		return fmt.Errorf("append revision: %w", err)
	}
	return nil
}

// GetDraft returns the read view of a draft: effective content, has_edits
// flag, and revision count.
func (s *Service) GetDraft(ctx context.Context, id uuid.UUID) (*DraftSnapshot, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.revisions.Count(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count revisions: %w", err)
	}
	return &DraftSnapshot{
		ID:              d.ID,
		Title:           d.Title,
		DocumentType:    d.DocumentType,
		Content:         d.EffectiveContent(),
		OriginalContent: d.OriginalContent,
		HasEdits:        d.HasEdits(),
		Status:          d.Status,
		CreatedAt:       d.CreatedAt,
		LastModified:    d.LastModified,
		CreatedBy:       d.CreatedBy,
		ReviewedBy:      d.ReviewedBy,
		Notes:           d.Notes,
		Metadata:        d.Metadata,
		Tags:            d.Tags,
		RevisionCount:   count,
	}, nil
}

// ListDrafts returns summaries matching the filter, sorted by last_modified
// descending. Summary content is truncated to 200 characters with an
// ellipsis.
func (s *Service) ListDrafts(ctx context.Context, filter ListFilter) ([]*DraftSummary, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].LastModified.After(items[j].LastModified)
	})
	summaries := make([]*DraftSummary, len(items))
	for i, d := range items {
		summaries[i] = &DraftSummary{
			ID:           d.ID,
			Title:        d.Title,
			DocumentType: d.DocumentType,
			Content:      truncate(d.EffectiveContent(), summaryContentLimit),
			Status:       d.Status,
			CreatedBy:    d.CreatedBy,
			LastModified: d.LastModified,
			Tags:         d.Tags,
			HasEdits:     d.HasEdits(),
		}
	}
	return summaries, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// UpdateStatus moves the draft through its lifecycle. Transitions outside
// the lifecycle table are rejected with *InvalidTransitionError. Every
// accepted transition appends exactly one audit revision whose content is
// the unchanged effective content; reviewed_by is stamped only when the
// draft becomes approved.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus DocumentStatus, updatedBy *string, notes *string) error {
	if !ValidStatus(newStatus) {
		return fmt.Errorf("unknown status: %s", newStatus)
	}

	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(d.Status, newStatus) {
		return &InvalidTransitionError{From: d.Status, To: newStatus}
	}

	summary := fmt.Sprintf("Status changed from %s to %s", d.Status, newStatus)

	d.Status = newStatus
	d.LastModified = time.Now().UTC()
	if notes != nil {
		d.Notes = notes
	}
	if newStatus == StatusApproved {
		d.ReviewedBy = updatedBy
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if err := s.appendRevision(ctx, id, d.EffectiveContent(), updatedBy, summary); err != nil {
		return fmt.Errorf("append audit revision: %w", err)
	}
	return nil
}

// History returns a document's revisions, oldest first. Unknown documents
// yield an empty history.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]*DocumentRevision, error) {
	return s.revisions.History(ctx, id)
}

// CompareRevisions reports count deltas between two revisions of one
// document. LinesAdded is second-minus-first; TotalChange is the absolute
// character-delta magnitude, so it is order-independent.
func (s *Service) CompareRevisions(ctx context.Context, documentID, rev1, rev2 uuid.UUID) (*RevisionComparison, error) {
	history, err := s.revisions.History(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var first, second *DocumentRevision
	for _, r := range history {
		if r.RevisionID == rev1 {
			first = r
		}
		if r.RevisionID == rev2 {
			second = r
		}
	}
	if first == nil || second == nil {
		return nil, ErrRevisionNotFound
	}

	lines1 := countLines(first.Content)
	lines2 := countLines(second.Content)
	change := len([]rune(second.Content)) - len([]rune(first.Content))
	if change < 0 {
		change = -change
	}
	return &RevisionComparison{
		DocumentID:  documentID,
		RevisionID1: rev1,
		RevisionID2: rev2,
		Lines1:      lines1,
		Lines2:      lines2,
		LinesAdded:  lines2 - lines1,
		TotalChange: change,
	}, nil
}

// Statistics aggregates counts by status and by document type, the total
// revision count, and the number of active (non-archived) drafts. An empty
// createdBy aggregates across all authors.
func (s *Service) Statistics(ctx context.Context, createdBy string) (*Statistics, error) {
	items, err := s.repo.List(ctx, ListFilter{CreatedBy: createdBy})
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	stats := &Statistics{
		ByStatus:       make(map[DocumentStatus]int),
		ByDocumentType: make(map[string]int),
	}
	for _, d := range items {
		stats.TotalDrafts++
		stats.ByStatus[d.Status]++
		stats.ByDocumentType[d.DocumentType]++
		if d.Status != StatusArchived {
			stats.ActiveDrafts++
		}
		count, err := s.revisions.Count(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("count revisions: %w", err)
		}
		stats.TotalRevisions += count
	}
	return stats, nil
}

// Export renders the draft's current effective content into the requested
// envelope. It is a pure projection: no state changes, and identical calls
// return identical results.
func (s *Service) Export(ctx context.Context, id uuid.UUID, format ExportFormat) (*ExportResult, error) {
	snap, err := s.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	return FormatDraft(snap, format)
}
