package drafts

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DocumentStatus is a draft's position in the approval workflow.
type DocumentStatus string

const (
	StatusDraft       DocumentStatus = "draft"
	StatusUnderReview DocumentStatus = "under_review"
	StatusApproved    DocumentStatus = "approved"
	StatusSent        DocumentStatus = "sent"
	StatusArchived    DocumentStatus = "archived"
)

// ValidStatus reports whether s is one of the known workflow statuses.
func ValidStatus(s DocumentStatus) bool {
	switch s {
	case StatusDraft, StatusUnderReview, StatusApproved, StatusSent, StatusArchived:
		return true
	}
	return false
}

// allowedTransitions is the lifecycle table. The workflow progresses
// draft → under_review → approved → sent → archived; the only backward
// edges are explicit reopens to draft. archived is terminal.
var allowedTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:       {StatusUnderReview, StatusArchived},
	StatusUnderReview: {StatusApproved, StatusDraft, StatusArchived},
	StatusApproved:    {StatusSent, StatusDraft},
	StatusSent:        {StatusArchived},
	StatusArchived:    {},
}

// CanTransition reports whether a status change from one status to another
// is permitted by the lifecycle table.
func CanTransition(from, to DocumentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Sentinel errors returned by the service. Callers are expected to check
// them with errors.Is; nothing in this package panics on a missing id.
var (
	ErrDraftNotFound    = errors.New("draft not found")
	ErrRevisionNotFound = errors.New("revision not found")
)

// InvalidTransitionError reports a status change rejected by the lifecycle table.
type InvalidTransitionError struct {
	From DocumentStatus
	To   DocumentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// DocumentDraft maps to the document_draft table. OriginalContent is the
// system-generated text and is never mutated after creation; EditedContent,
// when non-nil, is the authoritative current content.
type DocumentDraft struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	Title           string            `db:"title" json:"title"`
	DocumentType    string            `db:"document_type" json:"document_type"`
	OriginalContent string            `db:"original_content" json:"original_content"`
	EditedContent   *string           `db:"edited_content" json:"edited_content,omitempty"`
	Status          DocumentStatus    `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	LastModified    time.Time         `db:"last_modified" json:"last_modified"`
	CreatedBy       *string           `db:"created_by" json:"created_by,omitempty"`
	ReviewedBy      *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	Notes           *string           `db:"notes" json:"notes,omitempty"`
	Metadata        map[string]string `db:"metadata" json:"metadata,omitempty"`
	Tags            []string          `db:"tags" json:"tags,omitempty"`
}

// EffectiveContent returns the authoritative current content: the edited
// content when present, otherwise the original generated text.
func (d *DocumentDraft) EffectiveContent() string {
	if d.EditedContent != nil {
		return *d.EditedContent
	}
	return d.OriginalContent
}

// HasEdits reports whether a user has modified the generated content.
func (d *DocumentDraft) HasEdits() bool {
	return d.EditedContent != nil
}

// DiffStats holds the signed line/character deltas of a revision versus the
// previous revision's content. These are count deltas, not a line-level diff.
type DiffStats struct {
	LinesAdded        int `json:"lines_added"`
	TotalLines        int `json:"total_lines"`
	CharactersChanged int `json:"characters_changed"`
}

// DocumentRevision is an immutable full snapshot of a draft's content at one
// point in time. Revisions are append-only and outlive their draft.
type DocumentRevision struct {
	RevisionID    uuid.UUID `db:"revision_id" json:"revision_id"`
	DocumentID    uuid.UUID `db:"document_id" json:"document_id"`
	Content       string    `db:"content" json:"content"`
	ChangedBy     *string   `db:"changed_by" json:"changed_by,omitempty"`
	ChangedAt     time.Time `db:"changed_at" json:"changed_at"`
	ChangeSummary string    `db:"change_summary" json:"change_summary"`
	DiffStats     DiffStats `json:"diff_stats"`
}

// DraftSnapshot is the read view returned by GetDraft: the draft plus its
// effective content and revision count.
type DraftSnapshot struct {
	ID              uuid.UUID         `json:"id"`
	Title           string            `json:"title"`
	DocumentType    string            `json:"document_type"`
	Content         string            `json:"content"`
	OriginalContent string            `json:"original_content"`
	HasEdits        bool              `json:"has_edits"`
	Status          DocumentStatus    `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	LastModified    time.Time         `json:"last_modified"`
	CreatedBy       *string           `json:"created_by,omitempty"`
	ReviewedBy      *string           `json:"reviewed_by,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	RevisionCount   int               `json:"revision_count"`
}

// summaryContentLimit bounds the content preview in list results.
const summaryContentLimit = 200

// DraftSummary is the truncated list view of a draft.
type DraftSummary struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	DocumentType string         `json:"document_type"`
	Content      string         `json:"content"`
	Status       DocumentStatus `json:"status"`
	CreatedBy    *string        `json:"created_by,omitempty"`
	LastModified time.Time      `json:"last_modified"`
	Tags         []string       `json:"tags,omitempty"`
	HasEdits     bool           `json:"has_edits"`
}

// ListFilter selects drafts in ListDrafts. All set fields must match
// (AND semantics); within Tags a draft matches if it carries any of the
// requested tags.
type ListFilter struct {
	CreatedBy    string
	DocumentType string
	Status       DocumentStatus
	Tags         []string
}

// RevisionComparison reports the count deltas between two revisions of the
// same document. LinesAdded is order-dependent (second minus first);
// TotalChange is the absolute character-delta magnitude.
type RevisionComparison struct {
	DocumentID  uuid.UUID `json:"document_id"`
	RevisionID1 uuid.UUID `json:"revision_id_1"`
	RevisionID2 uuid.UUID `json:"revision_id_2"`
	Lines1      int       `json:"lines_1"`
	Lines2      int       `json:"lines_2"`
	LinesAdded  int       `json:"lines_added"`
	TotalChange int       `json:"total_change"`
}

// Statistics aggregates draft counts for dashboards.
type Statistics struct {
	TotalDrafts    int                    `json:"total_drafts"`
	ByStatus       map[DocumentStatus]int `json:"by_status"`
	ByDocumentType map[string]int         `json:"by_document_type"`
	TotalRevisions int                    `json:"total_revisions"`
	ActiveDrafts   int                    `json:"active_drafts"`
}

// ExportFormat selects the export envelope.
type ExportFormat string

const (
	FormatText ExportFormat = "text"
	FormatHTML ExportFormat = "html"
	FormatJSON ExportFormat = "json"
)

// ExportResult is the rendered document plus a suggested filename.
type ExportResult struct {
	Format   ExportFormat `json:"format"`
	Content  string       `json:"content"`
	Filename string       `json:"filename"`
}

// countLines counts newline-delimited lines, treating empty content as zero
// lines so the first-revision zero baseline works out.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

// computeDiffStats derives the signed count deltas of newContent versus
// oldContent (empty string for the zero baseline). Character counts are
// runes, not bytes.
func computeDiffStats(oldContent, newContent string) DiffStats {
	return DiffStats{
		LinesAdded:        countLines(newContent) - countLines(oldContent),
		TotalLines:        countLines(newContent),
		CharactersChanged: utf8.RuneCountInString(newContent) - utf8.RuneCountInString(oldContent),
	}
}
