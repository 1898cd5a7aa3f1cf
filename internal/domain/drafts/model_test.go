package drafts

import "testing"

func TestValidStatus(t *testing.T) {
	for _, s := range []DocumentStatus{StatusDraft, StatusUnderReview, StatusApproved, StatusSent, StatusArchived} {
		if !ValidStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	for _, s := range []DocumentStatus{"", "published", "DRAFT", "review"} {
		if ValidStatus(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]DocumentStatus{
		{StatusDraft, StatusUnderReview},
		{StatusDraft, StatusArchived},
		{StatusUnderReview, StatusApproved},
		{StatusUnderReview, StatusDraft},
		{StatusUnderReview, StatusArchived},
		{StatusApproved, StatusSent},
		{StatusApproved, StatusDraft},
		{StatusSent, StatusArchived},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}
	denied := [][2]DocumentStatus{
		{StatusDraft, StatusApproved},
		{StatusDraft, StatusSent},
		{StatusApproved, StatusArchived},
		{StatusSent, StatusDraft},
		{StatusArchived, StatusDraft},
		{StatusArchived, StatusSent},
		{StatusDraft, StatusDraft},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s -> %s to be denied", tr[0], tr[1])
		}
	}
}

func TestEffectiveContent(t *testing.T) {
	d := &DocumentDraft{OriginalContent: "generated"}
	if d.EffectiveContent() != "generated" {
		t.Errorf("expected original content, got %q", d.EffectiveContent())
	}
	if d.HasEdits() {
		t.Error("expected no edits")
	}
	edited := "edited"
	d.EditedContent = &edited
	if d.EffectiveContent() != "edited" {
		t.Errorf("expected edited content, got %q", d.EffectiveContent())
	}
	if !d.HasEdits() {
		t.Error("expected edits")
	}

	// An empty edit still counts as an edit and still wins.
	empty := ""
	d.EditedContent = &empty
	if d.EffectiveContent() != "" {
		t.Errorf("empty edit must win, got %q", d.EffectiveContent())
	}
	if !d.HasEdits() {
		t.Error("empty edit must still count as an edit")
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 3},
		{"\n", 2},
	}
	for _, tc := range cases {
		if got := countLines(tc.in); got != tc.want {
			t.Errorf("countLines(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestComputeDiffStats(t *testing.T) {
	stats := computeDiffStats("", "one\ntwo")
	if stats.LinesAdded != 2 || stats.TotalLines != 2 || stats.CharactersChanged != 7 {
		t.Errorf("zero baseline: %+v", stats)
	}

	stats = computeDiffStats("one\ntwo\nthree", "one")
	if stats.LinesAdded != -2 {
		t.Errorf("expected lines_added -2, got %d", stats.LinesAdded)
	}
	if stats.TotalLines != 1 {
		t.Errorf("expected total_lines 1, got %d", stats.TotalLines)
	}
	if stats.CharactersChanged != -10 {
		t.Errorf("expected characters_changed -10, got %d", stats.CharactersChanged)
	}

	stats = computeDiffStats("same", "same")
	if stats.LinesAdded != 0 || stats.CharactersChanged != 0 {
		t.Errorf("identical content must yield zero deltas: %+v", stats)
	}
}

func TestComputeDiffStats_CountsRunes(t *testing.T) {
	stats := computeDiffStats("", "héllo")
	if stats.CharactersChanged != 5 {
		t.Errorf("expected 5 characters, got %d", stats.CharactersChanged)
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{From: StatusDraft, To: StatusSent}
	want := "invalid status transition: draft -> sent"
	if err.Error() != want {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
