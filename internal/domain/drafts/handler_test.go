package drafts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/florence/florence/internal/llm"
)

func newTestHandler(composer llm.Client) (*Handler, *Service) {
	svc := newTestService()
	return NewHandler(svc, composer), svc
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func seedDraft(t *testing.T, svc *Service, content string) uuid.UUID {
	t.Helper()
	id, err := svc.CreateDraft(context.Background(), CreateInput{
		Title:            "Test Draft",
		DocumentType:     "sbar_report",
		GeneratedContent: content,
	})
	if err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	return id
}

func TestHandlerCreateDraft(t *testing.T) {
	h, _ := newTestHandler(nil)
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/api/v1/drafts",
		`{"title":"Discharge Note","document_type":"discharge_instructions","content":"Rest well."}`)
	c := e.NewContext(req, rec)

	if err := h.CreateDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var snap DraftSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if snap.Status != StatusDraft || snap.Content != "Rest well." || snap.RevisionCount != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestHandlerCreateDraft_MissingTitle(t *testing.T) {
	h, _ := newTestHandler(nil)
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/api/v1/drafts", `{"document_type":"sbar_report"}`)
	c := e.NewContext(req, rec)

	err := h.CreateDraft(c)
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandlerGetDraft_InvalidID(t *testing.T) {
	h, _ := newTestHandler(nil)
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/api/v1/drafts/not-a-uuid", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetDraft(c)
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandlerGetDraft_NotFound(t *testing.T) {
	h, _ := newTestHandler(nil)
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/api/v1/drafts/x", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetDraft(c)
	if httpStatus(t, err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandlerEditDraft(t *testing.T) {
	h, svc := newTestHandler(nil)
	id := seedDraft(t, svc, "original")
	e := echo.New()
	req, rec := jsonRequest(http.MethodPut, "/api/v1/drafts/x/content",
		`{"content":"edited","change_summary":"fixed wording"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.EditDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var snap DraftSnapshot
	json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap.Content != "edited" || !snap.HasEdits || snap.RevisionCount != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestHandlerEditDraft_MissingContent(t *testing.T) {
	h, svc := newTestHandler(nil)
	id := seedDraft(t, svc, "original")
	e := echo.New()
	req, rec := jsonRequest(http.MethodPut, "/api/v1/drafts/x/content", `{"change_summary":"nothing"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	err := h.EditDraft(c)
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandlerUpdateStatus_InvalidTransition(t *testing.T) {
	h, svc := newTestHandler(nil)
	id := seedDraft(t, svc, "content")
	e := echo.New()
	req, rec := jsonRequest(http.MethodPut, "/api/v1/drafts/x/status", `{"status":"sent"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	err := h.UpdateStatus(c)
	if httpStatus(t, err) != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	h, svc := newTestHandler(nil)
	id := seedDraft(t, svc, "content")
	e := echo.New()
	req, rec := jsonRequest(http.MethodPut, "/api/v1/drafts/x/status",
		`{"status":"under_review","updated_by":"nurse-1"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var snap DraftSnapshot
	json.Unmarshal(rec.Body.Bytes(), &snap)
	if snap.Status != StatusUnderReview {
		t.Errorf("expected under_review, got %s", snap.Status)
	}
}

func TestHandlerList_Pagination(t *testing.T) {
	h, svc := newTestHandler(nil)
	for i := 0; i < 5; i++ {
		seedDraft(t, svc, "content")
	}
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/api/v1/drafts?limit=2&offset=0", "")
	c := e.NewContext(req, rec)

	if err := h.ListDrafts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []DraftSummary `json:"data"`
		Total   int            `json:"total"`
		HasMore bool           `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Data) != 2 || resp.Total != 5 || !resp.HasMore {
		t.Errorf("unexpected page: len=%d total=%d has_more=%v", len(resp.Data), resp.Total, resp.HasMore)
	}
}

func TestHandlerList_UnknownStatus(t *testing.T) {
	h, _ := newTestHandler(nil)
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/api/v1/drafts?status=published", "")
	c := e.NewContext(req, rec)

	err := h.ListDrafts(c)
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandlerExport(t *testing.T) {
	h, svc := newTestHandler(nil)
	id := seedDraft(t, svc, "plain content")
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/api/v1/drafts/x/export?format=text", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.ExportDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "plain content" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename="Test_Draft.txt"`) {
		t.Errorf("unexpected disposition: %q", cd)
	}
}

func TestHandlerExport_UnknownFormat(t *testing.T) {
	h, svc := newTestHandler(nil)
	id := seedDraft(t, svc, "content")
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/api/v1/drafts/x/export?format=pdf", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	err := h.ExportDraft(c)
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandlerPreview_RendersMarkdown(t *testing.T) {
	h, svc := newTestHandler(nil)
	id := seedDraft(t, svc, "## Instructions\n\nRest for 48 hours.")
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/api/v1/drafts/x/preview", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.PreviewDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "<h2") {
		t.Errorf("expected rendered heading, got %q", rec.Body.String())
	}
}

func TestHandlerCompare(t *testing.T) {
	h, svc := newTestHandler(nil)
	id := seedDraft(t, svc, "one\ntwo")
	svc.EditDraft(context.Background(), id, "one\ntwo\nthree", nil, "")
	history, _ := svc.History(context.Background(), id)

	e := echo.New()
	req, rec := jsonRequest(http.MethodGet,
		"/api/v1/drafts/x/compare?rev1="+history[0].RevisionID.String()+"&rev2="+history[1].RevisionID.String(), "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.CompareRevisions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cmp RevisionComparison
	json.Unmarshal(rec.Body.Bytes(), &cmp)
	if cmp.LinesAdded != 1 {
		t.Errorf("expected lines_added 1, got %d", cmp.LinesAdded)
	}
}

func TestHandlerCompose(t *testing.T) {
	h, _ := newTestHandler(llm.Mock{Response: "# Generated Handout\n\nDrink fluids."})
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/api/v1/drafts/compose",
		`{"title":"Hydration Handout","document_type":"patient_education","prompt":"hydration after surgery"}`)
	c := e.NewContext(req, rec)

	if err := h.ComposeDraft(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var snap DraftSnapshot
	json.Unmarshal(rec.Body.Bytes(), &snap)
	if !strings.Contains(snap.Content, "Generated Handout") {
		t.Errorf("expected generated content, got %q", snap.Content)
	}
	if snap.HasEdits {
		t.Error("composed draft must start without edits")
	}
}

func TestHandlerCompose_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(nil)
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/api/v1/drafts/compose",
		`{"title":"T","document_type":"patient_education","prompt":"p"}`)
	c := e.NewContext(req, rec)

	err := h.ComposeDraft(c)
	if httpStatus(t, err) != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err)
	}
}

func TestHandlerStatistics(t *testing.T) {
	h, svc := newTestHandler(nil)
	seedDraft(t, svc, "a")
	seedDraft(t, svc, "b")
	e := echo.New()
	req, rec := jsonRequest(http.MethodGet, "/api/v1/drafts/statistics", "")
	c := e.NewContext(req, rec)

	if err := h.GetStatistics(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var stats Statistics
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.TotalDrafts != 2 || stats.TotalRevisions != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
