package drafts

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// FormatDraft renders a draft snapshot into the requested export envelope.
// It is a total function of its input for any known format.
func FormatDraft(snap *DraftSnapshot, format ExportFormat) (*ExportResult, error) {
	switch format {
	case FormatText:
		return &ExportResult{
			Format:   FormatText,
			Content:  snap.Content,
			Filename: exportFilename(snap.Title, ".txt"),
		}, nil
	case FormatHTML:
		return &ExportResult{
			Format:   FormatHTML,
			Content:  renderHTML(snap),
			Filename: exportFilename(snap.Title, ".html"),
		}, nil
	case FormatJSON:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal draft snapshot: %w", err)
		}
		return &ExportResult{
			Format:   FormatJSON,
			Content:  string(data),
			Filename: exportFilename(snap.Title, ".json"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

func exportFilename(title, suffix string) string {
	name := strings.ReplaceAll(title, " ", "_")
	if name == "" {
		name = "document"
	}
	return name + suffix
}

// renderHTML wraps the effective content in a minimal document shell,
// converting newlines to <br> markup.
func renderHTML(snap *DraftSnapshot) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(snap.Title))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(snap.Title))
	fmt.Fprintf(&b, "<p class=\"meta\">Created %s</p>\n", snap.CreatedAt.Format("2006-01-02 15:04"))
	b.WriteString("<div class=\"content\">\n")
	b.WriteString(strings.ReplaceAll(html.EscapeString(snap.Content), "\n", "<br>\n"))
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}
