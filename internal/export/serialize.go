package export

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/hnreader/hnfav/internal/item"
)

// savedDateLayout formats saved timestamps in local time for the
// human-readable formats.
const savedDateLayout = "2006-01-02 15:04"

// Serialize renders the ordered item sequence into a document in the
// given format. Serializers are pure and total over non-empty sequences;
// callers guard against empty input.
func Serialize(format Format, items []item.Item, now time.Time) (string, error) {
	switch format {
	case FormatCSV:
		return serializeCSV(items), nil
	case FormatText:
		return serializeText(items), nil
	case FormatHTML:
		return serializeHTML(items), nil
	case FormatMarkdown:
		return serializeMarkdown(items), nil
	case FormatJSON:
		return serializeJSON(items, now)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

// serializeCSV renders a header row plus one row per item. The title
// field is quote-wrapped with internal quotes doubled.
func serializeCSV(items []item.Item) string {
	var b strings.Builder
	b.WriteString("Title,URL,Hacker News Link,Saved Date\n")
	for _, it := range items {
		title := `"` + strings.ReplaceAll(it.DisplayTitle(), `"`, `""`) + `"`
		fmt.Fprintf(&b, "%s,%s,%s,%s\n",
			title, it.URL, it.DiscussionURL(), it.SavedTime().Format(savedDateLayout))
	}
	return b.String()
}

// serializeText renders a numbered list, one block per item with indented
// detail lines and a blank-line separator.
func serializeText(items []item.Item) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.DisplayTitle())
		fmt.Fprintf(&b, "   URL: %s\n", it.URL)
		fmt.Fprintf(&b, "   Comments: %s\n", it.DiscussionURL())
		fmt.Fprintf(&b, "   Saved: %s\n", it.SavedTime().Format(savedDateLayout))
		b.WriteString("\n")
	}
	return b.String()
}

// serializeHTML renders a minimal standalone document with inline styling.
func serializeHTML(items []item.Item) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>Saved Stories</title>\n</head>\n")
	b.WriteString("<body style=\"font-family:sans-serif;max-width:42em;margin:2em auto\">\n")
	b.WriteString("<h1>Saved Stories</h1>\n")
	for _, it := range items {
		b.WriteString("<p style=\"margin-bottom:1.5em\">\n")
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a><br>\n",
			html.EscapeString(it.URL), html.EscapeString(it.DisplayTitle()))
		fmt.Fprintf(&b, "<a href=\"%s\">Comments on Hacker News</a><br>\n",
			html.EscapeString(it.DiscussionURL()))
		fmt.Fprintf(&b, "<span style=\"color:#828282\">Saved %s</span>\n",
			it.SavedTime().Format(savedDateLayout))
		b.WriteString("</p>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// serializeMarkdown renders one section per item: a heading, a bullet
// list, and a horizontal-rule separator.
func serializeMarkdown(items []item.Item) string {
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "## %s\n\n", it.DisplayTitle())
		fmt.Fprintf(&b, "- URL: %s\n", it.URL)
		fmt.Fprintf(&b, "- Comments: %s\n", it.DiscussionURL())
		fmt.Fprintf(&b, "- Saved: %s\n", it.SavedTime().Format(savedDateLayout))
		b.WriteString("\n---\n\n")
	}
	return b.String()
}

// jsonExport is the structured-data document shape.
type jsonExport struct {
	Exported string      `json:"exported"`
	Stories  []jsonStory `json:"stories"`
}

type jsonStory struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	HNURL   string `json:"hnUrl"`
	SavedAt string `json:"savedAt"`
}

// serializeJSON renders the structured-data document. Marshalling through
// encoding/json keeps the output syntactically valid for any story count.
func serializeJSON(items []item.Item, now time.Time) (string, error) {
	doc := jsonExport{
		Exported: now.Format(time.RFC3339),
		Stories:  make([]jsonStory, 0, len(items)),
	}
	for _, it := range items {
		doc.Stories = append(doc.Stories, jsonStory{
			ID:      it.ID,
			Title:   it.DisplayTitle(),
			URL:     it.URL,
			HNURL:   it.DiscussionURL(),
			SavedAt: it.SavedTime().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
