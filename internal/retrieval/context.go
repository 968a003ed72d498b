package retrieval

import (
	"fmt"
	"strings"

	"github.com/avoskr/issueqa-backend/internal/entity"
)

const contextEllipsis = "..."

// BuildContext formats retrieved documents into the textual context block
// fed to the generator. Each document's text is truncated to perDocChars
// (with an ellipsis marker) and rendered with its issue number and URL.
// Assembly stops, without error, as soon as adding the next entry would
// exceed totalChars; callers display sources from the full result list, not
// from what fit in context.
func BuildContext(results []entity.RetrievalResult, perDocChars, totalChars int) string {
	var b strings.Builder
	for _, res := range results {
		entry := formatEntry(res.Document, perDocChars)
		if b.Len()+len(entry) > totalChars {
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}

func formatEntry(doc entity.Document, perDocChars int) string {
	return fmt.Sprintf("Issue #%s: %s\nURL: %s\n---\n",
		doc.Metadata.IssueNumber,
		truncate(doc.Text, perDocChars),
		doc.Metadata.URL,
	)
}

func truncate(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	return string(r[:limit]) + contextEllipsis
}
