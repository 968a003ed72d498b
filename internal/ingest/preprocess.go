package ingest

import (
	"strconv"
	"strings"

	"github.com/avoskr/issueqa-backend/internal/entity"
	"github.com/avoskr/issueqa-backend/internal/store"
)

// Preprocess turns raw issues into documents: title, body and comment
// bodies joined by blank lines, keyed by issue number. Empty parts are
// dropped so degenerate issues do not produce runs of separators.
func Preprocess(raw []RawIssue) []entity.Document {
	docs := make([]entity.Document, 0, len(raw))
	for _, issue := range raw {
		parts := make([]string, 0, 2+len(issue.Comments))
		if t := strings.TrimSpace(issue.Title); t != "" {
			parts = append(parts, t)
		}
		if b := strings.TrimSpace(issue.Body); b != "" {
			parts = append(parts, b)
		}
		for _, c := range issue.Comments {
			if c = strings.TrimSpace(c); c != "" {
				parts = append(parts, c)
			}
		}

		text := strings.Join(parts, "\n\n")
		docs = append(docs, entity.Document{
			ID:   int64(issue.Number),
			Text: text,
			Metadata: entity.DocumentMetadata{
				IssueNumber: strconv.Itoa(issue.Number),
				URL:         issue.URL,
				Title:       issue.Title,
			},
			Preview: store.Preview(text),
		})
	}
	return docs
}
