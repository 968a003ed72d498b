package retrieval

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoskr/issueqa-backend/internal/entity"
)

func result(issueNumber, text, url string) entity.RetrievalResult {
	return entity.RetrievalResult{
		Document: entity.Document{
			Text: text,
			Metadata: entity.DocumentMetadata{
				IssueNumber: issueNumber,
				URL:         url,
				Title:       "title",
			},
		},
	}
}

func TestBuildContext(t *testing.T) {
	t.Run("renders issue number, text and url per entry", func(t *testing.T) {
		got := BuildContext([]entity.RetrievalResult{
			result("42", "scheduler crashes", "https://example.com/42"),
		}, 200, 2000)

		assert.Equal(t, "Issue #42: scheduler crashes\nURL: https://example.com/42\n---\n", got)
	})

	t.Run("truncates long documents with an ellipsis", func(t *testing.T) {
		long := strings.Repeat("a", 300)
		got := BuildContext([]entity.RetrievalResult{
			result("1", long, "u"),
		}, 200, 2000)

		assert.Contains(t, got, strings.Repeat("a", 200)+"...")
		assert.NotContains(t, got, strings.Repeat("a", 201))
	})

	t.Run("never exceeds the total budget", func(t *testing.T) {
		var results []entity.RetrievalResult
		for i := 0; i < 20; i++ {
			results = append(results, result(fmt.Sprintf("%d", i), strings.Repeat("x", 250), "https://example.com"))
		}

		const totalChars = 500
		got := BuildContext(results, 200, totalChars)

		assert.LessOrEqual(t, len(got), totalChars)
		assert.NotEmpty(t, got)
	})

	t.Run("stops at the first entry that does not fit", func(t *testing.T) {
		results := []entity.RetrievalResult{
			result("1", "short", "u1"),
			result("2", strings.Repeat("y", 190), "u2"),
			result("3", "also short", "u3"),
		}

		first := formatEntry(results[0].Document, 200)
		got := BuildContext(results, 200, len(first)+10)

		assert.Equal(t, first, got)
		assert.NotContains(t, got, "Issue #2")
		assert.NotContains(t, got, "Issue #3")
	})

	t.Run("no results yields an empty context", func(t *testing.T) {
		assert.Empty(t, BuildContext(nil, 200, 2000))
	})

	t.Run("short documents are kept verbatim", func(t *testing.T) {
		got := BuildContext([]entity.RetrievalResult{
			result("7", "fits entirely", "u"),
		}, 200, 2000)

		require.Contains(t, got, "fits entirely")
		assert.NotContains(t, got, "fits entirely...")
	})
}
