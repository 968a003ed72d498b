package entity

import "time"

// DocumentMetadata describes the GitHub issue a document was built from.
// Fields missing in the persisted store are backfilled with "Unknown" at
// load time, so consumers never see empty values.
type DocumentMetadata struct {
	IssueNumber string `json:"issue_number"`
	URL         string `json:"url"`
	Title       string `json:"title"`
}

// Document is a single preprocessed issue owned by the document store.
// Documents are immutable after the index is built; the vector index holds
// only document IDs, never text.
type Document struct {
	ID       int64
	Text     string
	Metadata DocumentMetadata

	// Preview is a bounded prefix of Text with an ellipsis marker when
	// truncated. Computed once at store load time, never per query.
	Preview string
}

// RetrievalResult pairs a resolved document with its raw L2 distance to the
// query vector. Lower distance means more similar. Distances are not
// normalized to [0,1]; any percentage-style display belongs to the
// presentation layer.
type RetrievalResult struct {
	Document Document
	Distance float64
}

// Source is the caller-facing view of one retrieved document.
type Source struct {
	IssueNumber string `json:"issue_number"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`

	// SimilarityScore is the raw L2 distance, kept under the historical
	// field name. It is a distance, not a probability.
	SimilarityScore float64 `json:"similarity_score"`
}

// QueryMetrics carries per-query aggregates.
type QueryMetrics struct {
	NumSources         int     `json:"num_sources"`
	AvgSimilarityScore float64 `json:"avg_similarity_score"`
}

// QueryRequest is the inbound payload of POST /query.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the structured result of a single query. The query path
// always returns a well-formed response; per-query failures set Error and
// an apologetic Answer instead of propagating.
type QueryResponse struct {
	ID             string       `json:"id"`
	Answer         string       `json:"answer"`
	Sources        []Source     `json:"sources"`
	ProcessingTime float64      `json:"processing_time"`
	Timestamp      time.Time    `json:"timestamp"`
	Metrics        QueryMetrics `json:"metrics"`
	Error          string       `json:"error,omitempty"`
}
