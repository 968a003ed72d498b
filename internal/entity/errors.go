package entity

import "fmt"

// LoadError reports a missing or malformed persisted artifact (vector index
// or document store). It is raised at startup only and is fatal: the process
// must not serve queries after a LoadError.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConfigError reports an invalid startup configuration, such as an embedding
// dimension that does not match the loaded index or missing external-service
// credentials. Fatal, detected eagerly before the first query.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

// RetrievalError reports a per-query retrieval failure: the embedding call
// failed, or every candidate returned by the index failed to resolve in the
// document store (index/store desynchronization). Aborts that query only.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError reports a per-query language-model failure (timeout,
// quota, malformed response). Aborts that query only.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
