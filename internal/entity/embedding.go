package entity

// Wire types for the OpenAI-compatible embeddings endpoint.

type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type EmbeddingResponse struct {
	Model string          `json:"model"`
	Data  []EmbeddingData `json:"data"`
}
