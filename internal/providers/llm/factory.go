package llm

import (
	"context"
	"errors"
	"os"
)

// NewProviderFromEnv selects the chat provider: OpenAI by default, Vertex
// Gemini when LLM_PROVIDER=vertex.
func NewProviderFromEnv(ctx context.Context) (Provider, error) {
	switch os.Getenv("LLM_PROVIDER") {
	case "", "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, errors.New("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIClient(key, os.Getenv("OPENAI_MODEL"), os.Getenv("OPENAI_BASE_URL")), nil
	case "vertex":
		projectID := os.Getenv("VERTEX_PROJECT_ID")
		if projectID == "" {
			return nil, errors.New("VERTEX_PROJECT_ID environment variable is not set")
		}
		location := os.Getenv("VERTEX_LOCATION")
		if location == "" {
			location = "us-central1"
		}
		return NewVertexGemini(ctx, projectID, location, os.Getenv("VERTEX_MODEL"))
	default:
		return nil, errors.New("unknown LLM_PROVIDER: " + os.Getenv("LLM_PROVIDER"))
	}
}

// NewEmbedderFromEnv returns the embedding client. Embeddings always go
// through OpenAI text-embedding-3-small so stored vectors stay comparable
// regardless of the chat provider.
func NewEmbedderFromEnv() (Embedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}
	return NewOpenAIClient(key, "", os.Getenv("OPENAI_BASE_URL")), nil
}
