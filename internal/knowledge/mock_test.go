package knowledge

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/matias-olea/inmobrain/internal/models"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
)

type mockEmbedder struct {
	Vector []float32
	Err    error
	Calls  int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

type mockKnowledgeRepo struct {
	VectorRows    []pgrepo.DocumentMatch
	VectorErr     error
	KeywordRows   []models.KnowledgeDocument
	KeywordErr    error
	Inserted      []*models.KnowledgeDocument
	InsertErr     error
	ListRows      []models.KnowledgeDocument
	ListErr       error
	DeleteErr     error
	MinSimSeen    float64
	KeywordCalled bool
}

func (m *mockKnowledgeRepo) Insert(ctx context.Context, doc *models.KnowledgeDocument) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.Inserted = append(m.Inserted, doc)
	return nil
}

func (m *mockKnowledgeRepo) SearchByEmbedding(ctx context.Context, embedding pgvector.Vector, limit int, minSimilarity float64) ([]pgrepo.DocumentMatch, error) {
	m.MinSimSeen = minSimilarity
	if m.VectorErr != nil {
		return nil, m.VectorErr
	}
	return m.VectorRows, nil
}

func (m *mockKnowledgeRepo) SearchByKeyword(ctx context.Context, query string, limit int) ([]models.KnowledgeDocument, error) {
	m.KeywordCalled = true
	if m.KeywordErr != nil {
		return nil, m.KeywordErr
	}
	return m.KeywordRows, nil
}

func (m *mockKnowledgeRepo) List(ctx context.Context, limit int) ([]models.KnowledgeDocument, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListRows, nil
}

func (m *mockKnowledgeRepo) Delete(ctx context.Context, id string) error {
	return m.DeleteErr
}
