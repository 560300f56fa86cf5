package knowledge

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/matias-olea/inmobrain/internal/models"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
	"github.com/matias-olea/inmobrain/internal/utils"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSearchReturnsVectorMatches(t *testing.T) {
	repo := &mockKnowledgeRepo{
		VectorRows: []pgrepo.DocumentMatch{
			{KnowledgeDocument: models.KnowledgeDocument{Content: "ley de copropiedad", Topic: "normativa"}, Similarity: 0.91},
		},
	}
	svc := NewService(repo, &mockEmbedder{Vector: []float32{0.1, 0.2}}, quietLogger())

	out := svc.Search(context.Background(), "copropiedad", 3)

	assert.Len(t, out, 1)
	assert.Equal(t, "ley de copropiedad", out[0].Content)
	assert.Equal(t, 0.91, out[0].Similarity)
	assert.Equal(t, MinSimilarity, repo.MinSimSeen)
	assert.False(t, repo.KeywordCalled)
}

func TestSearchFallsBackToKeywordOnEmbedFailure(t *testing.T) {
	repo := &mockKnowledgeRepo{
		KeywordRows: []models.KnowledgeDocument{{Content: "permisos de edificación"}},
	}
	svc := NewService(repo, &mockEmbedder{Err: errors.New("quota")}, quietLogger())

	out := svc.Search(context.Background(), "permisos", 3)

	assert.True(t, repo.KeywordCalled)
	assert.Len(t, out, 1)
	assert.Equal(t, "permisos de edificación", out[0].Content)
	assert.Zero(t, out[0].Similarity)
}

func TestSearchFallsBackToKeywordOnVectorFailure(t *testing.T) {
	repo := &mockKnowledgeRepo{
		VectorErr:   errors.New("pgvector down"),
		KeywordRows: []models.KnowledgeDocument{{Content: "plan regulador"}},
	}
	svc := NewService(repo, &mockEmbedder{Vector: []float32{0.1}}, quietLogger())

	out := svc.Search(context.Background(), "plan regulador", 3)

	assert.True(t, repo.KeywordCalled)
	assert.Len(t, out, 1)
}

func TestSearchNeverFailsToCaller(t *testing.T) {
	repo := &mockKnowledgeRepo{
		VectorErr:  errors.New("db down"),
		KeywordErr: errors.New("db still down"),
	}
	svc := NewService(repo, &mockEmbedder{Vector: []float32{0.1}}, quietLogger())

	out := svc.Search(context.Background(), "anything", 3)

	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := NewService(&mockKnowledgeRepo{}, &mockEmbedder{}, quietLogger())
	assert.Empty(t, svc.Search(context.Background(), "", 3))
	assert.Empty(t, svc.Search(context.Background(), "algo", 0))
}

func TestIngestPersistsWithEmbedding(t *testing.T) {
	repo := &mockKnowledgeRepo{}
	svc := NewService(repo, &mockEmbedder{Vector: []float32{0.5, 0.6}}, quietLogger())

	id, err := svc.Ingest(context.Background(), "texto normativo", Metadata{
		Topic: "normativa",
		Tags:  []string{"ley"},
		Extra: map[string]any{"file_type": "text"},
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, id)
	if assert.Len(t, repo.Inserted, 1) {
		doc := repo.Inserted[0]
		assert.Equal(t, "texto normativo", doc.Content)
		assert.Equal(t, "normativa", doc.Topic)
		assert.NotEmpty(t, doc.Metadata)
	}
}

func TestIngestNeverStoresWithoutEmbedding(t *testing.T) {
	repo := &mockKnowledgeRepo{}
	svc := NewService(repo, &mockEmbedder{Err: errors.New("embedding down")}, quietLogger())

	_, err := svc.Ingest(context.Background(), "contenido", Metadata{})

	assert.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
	assert.Empty(t, repo.Inserted)
}

func TestIngestEmptyContent(t *testing.T) {
	svc := NewService(&mockKnowledgeRepo{}, &mockEmbedder{}, quietLogger())
	_, err := svc.Ingest(context.Background(), "", Metadata{})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestDeleteNotFound(t *testing.T) {
	repo := &mockKnowledgeRepo{DeleteErr: utils.ErrNotFound}
	svc := NewService(repo, &mockEmbedder{}, quietLogger())

	err := svc.Delete(context.Background(), "missing-id")

	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
