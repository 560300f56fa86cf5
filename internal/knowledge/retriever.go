package knowledge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/matias-olea/inmobrain/internal/models"
	"github.com/matias-olea/inmobrain/internal/providers/llm"
	pgrepo "github.com/matias-olea/inmobrain/internal/repositories/postgres"
	"github.com/matias-olea/inmobrain/internal/utils"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// MinSimilarity is the cosine similarity floor below which a document is not
// considered relevant context.
const MinSimilarity = 0.7

// Match is one retrieved context fragment. Similarity is zero when the match
// came from the keyword fallback path.
type Match struct {
	Content    string  `json:"content"`
	Source     string  `json:"source,omitempty"`
	Topic      string  `json:"topic,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

type Metadata struct {
	Source string
	Topic  string
	Tags   []string
	Extra  map[string]any
}

// Searcher is the retrieval surface the orchestrator depends on.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) []Match
}

type Service interface {
	Searcher
	Ingest(ctx context.Context, content string, meta Metadata) (string, error)
	List(ctx context.Context, limit int) ([]models.KnowledgeDocument, error)
	Delete(ctx context.Context, id string) error
	Seed(ctx context.Context) error
}

type service struct {
	docs  pgrepo.KnowledgeRepo
	embed llm.Embedder
	log   *logrus.Logger
}

func NewService(docs pgrepo.KnowledgeRepo, embed llm.Embedder, log *logrus.Logger) Service {
	return &service{docs: docs, embed: embed, log: log}
}

// Search embeds the query and runs a cosine similarity search. Retrieval is
// best-effort: if the vector path fails it degrades to a keyword search, and
// if that fails too it returns an empty slice. It never aborts the caller.
func (s *service) Search(ctx context.Context, query string, limit int) []Match {
	if query == "" || limit <= 0 {
		return nil
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.log.WithError(err).Warn("knowledge: query embedding failed, falling back to keyword search")
		return s.keywordSearch(ctx, query, limit)
	}

	rows, err := s.docs.SearchByEmbedding(ctx, pgvector.NewVector(emb), limit, MinSimilarity)
	if err != nil {
		s.log.WithError(err).Warn("knowledge: vector search failed, falling back to keyword search")
		return s.keywordSearch(ctx, query, limit)
	}

	out := make([]Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, Match{
			Content:    row.Content,
			Source:     row.Source,
			Topic:      row.Topic,
			Similarity: row.Similarity,
		})
	}
	return out
}

func (s *service) keywordSearch(ctx context.Context, query string, limit int) []Match {
	rows, err := s.docs.SearchByKeyword(ctx, query, limit)
	if err != nil {
		s.log.WithError(err).Error("knowledge: keyword search failed")
		return []Match{}
	}

	out := make([]Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, Match{Content: row.Content, Source: row.Source, Topic: row.Topic})
	}
	return out
}

// Ingest embeds the text synchronously before persisting; a document is never
// stored without its embedding.
func (s *service) Ingest(ctx context.Context, content string, meta Metadata) (string, error) {
	const op = "KnowledgeService.Ingest"

	if content == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "content is required", nil)
	}

	emb, err := s.embed.Embed(ctx, content)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "embedding generation failed", err)
	}

	doc := &models.KnowledgeDocument{
		ID:        uuid.NewString(),
		Content:   content,
		Source:    meta.Source,
		Topic:     meta.Topic,
		Tags:      meta.Tags,
		Embedding: pgvector.NewVector(emb),
		CreatedAt: time.Now().UTC(),
	}
	if len(meta.Extra) > 0 {
		b, merr := json.Marshal(meta.Extra)
		if merr != nil {
			return "", utils.E(utils.CodeInvalidArgument, op, "invalid metadata", merr)
		}
		doc.Metadata = datatypes.JSON(b)
	}

	if err := s.docs.Insert(ctx, doc); err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to insert document", err)
	}
	return doc.ID, nil
}

func (s *service) List(ctx context.Context, limit int) ([]models.KnowledgeDocument, error) {
	const op = "KnowledgeService.List"

	rows, err := s.docs.List(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list documents", err)
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	const op = "KnowledgeService.Delete"

	if id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		if err == utils.ErrNotFound {
			return utils.E(utils.CodeNotFound, op, "document not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete document", err)
	}
	return nil
}
