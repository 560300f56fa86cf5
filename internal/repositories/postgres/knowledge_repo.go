package postgres

import (
	"context"

	"github.com/matias-olea/inmobrain/internal/models"
	"github.com/matias-olea/inmobrain/internal/utils"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// DocumentMatch is a knowledge document with its cosine similarity to the
// query embedding.
type DocumentMatch struct {
	models.KnowledgeDocument
	Similarity float64 `gorm:"column:similarity"`
}

type KnowledgeRepo interface {
	Insert(ctx context.Context, doc *models.KnowledgeDocument) error
	SearchByEmbedding(ctx context.Context, embedding pgvector.Vector, limit int, minSimilarity float64) ([]DocumentMatch, error)
	SearchByKeyword(ctx context.Context, query string, limit int) ([]models.KnowledgeDocument, error)
	List(ctx context.Context, limit int) ([]models.KnowledgeDocument, error)
	Delete(ctx context.Context, id string) error
}

type knowledgeRepo struct {
	db *gorm.DB
}

func NewKnowledgeRepo(db *gorm.DB) KnowledgeRepo {
	return &knowledgeRepo{db: db}
}

func (r *knowledgeRepo) Insert(ctx context.Context, doc *models.KnowledgeDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *knowledgeRepo) SearchByEmbedding(ctx context.Context, embedding pgvector.Vector, limit int, minSimilarity float64) ([]DocumentMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	// <=> is pgvector cosine distance; similarity = 1 - distance
	var rows []DocumentMatch
	err := r.db.WithContext(ctx).Raw(`
		SELECT *, 1 - (embedding <=> ?) AS similarity
		FROM knowledge_docs
		WHERE 1 - (embedding <=> ?) >= ?
		ORDER BY embedding <=> ?
		LIMIT ?`,
		embedding, embedding, minSimilarity, embedding, limit,
	).Scan(&rows).Error
	return rows, err
}

func (r *knowledgeRepo) SearchByKeyword(ctx context.Context, query string, limit int) ([]models.KnowledgeDocument, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []models.KnowledgeDocument
	err := r.db.WithContext(ctx).
		Where("content ILIKE ?", "%"+query+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *knowledgeRepo) List(ctx context.Context, limit int) ([]models.KnowledgeDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.KnowledgeDocument
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *knowledgeRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.KnowledgeDocument{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
