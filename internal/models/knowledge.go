package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// KnowledgeDocument is an ingested chunk of the analyst knowledge base
// (regulatory notes, market history, uploaded reports). Immutable once
// created except for deletion.
type KnowledgeDocument struct {
	ID      string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Content string `gorm:"column:content;type:text" json:"content"`

	Source string         `gorm:"column:source;type:text" json:"source"`
	Topic  string         `gorm:"column:topic;type:text" json:"topic"`
	Tags   pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	// pgvector, text-embedding-3-small
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536)" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (KnowledgeDocument) TableName() string { return "knowledge_docs" }
