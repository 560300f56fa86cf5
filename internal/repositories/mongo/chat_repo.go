package mongo

import (
	"context"
	"time"

	"github.com/matias-olea/inmobrain/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepository interface {
	Append(ctx context.Context, turn *models.ChatTurn) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error)
	LatestByUser(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error)
}

type chatRepo struct {
	col *mongo.Collection
}

func NewChatRepo(db *mongo.Database) ChatRepository {
	return &chatRepo{col: db.Collection("chat_turns")}
}

func (r *chatRepo) Append(ctx context.Context, turn *models.ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, turn)
	return err
}

func (r *chatRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.ChatTurn
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatRepo) LatestByUser(ctx context.Context, userID string, limit int) ([]models.ChatTurn, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.ChatTurn
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
