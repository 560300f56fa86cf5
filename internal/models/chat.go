package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatTurn is one question/answer exchange of the analyst chat, stored in
// Mongo. Tool call traces are kept alongside the answer for auditing.
type ChatTurn struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`

	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`

	Sources   []ChatSource    `bson:"sources,omitempty" json:"sources,omitempty"`
	ToolCalls []ChatToolTrace `bson:"tool_calls,omitempty" json:"tool_calls,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type ChatSource struct {
	Content string `bson:"content" json:"content"`
	Source  string `bson:"source,omitempty" json:"source,omitempty"`
	Topic   string `bson:"topic,omitempty" json:"topic,omitempty"`
}

type ChatToolTrace struct {
	Name      string `bson:"name" json:"name"`
	Arguments string `bson:"arguments" json:"arguments"`
	Result    string `bson:"result" json:"result"`
}
