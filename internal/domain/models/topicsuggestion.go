// internal/domain/models/topicsuggestion.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TopicSuggestion is a topic proposed to a group's leader.
type TopicSuggestion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   primitive.ObjectID `bson:"group_id" json:"group_id"` // leader _id
	CreatedBy Identity           `bson:"created_by" json:"created_by"`
	Topic     string             `bson:"topic" json:"topic"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
