package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentReply is the single threaded reply a comment may carry.
type CommentReply struct {
	AuthorID  primitive.ObjectID `bson:"authorId" json:"authorId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Comment is attached to a plan, optionally pinned to a week and a block.
type Comment struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PlanID     primitive.ObjectID  `bson:"planId" json:"planId"`
	AuthorID   primitive.ObjectID  `bson:"authorId" json:"authorId"`
	Text       string              `bson:"text" json:"text"`
	WeekNumber *int                `bson:"weekNumber,omitempty" json:"weekNumber,omitempty"`
	BlockID    *primitive.ObjectID `bson:"blockId,omitempty" json:"blockId,omitempty"`
	Reply      *CommentReply       `bson:"reply,omitempty" json:"reply,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}
