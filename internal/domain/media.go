package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaUpload stores metadata about a demo video a coach uploaded for a
// block. The actual file resides in S3; only the key is stored here.
type MediaUpload struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID  `bson:"ownerId" json:"ownerId"`
	BlockID     *primitive.ObjectID `bson:"blockId,omitempty" json:"blockId,omitempty"`
	S3ObjectKey string              `bson:"s3ObjectKey" json:"-"` // internal use only
	FileName    string              `bson:"fileName" json:"fileName"`
	ContentType string              `bson:"contentType" json:"contentType"`
	Size        int64               `bson:"size" json:"size"`
	UploadedAt  time.Time           `bson:"uploadedAt" json:"uploadedAt"`
}
