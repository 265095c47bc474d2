package domain

import (
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlockKind determines which content fields of a Block are populated.
// It is immutable once the block is created.
type BlockKind string

const (
	BlockKindText      BlockKind = "texto"
	BlockKindExercises BlockKind = "ejercicios"
)

// IsValidBlockKind reports whether k is a known block kind.
func IsValidBlockKind(k BlockKind) bool {
	return k == BlockKindText || k == BlockKindExercises
}

// EffortScale is the scale used for an exercise's perceived effort.
type EffortScale string

const (
	ScaleRPE EffortScale = "RPE" // rate of perceived exertion, 1-10
	ScaleRIR EffortScale = "RIR" // reps in reserve, 0-5
)

// EffortInRange reports whether value is valid for the given scale.
func EffortInRange(scale EffortScale, value float64) bool {
	switch scale {
	case ScaleRIR:
		return value >= 0 && value <= 5
	case ScaleRPE:
		return value >= 1 && value <= 10
	default:
		return false
	}
}

// RoundEffort snaps an effort value to the nearest half point.
func RoundEffort(v float64) float64 {
	if v >= 0 {
		return float64(int(v*2+0.5)) / 2
	}
	return float64(int(v*2-0.5)) / 2
}

// Exercise is a value entry inside an exercise-list block. It has no
// identity of its own; it lives and dies with its block.
type Exercise struct {
	Name     string      `bson:"name" json:"name"`
	Sets     int         `bson:"sets" json:"sets"`
	Reps     string      `bson:"reps" json:"reps"` // free-form: "8-10", "AMRAP", etc.
	Scale    EffortScale `bson:"scale,omitempty" json:"scale,omitempty"`
	Effort   *float64    `bson:"effort,omitempty" json:"effort,omitempty"`
	VideoURL string      `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
}

// Block is a reusable unit of workout content referenced by id from plan
// days. Kind determines whether TextContent or Exercises carries the content.
type Block struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Kind        BlockKind          `bson:"kind" json:"kind"`
	TextContent string             `bson:"textContent,omitempty" json:"textContent,omitempty"`
	Exercises   []Exercise         `bson:"exercises,omitempty" json:"exercises,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const maxTagLength = 30

// NormalizeTags lowercases and trims tags, drops empty or overlong ones and
// removes duplicates while preserving first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) > maxTagLength || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// IsAllowedVideoURL reports whether raw points at a known video-hosting
// domain. Accepts youtube.com (any subdomain) and youtu.be short links.
func IsAllowedVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "youtube.com" ||
		strings.HasSuffix(host, ".youtube.com") ||
		host == "youtu.be" ||
		strings.HasSuffix(host, ".youtu.be")
}
