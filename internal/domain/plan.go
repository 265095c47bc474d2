package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingType classifies a plan by its training style.
type TrainingType string

const (
	TypeFuerza      TrainingType = "fuerza"
	TypeHipertrofia TrainingType = "hipertrofia"
	TypeCrossfit    TrainingType = "crossfit"
	TypeRunning     TrainingType = "running"
	TypeHibrido     TrainingType = "hibrido"
	TypeGap         TrainingType = "gap"
)

// IsValidTrainingType reports whether t is one of the six known types.
func IsValidTrainingType(t TrainingType) bool {
	switch t {
	case TypeFuerza, TypeHipertrofia, TypeCrossfit, TypeRunning, TypeHibrido, TypeGap:
		return true
	}
	return false
}

// PlanCategory distinguishes shared catalog plans from plans built for a
// single client.
type PlanCategory string

const (
	CategoryBasic        PlanCategory = "basica"
	CategoryPersonalized PlanCategory = "personalizada"
)

// IsValidPlanCategory reports whether c is a known category.
func IsValidPlanCategory(c PlanCategory) bool {
	return c == CategoryBasic || c == CategoryPersonalized
}

// CreatorSnapshot captures the creator's identity at plan creation time,
// decoupled from the live user record.
type CreatorSnapshot struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Role  Role   `bson:"role" json:"role"`
}

// Day is one weekday entry inside a week. Name is always one of the
// canonical weekday names and unique within its week. Rest is derived:
// true exactly when Blocks is empty.
type Day struct {
	Name   string               `bson:"name" json:"name"`
	Blocks []primitive.ObjectID `bson:"blocks" json:"blocks"`
	Rest   bool                 `bson:"rest" json:"rest"`
}

// Week groups seven days under a number unique within the plan.
type Week struct {
	Number int   `bson:"number" json:"number"`
	Days   []Day `bson:"days" json:"days"`
}

// Plan is a coaching program: an ordered set of weeks of workout days,
// each day referencing reusable blocks by id.
type Plan struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title          string              `bson:"title" json:"title"`
	Description    string              `bson:"description,omitempty" json:"description,omitempty"`
	Type           TrainingType        `bson:"type" json:"type"`
	Category       PlanCategory        `bson:"category" json:"category"`
	AssignedUserID *primitive.ObjectID `bson:"assignedUserId,omitempty" json:"assignedUserId,omitempty"`
	Weeks          []Week              `bson:"weeks" json:"weeks"`
	CreatedBy      primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	Creator        CreatorSnapshot     `bson:"creator" json:"creator"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}
