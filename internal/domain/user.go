package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin  Role = "admin"
	RoleCoach  Role = "coach"
	RoleClient Role = "cliente"
)

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleCoach || r == RoleClient
}

// User represents a user in the system (admin, coach or client).
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash  string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role          Role               `bson:"role" json:"role"`
	AcceptedTerms bool               `bson:"acceptedTerms" json:"acceptedTerms"`
	PaymentActive bool               `bson:"paymentActive" json:"paymentActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Set when a personalized plan has been assigned to this client.
	PersonalPlanID *primitive.ObjectID `bson:"personalPlanId,omitempty" json:"personalPlanId,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}
