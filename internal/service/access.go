package service

import (
	"github.com/nahuelmieres/rf-online-backend/internal/domain"
)

// Operation names a capability a caller may or may not have. Handlers gate
// every mutating route through AccessPolicy.Authorize with one of these.
type Operation string

const (
	OpCreateBlock Operation = "block:create"
	OpViewBlock   Operation = "block:view"
	OpListBlocks  Operation = "block:list"
	OpDeleteBlock Operation = "block:delete"

	OpCreatePlan   Operation = "plan:create"
	OpViewPlan     Operation = "plan:view"
	OpListPlans    Operation = "plan:list"
	OpEditPlan     Operation = "plan:edit"
	OpDeletePlan   Operation = "plan:delete"
	OpAssignBlock  Operation = "plan:assign-block"
	OpRemoveBlock  Operation = "plan:remove-block"
	OpAssignToUser Operation = "plan:assign-to-user"

	OpListUsers Operation = "user:list"

	OpCreateComment Operation = "comment:create"
	OpReplyComment  Operation = "comment:reply"
	OpDeleteComment Operation = "comment:delete"

	OpCreateReservation Operation = "reservation:create"
	OpCancelReservation Operation = "reservation:cancel"

	OpUploadMedia Operation = "media:upload"
	OpDeleteMedia Operation = "media:delete"
)

// AccessPolicy is a static role-capability table. Unknown operations and
// unknown roles are denied.
type AccessPolicy struct {
	allowed map[Operation][]domain.Role
}

// NewAccessPolicy builds the default capability table: coaches and admins
// author content, any authenticated user reads and books, only admins
// delete plans.
func NewAccessPolicy() *AccessPolicy {
	everyone := []domain.Role{domain.RoleAdmin, domain.RoleCoach, domain.RoleClient}
	staff := []domain.Role{domain.RoleAdmin, domain.RoleCoach}
	adminOnly := []domain.Role{domain.RoleAdmin}

	return &AccessPolicy{
		allowed: map[Operation][]domain.Role{
			OpCreateBlock: staff,
			OpViewBlock:   everyone,
			OpListBlocks:  everyone,
			OpDeleteBlock: staff,

			OpCreatePlan:   staff,
			OpViewPlan:     everyone,
			OpListPlans:    everyone,
			OpEditPlan:     staff,
			OpDeletePlan:   adminOnly,
			OpAssignBlock:  staff,
			OpRemoveBlock:  staff,
			OpAssignToUser: staff,

			OpListUsers: staff,

			OpCreateComment: everyone,
			OpReplyComment:  staff,
			OpDeleteComment: everyone, // ownership checked by the comment service

			OpCreateReservation: everyone,
			OpCancelReservation: everyone,

			OpUploadMedia: staff,
			OpDeleteMedia: staff,
		},
	}
}

// Authorize reports whether a caller with the given role may perform op.
// Fails closed: unknown role or operation means no.
func (p *AccessPolicy) Authorize(role domain.Role, op Operation) bool {
	if !domain.IsValidRole(role) {
		return false
	}
	roles, ok := p.allowed[op]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
