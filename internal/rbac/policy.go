package rbac

import (
	"strings"

	"github.com/tempus-hr/tempus/internal/shared"
)

// Policy decides whether an actor may perform a permission-gated action on
// a resource owned by ownerID. ownerID of zero means the action is not
// ownership-scoped (listings, reports).
type Policy func(actor shared.Actor, permission string, ownerID int64) bool

// DefaultPolicy grants the permission when the actor's role carries it and,
// for ownership-scoped actions, when the actor owns the record or holds an
// elevated role.
func DefaultPolicy(actor shared.Actor, permission string, ownerID int64) bool {
	if !hasPermission(PermissionsFor(actor.Role), permission) {
		return false
	}
	if ownerID == 0 {
		return true
	}
	return actor.Owns(ownerID) || actor.Role.Elevated()
}

func hasPermission(granted []string, required string) bool {
	required = strings.TrimSpace(strings.ToLower(required))
	if required == "" {
		return false
	}
	for _, p := range granted {
		if strings.ToLower(p) == required {
			return true
		}
	}
	return false
}
