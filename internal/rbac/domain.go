// Package rbac resolves what an actor's role allows. The role table lives
// here as configuration; services only ever ask the Policy for a decision.
package rbac

import "github.com/tempus-hr/tempus/internal/shared"

// Atomic capabilities gated by role.
const (
	PermEmployeesView = "employees.view"
	PermEmployeesEdit = "employees.edit"

	PermProjectsView = "projects.view"
	PermProjectsEdit = "projects.edit"

	PermTasksView = "tasks.view"
	PermTasksEdit = "tasks.edit"

	PermTimeEntriesView    = "timeentries.view"
	PermTimeEntriesEdit    = "timeentries.edit"
	PermTimeEntriesApprove = "timeentries.approve"

	PermVacationsView    = "vacations.view"
	PermVacationsEdit    = "vacations.edit"
	PermVacationsApprove = "vacations.approve"
	PermVacationsSkip    = "vacations.skip_approval"

	PermReportsView = "reports.view"
)

var employeePerms = []string{
	PermTimeEntriesView,
	PermTimeEntriesEdit,
	PermVacationsView,
	PermVacationsEdit,
	PermProjectsView,
	PermTasksView,
}

var managerPerms = append([]string{
	PermTimeEntriesApprove,
	PermVacationsApprove,
	PermReportsView,
	PermEmployeesView,
	PermProjectsEdit,
	PermTasksEdit,
}, employeePerms...)

var hrPerms = append([]string{
	PermVacationsSkip,
	PermEmployeesEdit,
}, managerPerms...)

var rolePermissions = map[shared.Role][]string{
	shared.RoleEmployee:  employeePerms,
	shared.RoleManager:   managerPerms,
	shared.RoleHRManager: hrPerms,
	shared.RoleAdmin:     hrPerms,
}

// PermissionsFor returns the permissions granted to a role.
func PermissionsFor(role shared.Role) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
