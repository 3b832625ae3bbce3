package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempus-hr/tempus/internal/shared"
)

func TestDefaultPolicyOwnership(t *testing.T) {
	employee := shared.Actor{EmployeeID: 7, Subject: "emp-7", Role: shared.RoleEmployee}

	require.True(t, DefaultPolicy(employee, PermTimeEntriesEdit, 7), "owner edits own record")
	require.False(t, DefaultPolicy(employee, PermTimeEntriesEdit, 8), "plain employee cannot edit others")

	manager := shared.Actor{EmployeeID: 2, Subject: "mgr-2", Role: shared.RoleManager}
	require.True(t, DefaultPolicy(manager, PermTimeEntriesEdit, 8), "elevated role acts on others")
}

func TestDefaultPolicyApprovalPermissions(t *testing.T) {
	employee := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}
	hr := shared.Actor{EmployeeID: 3, Role: shared.RoleHRManager}
	admin := shared.Actor{EmployeeID: 4, Role: shared.RoleAdmin}

	require.False(t, DefaultPolicy(employee, PermVacationsApprove, 7))
	require.True(t, DefaultPolicy(manager, PermVacationsApprove, 7))

	require.False(t, DefaultPolicy(manager, PermVacationsSkip, 7), "managers may not bypass approval")
	require.True(t, DefaultPolicy(hr, PermVacationsSkip, 7))
	require.True(t, DefaultPolicy(admin, PermVacationsSkip, 7))
}

func TestPermissionsForUnknownRole(t *testing.T) {
	require.Nil(t, PermissionsFor(shared.Role("CONTRACTOR")))
}
