package shared

// Role is the organisation-level role carried by an authenticated actor.
type Role string

const (
	RoleEmployee  Role = "EMPLOYEE"
	RoleManager   Role = "MANAGER"
	RoleHRManager Role = "HR_MANAGER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHRManager, RoleAdmin:
		return true
	}
	return false
}

// Elevated reports whether the role may act on records owned by others.
func (r Role) Elevated() bool {
	switch r {
	case RoleManager, RoleHRManager, RoleAdmin:
		return true
	}
	return false
}

// Actor is the already-authenticated identity performing an operation.
// The boundary layer resolves sessions into Actors; services never see
// tokens or cookies.
type Actor struct {
	EmployeeID int64
	Subject    string
	Name       string
	Role       Role
}

// Owns reports whether the actor is the owning employee of a record.
func (a Actor) Owns(employeeID int64) bool {
	return a.EmployeeID != 0 && a.EmployeeID == employeeID
}
