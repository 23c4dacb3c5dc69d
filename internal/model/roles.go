package model

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCustomer = "customer"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleCustomer:
		return true
	}
	return false
}

// CanAccess decides role-based access: true iff the caller's role is in the
// allowed set. An empty set denies everyone.
func CanAccess(allowedRoles []string, callerRole string) bool {
	for _, role := range allowedRoles {
		if role == callerRole {
			return true
		}
	}
	return false
}
