package rbac

// Role names. Keep these stable; they are part of the token contract.
const (
	RoleOperator = "operator"
	RoleViewer   = "viewer"
	RoleAdmin    = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }
