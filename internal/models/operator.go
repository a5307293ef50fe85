package models

// Operator roles as issued by the backend.
const (
	RoleAdmin  = "admin"
	RoleRunner = "runner"
)

// Operator is the logged-in user as returned by the backend login endpoint
// and cached in the session store. The ID is an opaque backend identifier.
type Operator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the operator holds the admin role. Role
// predicates are always derived from the role field, never stored.
func (o *Operator) IsAdmin() bool {
	return o != nil && o.Role == RoleAdmin
}

// IsRunner reports whether the operator holds the runner role.
func (o *Operator) IsRunner() bool {
	return o != nil && o.Role == RoleRunner
}
