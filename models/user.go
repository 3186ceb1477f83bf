package models

// UserRole - роль из JWT claims. Аутентификация выполняется внешним провайдером,
// сервису нужна только роль.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
	RoleViewer    UserRole = "viewer"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleViewer:
		return true
	}
	return false
}

// CanOfficiate reports whether the role may submit scoring commands and approvals.
func (r UserRole) CanOfficiate() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Caller is the identity the auth oracle hands to the service layer.
type Caller struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}
