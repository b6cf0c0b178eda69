package users

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSales    Role = "sales"
	RoleApprover Role = "approver"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSales || r == RoleApprover
}

// CanApprove reports whether the role may be listed as a quote approver.
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleApprover
}

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Company      string `json:"company"`
	Team         string `json:"team"`
	Role         Role   `json:"role"`
	// Approved is set by an admin; unapproved users cannot sign in.
	Approved   bool      `json:"approved"`
	TelegramID int64     `json:"telegram_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
