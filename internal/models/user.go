package models

import "time"

type UserRole string

const (
	UserRoleCustomer   UserRole = "Customer"
	UserRoleAdmin      UserRole = "Admin"
	UserRoleSuperadmin UserRole = "Superadmin"
)

// roleRank orders roles for minimum-role checks.
var roleRank = map[UserRole]int{
	UserRoleCustomer:   0,
	UserRoleAdmin:      1,
	UserRoleSuperadmin: 2,
}

func (r UserRole) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants at least the capability tier of required.
func (r UserRole) AtLeast(required UserRole) bool {
	return roleRank[r] >= roleRank[required]
}

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FullName     string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Customer is the storefront-facing profile linked 1:1 to a User.
// UserID is nil for orphan rows imported before the owner signed up.
type Customer struct {
	ID        string
	UserID    *string
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
