package model

import "time"

// Role names stored in users.role and carried in the JWT role claim.
const (
	RoleCustomer = "CUSTOMER"
	RoleHost     = "HOST"
	RoleManager  = "MANAGER"
)

// StaffRoles are the roles allowed to operate the floor (seat, check out,
// bill and act on behalf of customers).
var StaffRoles = []string{RoleHost, RoleManager}

// IsStaffRole reports whether role belongs to a staff member.
func IsStaffRole(role string) bool {
	return role == RoleHost || role == RoleManager
}

// User represents an account as stored in the `users` table. Customers
// and staff share the table and are told apart by Role.
//
// Fields:
//
//	ID           – primary key identifier; a customer's id is its customer id.
//	Email        – unique email address.
//	Name         – display name.
//	Phone        – contact phone (optional).
//	PasswordHash – bcrypt hashed password.
//	Role         – CUSTOMER, HOST or MANAGER.
//	Subscriber   – customer holds a subscription and receives the bill discount.
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Name         string    // users.name
	Phone        string    // users.phone
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Subscriber   bool      // users.is_subscriber
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
}
