package entity

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleStaff    UserRole = "staff"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	Base
	Name     string   `db:"name"`
	Email    string   `db:"email"`
	Role     UserRole `db:"role"`
	IsActive bool     `db:"is_active"`
}
