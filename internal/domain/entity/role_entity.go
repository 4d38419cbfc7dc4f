package entity

// Role is the authorization role carried by an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)
