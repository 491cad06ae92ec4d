package domain

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           int64
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// IsAdmin reports whether the user may manage content of other users.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Subscription is an author followed by a user together with a preview of
// the author's recipes.
type Subscription struct {
	Author       User
	Recipes      []RecipeSummary
	RecipesCount int64
}
