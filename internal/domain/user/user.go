package user

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Branch       string    `json:"branch"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary is the public shape returned to callers on login.
type Summary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Branch string `json:"branch"`
	Role   string `json:"role"`
}

func (u User) Summary() Summary {
	return Summary{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Branch: u.Branch,
		Role:   u.Role,
	}
}
