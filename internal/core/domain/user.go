package domain

import (
	"github.com/google/uuid"
)

// Role is a user's permission level.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// User is the minimal identity view the withdrawal core needs: ownership
// checks and notification addressing. Account management lives elsewhere.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}
