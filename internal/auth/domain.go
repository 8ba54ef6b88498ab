// Package auth handles portal login against the user table.
package auth

import "time"

// User represents a portal user account. Codes follow the ERP user code
// convention rather than numeric IDs.
type User struct {
	Code         string
	FullName     string
	Email        string
	PasswordHash string
	Department   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
