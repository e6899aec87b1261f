package session

import (
	"context"

	"feedengage/pkg/models"
)

// Driver is the part of the automation driver the guard needs
type Driver interface {
	// ProbeLiveness is a cheap check that the authenticated surface is readable
	ProbeLiveness(ctx context.Context) bool
	// Login navigates to the login page, submits credentials and inspects
	// the result for rate-limit or error banners
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
}
