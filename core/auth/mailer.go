package auth

import (
	"context"

	"securereport/core/utils"
)

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes the token to the service log instead of sending mail.
type LogMailer struct {
	Logger *utils.Logger
}

func (m LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.Logger.Printf("password reset requested for %s; token=%s", email, token)
	return nil
}
