package email

import (
	"context"
)

// Service dispatches transactional email
type Service interface {
	SendVerification(ctx context.Context, to string, token string) error
	SendPasswordReset(ctx context.Context, to string, token string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}
