package domain

import (
	"context"
	"time"
)

// Mailer delivers one message to one recipient (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders the HTML and text bodies of a named template.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (htmlBody, textBody string, err error)
}

// CampaignEmailData is the per-recipient data of a bulk email.
type CampaignEmailData struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// LinkClaims are the redeemed contents of a link token.
type LinkClaims struct {
	Email     string
	UserID    string
	ExpiresAt time.Time
}

// LinkTokenCodec issues and redeems the self-service link tokens carried in event emails.
type LinkTokenCodec interface {
	Issue(email, userID string, expiresAt time.Time) (string, error)
	// Redeem returns ErrInvalidToken for any malformed, tampered or expired token.
	Redeem(token string) (*LinkClaims, error)
}
