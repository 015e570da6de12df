package noop

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"parsemybill/internal/port"
)

type noopSender struct {
	frontendURL string
}

// NewNoopSender creates a no-op EmailSender that logs verification URLs to
// stdout. It is the default in development.
func NewNoopSender(frontendURL string) port.EmailSender {
	return &noopSender{frontendURL: frontendURL}
}

func (s *noopSender) SendVerificationEmail(_ context.Context, toEmail, toName, verificationToken string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, url.QueryEscape(verificationToken))
	log.Printf("[NOOP EMAIL] Verification email for %s (%s): %s", toName, toEmail, verifyURL)
	return nil
}
