// Package notification defines the outbound notification surface consumed
// by the identity services. Dispatch is fire-and-forget: callers log
// failures and never roll back the operation that triggered the send.
package notification

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
)

// Credentials is the one-time payload of a welcome notification. Password is
// the only place the generated plaintext ever travels; it is never persisted.
type Credentials struct {
	Identifier string
	Email      string
	Password   string
}

// Sender delivers lifecycle notifications to a principal.
type Sender interface {
	SendRegistrationSuccess(ctx context.Context, email, firstName string) error
	SendWelcome(ctx context.Context, email, firstName string, creds Credentials) error
	SendBiometricConfirmation(ctx context.Context, email, firstName string) error
	SendPasswordChangeConfirmation(ctx context.Context, email, firstName string) error
}

// LogSender writes notifications to the structured log instead of a mail
// gateway. Default for development; production wires a real delivery
// implementation behind the same interface.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendRegistrationSuccess(ctx context.Context, email, firstName string) error {
	s.logger.InfoContext(ctx, "notification: registration success",
		"to", email,
		"greeting", GreetingName(firstName, email),
	)
	return nil
}

func (s *LogSender) SendWelcome(ctx context.Context, email, firstName string, creds Credentials) error {
	// The one-time password is deliberately not logged.
	s.logger.InfoContext(ctx, "notification: welcome with credentials",
		"to", email,
		"greeting", GreetingName(firstName, email),
		"identifier", creds.Identifier,
	)
	return nil
}

func (s *LogSender) SendBiometricConfirmation(ctx context.Context, email, firstName string) error {
	s.logger.InfoContext(ctx, "notification: biometric registration confirmed",
		"to", email,
		"greeting", GreetingName(firstName, email),
	)
	return nil
}

func (s *LogSender) SendPasswordChangeConfirmation(ctx context.Context, email, firstName string) error {
	s.logger.InfoContext(ctx, "notification: password change confirmed",
		"to", email,
		"greeting", GreetingName(firstName, email),
	)
	return nil
}

// GreetingName returns the name to address the principal by, falling back to
// a name derived from the email local part when the first name is blank.
func GreetingName(firstName, email string) string {
	if strings.TrimSpace(firstName) != "" {
		return strings.TrimSpace(firstName)
	}

	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}
	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "there"
	}
	return capitalize(parts[0])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
