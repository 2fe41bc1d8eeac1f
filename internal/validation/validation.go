package validation

import (
	"errors"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrInvalidSlug is returned when a slug doesn't match the required format
	ErrInvalidSlug = errors.New("invalid slug format")

	// ErrSlugTooShort is returned when a slug is too short
	ErrSlugTooShort = errors.New("slug must be at least 3 characters")

	// ErrSlugTooLong is returned when a slug is too long
	ErrSlugTooLong = errors.New("slug must be at most 64 characters")

	// ErrInvalidEmail is returned for an address that cannot key a credential
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidWebhookURL is returned when a webhook URL is not an absolute https URL
	ErrInvalidWebhookURL = errors.New("webhook URL must be an absolute https URL")

	// Format: ^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$
	slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)
)

// ValidateSlug checks a slug used inside a document id:
// - 3-64 characters
// - lowercase alphanumeric at both ends
// - hyphens allowed in the middle
func ValidateSlug(slug string) error {
	if len(slug) < 3 {
		return ErrSlugTooShort
	}
	if len(slug) > 64 {
		return ErrSlugTooLong
	}
	if !slugRegex.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// ValidateEmail accepts a bare address. Slashes are rejected since the
// address becomes a document id.
func ValidateEmail(email string) error {
	if email == "" || strings.Contains(email, "/") {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateWebhookURL validates an outgoing webhook URL
func ValidateWebhookURL(raw string) error {
	if len(raw) > 500 {
		return errors.New("webhook URL must be at most 500 characters")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return ErrInvalidWebhookURL
	}
	return nil
}
