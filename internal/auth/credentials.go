package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/volunqueer/volunqueer/internal/docstore"
)

var (
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email address already registered")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Credential is stored at credentials/{email} and links a login to a profile.
type Credential struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Credentials reads and writes login documents.
type Credentials struct {
	store docstore.Store
}

func NewCredentials(store docstore.Store) *Credentials {
	return &Credentials{store: store}
}

// NormalizeEmail lowercases and trims email so it can serve as a document id.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Lookup returns the credential for email, or nil when none exists.
func (c *Credentials) Lookup(ctx context.Context, email string) (*Credential, error) {
	cred, err := docstore.FetchOneAs[Credential](ctx, c.store, docstore.Credentials, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credential: %w", err)
	}
	return cred, nil
}

// Create registers email for userID. Existing registrations are not overwritten.
func (c *Credentials) Create(ctx context.Context, email, userID, password string) (*Credential, error) {
	existing, err := c.Lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	return c.write(ctx, email, userID, password, time.Now().UTC())
}

// SetPassword replaces the hash for an existing login.
func (c *Credentials) SetPassword(ctx context.Context, email, password string) (*Credential, error) {
	existing, err := c.Lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrInvalidCredentials
	}

	cred, err := c.write(ctx, email, existing.UserID, password, existing.CreatedAt)
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Authenticate returns the user id for a matching email and password.
func (c *Credentials) Authenticate(ctx context.Context, email, password string) (string, error) {
	cred, err := c.Lookup(ctx, email)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrInvalidCredentials
	}
	if err := VerifyPassword(cred.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return cred.UserID, nil
}

func (c *Credentials) write(ctx context.Context, email, userID, password string, createdAt time.Time) (*Credential, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := Credential{
		ID:           NormalizeEmail(email),
		UserID:       userID,
		PasswordHash: hash,
		CreatedAt:    createdAt,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := docstore.SetAs(ctx, c.store, docstore.Credentials, cred.ID, cred); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}
	return &cred, nil
}
