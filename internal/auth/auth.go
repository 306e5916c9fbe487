// Package auth turns caller credentials into proofs the game core accepts.
//
// A caller either signs as the record's authority directly, or presents a
// session token issued by that authority to a delegate signer.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/flappy-core/internal/games/flappy"
	"github.com/vovakirdan/flappy-core/internal/storage"
)

// Caller identifies who is issuing an operation.
type Caller struct {
	Signer string
	Token  string
}

// TokenStore is the persistence the authenticator needs.
type TokenStore interface {
	SaveToken(ctx context.Context, tok storage.Token) error
	LookupToken(ctx context.Context, token string) (storage.Token, error)
	DeleteToken(ctx context.Context, token string) error
}

// Authenticator verifies callers against stored session tokens.
type Authenticator struct {
	store TokenStore
	now   func() time.Time
}

// New creates an authenticator backed by store.
func New(store TokenStore) *Authenticator {
	return &Authenticator{store: store, now: time.Now}
}

// delegated authorizes the token's authority, and only while it is unexpired.
type delegated struct {
	authority string
}

func (d delegated) Authorizes(authority string) bool {
	return d.authority != "" && d.authority == authority
}

// denied authorizes nothing. Returned for unknown or expired tokens so the
// core guard reports the failure the usual way.
type denied struct{}

func (denied) Authorizes(string) bool { return false }

// Prove builds the proof for c. Only storage failures are returned as errors;
// bad credentials yield a proof that the core guard rejects.
func (a *Authenticator) Prove(ctx context.Context, c Caller) (flappy.Proof, error) {
	if c.Token == "" {
		return flappy.Signer(c.Signer), nil
	}

	tok, err := a.store.LookupToken(ctx, c.Token)
	if errors.Is(err, storage.ErrNotFound) {
		return denied{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	if tok.Signer != c.Signer || !a.now().Before(tok.ExpiresAt) {
		return denied{}, nil
	}
	return delegated{authority: tok.Authority}, nil
}

// Issue creates a token letting signer act for authority until ttl elapses.
// The issuer must already be verified as authority.
func (a *Authenticator) Issue(ctx context.Context, authority, signer string, ttl time.Duration) (storage.Token, error) {
	if authority == "" || signer == "" {
		return storage.Token{}, errors.New("auth: authority and signer are required")
	}
	if ttl <= 0 {
		return storage.Token{}, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}

	tok := storage.Token{
		Token:     uuid.NewString(),
		Authority: authority,
		Signer:    signer,
		ExpiresAt: a.now().Add(ttl).Truncate(time.Second),
	}
	if err := a.store.SaveToken(ctx, tok); err != nil {
		return storage.Token{}, fmt.Errorf("auth: %w", err)
	}
	return tok, nil
}

// Revoke deletes a token.
func (a *Authenticator) Revoke(ctx context.Context, token string) error {
	if err := a.store.DeleteToken(ctx, token); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}
