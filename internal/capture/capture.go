// Package capture collects sign-off credentials from an operator on behalf of a caller
// that decides, through a continuation, what those credentials authorize.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrBusy               = errors.New("an authorization is already pending")
	ErrNoPending          = errors.New("no authorization pending")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRequest     = errors.New("authorization request requires a label and a resolve continuation")
)

// Credentials is what the operator types (and optionally draws) in the sign-off dialog
type Credentials struct {
	AuthID             string     `json:"auth_id" validate:"required,max=64"`
	AuthName           string     `json:"auth_name" validate:"required,max=128"`
	Password           string     `json:"-" validate:"max=256"`
	Signature          []byte     `json:"-"`
	SignatureIssuedAt  *time.Time `json:"signature_issued_at,omitempty"`
	SignatureExpiresAt *time.Time `json:"signature_expires_at,omitempty"`
}

// HasSignature reports whether a drawn signature accompanies the credentials
func (c Credentials) HasSignature() bool {
	return len(c.Signature) > 0
}

// Request is one pending authorization: a label for the dialog and the continuations to run
type Request struct {
	Label     string
	OnResolve func(ctx context.Context, creds Credentials) error
	OnCancel  func()
}

// Verifier checks credentials before the continuation runs (e.g. operator password)
type Verifier interface {
	Verify(ctx context.Context, creds Credentials) error
}

// Controller holds at most one pending Request
type Controller struct {
	mu        sync.Mutex
	pending   *Request
	signature []byte
	issuedAt  *time.Time
	expiresAt *time.Time
	verifier  Verifier
	validate  *validator.Validate
}

// NewController creates a dialog controller. verifier may be nil.
func NewController(verifier Verifier) *Controller {
	return &Controller{
		verifier: verifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Open starts a new authorization. Any previously drawn signature is discarded.
func (c *Controller) Open(req Request) error {
	if req.Label == "" || req.OnResolve == nil {
		return ErrInvalidRequest
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return fmt.Errorf("%w: %s", ErrBusy, c.pending.Label)
	}
	c.clearSignature()
	c.pending = &req
	return nil
}

// Pending returns the label of the pending request, if any
func (c *Controller) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.Label, true
}

// DrawSignature attaches a signature bitmap to the pending request
func (c *Controller) DrawSignature(image []byte, issuedAt, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return ErrNoPending
	}
	if len(image) == 0 {
		return fmt.Errorf("%w: empty signature", ErrInvalidCredentials)
	}
	if expiresAt.Before(issuedAt) {
		return fmt.Errorf("%w: signature expires before it is issued", ErrInvalidCredentials)
	}

	c.signature = append([]byte(nil), image...)
	c.issuedAt = &issuedAt
	c.expiresAt = &expiresAt
	return nil
}

// Resolve confirms the pending request with creds. Invalid credentials leave the request
// pending so the operator can correct them or cancel. Otherwise the request is closed and
// its continuation runs exactly once; the continuation's error is returned.
func (c *Controller) Resolve(ctx context.Context, creds Credentials) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNoPending
	}

	if err := c.validate.Struct(creds); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	if !creds.HasSignature() && len(c.signature) > 0 {
		creds.Signature = c.signature
		creds.SignatureIssuedAt = c.issuedAt
		creds.SignatureExpiresAt = c.expiresAt
	}
	if creds.SignatureIssuedAt != nil && creds.SignatureExpiresAt != nil &&
		creds.SignatureExpiresAt.Before(*creds.SignatureIssuedAt) {
		c.mu.Unlock()
		return fmt.Errorf("%w: signature expires before it is issued", ErrInvalidCredentials)
	}

	if c.verifier != nil {
		if err := c.verifier.Verify(ctx, creds); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
	}

	req := c.pending
	c.pending = nil
	c.clearSignature()
	c.mu.Unlock()

	return req.OnResolve(ctx, creds)
}

// Cancel closes the pending request without running its resolve continuation
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNoPending
	}
	req := c.pending
	c.pending = nil
	c.clearSignature()
	c.mu.Unlock()

	if req.OnCancel != nil {
		req.OnCancel()
	}
	return nil
}

func (c *Controller) clearSignature() {
	c.signature = nil
	c.issuedAt = nil
	c.expiresAt = nil
}
