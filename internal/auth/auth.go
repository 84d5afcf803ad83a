// Package auth defines the contract with the hosted auth provider:
// principals, sign-in credentials, session change streams, and the
// phone/second-factor verification primitives the flows in
// internal/verify build on.
package auth

import (
	"context"
	"time"
)

// Principal is the provider's view of a signed-in user.
type Principal struct {
	ID            string
	Email         string
	DisplayName   string
	PhotoURL      string
	PhoneNumber   string
	EmailVerified bool
	CreatedAt     time.Time
}

// Credential is a sealed set of sign-in credential kinds.
type Credential interface {
	credential()
}

// PasswordCredential signs in with email and password.
type PasswordCredential struct {
	Email    string
	Password string
}

// OAuthCredential signs in with a third-party identity token.
type OAuthCredential struct {
	Provider string
	IDToken  string
	Nonce    string
}

// PhoneCredential exchanges a verification id and SMS code.
type PhoneCredential struct {
	VerificationID string
	Code           string
}

func (PasswordCredential) credential() {}
func (OAuthCredential) credential()    {}
func (PhoneCredential) credential()    {}

// SignInResult is the outcome of a successful sign-in.
type SignInResult struct {
	Principal Principal
	// IsNewUser is set when the provider created the account during
	// this sign-in; the caller is expected to create the domain record.
	IsNewUser bool
}

// Resolver is the provider token carried by a second-factor-required
// failure; it threads the pending primary sign-in through the
// second-factor verification exchange.
type Resolver struct {
	SessionID string
	// PhoneHints lists masked enrolled phone numbers, e.g. "+*******4567".
	PhoneHints []string
}

// Provider is the narrow surface consumed from the hosted auth service.
type Provider interface {
	// SessionChanges delivers the signed-in principal, or nil on
	// sign-out, starting with the current state. Call cancel to stop.
	SessionChanges() (<-chan *Principal, func(), error)

	SignInWithCredential(ctx context.Context, cred Credential) (*SignInResult, error)

	// RequestPhoneVerification sends an SMS code and returns the
	// verification id to pair with the user-entered code.
	RequestPhoneVerification(ctx context.Context, number string) (string, error)

	// RequestSecondFactor is the resolver-scoped variant used mid
	// second-factor challenge.
	RequestSecondFactor(ctx context.Context, res *Resolver, number string) (string, error)

	// ResolveSignIn completes a sign-in that failed with
	// second-factor-required.
	ResolveSignIn(ctx context.Context, res *Resolver, cred Credential) (*SignInResult, error)

	SignOut(ctx context.Context) error
}
