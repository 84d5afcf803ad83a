// Package authtest provides a scriptable in-memory auth.Provider for
// session and verification flow tests.
package authtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/cocobologroup/seatsync/internal/auth"
)

// FakeProvider implements auth.Provider with scriptable outcomes.
// Zero value is usable: sign-ins succeed for whatever principal is
// configured, phone verification accepts AcceptCode.
type FakeProvider struct {
	mu       sync.Mutex
	sessions []chan *auth.Principal
	current  *auth.Principal

	// SignInPrincipal is returned by successful credential sign-ins.
	SignInPrincipal auth.Principal
	// IsNewUser marks credential sign-ins as first-time.
	IsNewUser bool
	// SignInErr, when set, fails every credential sign-in.
	SignInErr error

	// VerificationID is handed out by phone verification requests.
	VerificationID string
	// VerificationErr, when set, fails verification requests.
	VerificationErr error
	// AcceptCode is the one SMS code treated as valid; anything else is
	// rejected with code-rejected.
	AcceptCode string

	// Call counters.
	VerificationRequests int
	SecondFactorRequests int
	SignOutCalls         int

	// LastNumber records the most recent phone number a verification
	// was requested for.
	LastNumber string
}

var _ auth.Provider = (*FakeProvider)(nil)

// SessionChanges delivers the current principal immediately, then every
// principal passed to EmitSignIn/EmitSignOut.
func (f *FakeProvider) SessionChanges() (<-chan *auth.Principal, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan *auth.Principal, 16)
	ch <- f.current
	f.sessions = append(f.sessions, ch)

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.sessions {
			if s == ch {
				f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}

// EmitSignIn pushes a signed-in principal to all session listeners.
func (f *FakeProvider) EmitSignIn(p auth.Principal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = &p
	for _, ch := range f.sessions {
		ch <- &p
	}
}

// EmitSignOut pushes a signed-out state to all session listeners.
func (f *FakeProvider) EmitSignOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	for _, ch := range f.sessions {
		ch <- nil
	}
}

func (f *FakeProvider) SignInWithCredential(ctx context.Context, cred auth.Credential) (*auth.SignInResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	if pc, ok := cred.(auth.PhoneCredential); ok {
		if pc.VerificationID != f.VerificationID || pc.Code != f.AcceptCode {
			return nil, &auth.Error{Code: auth.CodeCodeRejected, Message: "invalid verification code"}
		}
	}
	return &auth.SignInResult{Principal: f.SignInPrincipal, IsNewUser: f.IsNewUser}, nil
}

func (f *FakeProvider) RequestPhoneVerification(ctx context.Context, number string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VerificationRequests++
	f.LastNumber = number
	if f.VerificationErr != nil {
		return "", f.VerificationErr
	}
	if f.VerificationID == "" {
		f.VerificationID = fmt.Sprintf("verification-%d", f.VerificationRequests)
	}
	return f.VerificationID, nil
}

func (f *FakeProvider) RequestSecondFactor(ctx context.Context, res *auth.Resolver, number string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SecondFactorRequests++
	f.LastNumber = number
	if f.VerificationErr != nil {
		return "", f.VerificationErr
	}
	if f.VerificationID == "" {
		f.VerificationID = fmt.Sprintf("second-factor-%d", f.SecondFactorRequests)
	}
	return f.VerificationID, nil
}

func (f *FakeProvider) ResolveSignIn(ctx context.Context, res *auth.Resolver, cred auth.Credential) (*auth.SignInResult, error) {
	return f.SignInWithCredential(ctx, cred)
}

func (f *FakeProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SignOutCalls++
	f.current = nil
	for _, ch := range f.sessions {
		ch <- nil
	}
	return nil
}
