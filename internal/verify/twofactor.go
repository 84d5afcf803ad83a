package verify

import (
	"context"
	"sync"

	"github.com/cocobologroup/seatsync/internal/auth"
)

// SignIn attempts a primary-factor sign-in. When the provider demands a
// second factor, the pending sign-in comes back as a TwoFactorFlow
// carrying the provider's resolver; every other failure surfaces
// directly.
func SignIn(ctx context.Context, provider auth.Provider, cred auth.Credential) (*auth.SignInResult, *TwoFactorFlow, error) {
	result, err := provider.SignInWithCredential(ctx, cred)
	if err != nil {
		if resolver, ok := auth.SecondFactorResolver(err); ok {
			return nil, newTwoFactorFlow(provider, resolver), nil
		}
		return nil, nil, err
	}
	return result, nil, nil
}

// TwoFactorFlow completes a sign-in that required a second factor. Same
// shape as PhoneFlow, but the verification exchange is scoped to the
// resolver from the primary failure.
type TwoFactorFlow struct {
	provider auth.Provider
	resolver *auth.Resolver

	mu             sync.Mutex
	state          State
	verificationID string
	code           string
	err            error
}

func newTwoFactorFlow(provider auth.Provider, resolver *auth.Resolver) *TwoFactorFlow {
	return &TwoFactorFlow{
		provider: provider,
		resolver: resolver,
		state:    StateEnteringNumber,
	}
}

func (f *TwoFactorFlow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *TwoFactorFlow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// PhoneHints lists the masked enrolled numbers the user may verify with.
func (f *TwoFactorFlow) PhoneHints() []string {
	return f.resolver.PhoneHints
}

// SendVerificationCode requests an SMS code for an enrolled number.
func (f *TwoFactorFlow) SendVerificationCode(ctx context.Context, number string) error {
	number = NormalizeNumber(number)
	id, err := f.provider.RequestSecondFactor(ctx, f.resolver, number)
	if err != nil {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.state = StateCodeSent
	f.verificationID = id
	f.code = ""
	f.err = nil
	f.mu.Unlock()
	return nil
}

// SubmitCode resolves the pending sign-in with the entered code.
// Rejection clears the code and stays at CodeSent.
func (f *TwoFactorFlow) SubmitCode(ctx context.Context, code string) (*auth.SignInResult, error) {
	f.mu.Lock()
	if f.state != StateCodeSent {
		f.mu.Unlock()
		return nil, &auth.Error{Code: auth.CodeCodeRejected, Message: "no verification in progress"}
	}
	f.code = code
	cred := auth.PhoneCredential{VerificationID: f.verificationID, Code: code}
	f.mu.Unlock()

	result, err := f.provider.ResolveSignIn(ctx, f.resolver, cred)
	if err != nil {
		f.mu.Lock()
		f.code = ""
		f.err = err
		f.mu.Unlock()
		return nil, err
	}

	f.mu.Lock()
	f.state = StateVerified
	f.err = nil
	f.mu.Unlock()
	return result, nil
}
