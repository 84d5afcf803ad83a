// Package verify implements the phone and second-factor verification
// state machines layered on the auth provider's SMS primitives.
package verify

import (
	"context"
	"strings"
	"sync"

	"github.com/cocobologroup/seatsync/internal/auth"
	"github.com/cocobologroup/seatsync/internal/model"
	"github.com/cocobologroup/seatsync/internal/repo"
)

// State names a verification flow phase. Failures do not move the
// state: an error at EnteringNumber or CodeSent is re-entrant, the user
// corrects the input and resubmits.
type State string

const (
	StateEnteringNumber State = "enteringNumber"
	StateCodeSent       State = "codeSent"
	StateVerified       State = "verified"
)

// PhoneFlow drives phone sign-in: request a code for a number, exchange
// the user-entered code for a credential, sign in, and create the
// domain user record on first sign-in.
type PhoneFlow[T repo.Record] struct {
	provider auth.Provider
	users    *repo.Repository[T]
	newUser  func(p auth.Principal, firstName, lastName string) T

	mu             sync.Mutex
	state          State
	phoneNumber    string
	verificationID string
	code           string
	err            error
}

// NewPhoneFlow builds a flow at EnteringNumber. newUser constructs the
// record upserted when the provider reports a first-time principal.
func NewPhoneFlow[T repo.Record](provider auth.Provider, users *repo.Repository[T],
	newUser func(p auth.Principal, firstName, lastName string) T) *PhoneFlow[T] {
	return &PhoneFlow[T]{
		provider: provider,
		users:    users,
		newUser:  newUser,
		state:    StateEnteringNumber,
	}
}

func (f *PhoneFlow[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error from the most recent failed step, cleared by
// the next successful one.
func (f *PhoneFlow[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Code returns the currently entered verification code.
func (f *PhoneFlow[T]) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code
}

// SendVerificationCode validates and normalizes the number to a leading
// "+", then requests an SMS code. Success moves to CodeSent; failure
// stays put with Err set.
func (f *PhoneFlow[T]) SendVerificationCode(ctx context.Context, number string) error {
	number = NormalizeNumber(number)
	if err := model.ValidatePhoneNumber(number); err != nil {
		f.fail(err)
		return err
	}

	id, err := f.provider.RequestPhoneVerification(ctx, number)
	if err != nil {
		f.fail(err)
		return err
	}

	f.mu.Lock()
	f.state = StateCodeSent
	f.phoneNumber = number
	f.verificationID = id
	f.code = ""
	f.err = nil
	f.mu.Unlock()
	return nil
}

// SubmitCode exchanges the entered code for a credential and signs in.
// Rejection keeps the state at CodeSent, clears the entered code so the
// user must re-type it, and records the provider's reason in Err. On a
// first-time principal the user record is created with the verified
// phone number and the given names.
func (f *PhoneFlow[T]) SubmitCode(ctx context.Context, code, firstName, lastName string) error {
	f.mu.Lock()
	if f.state != StateCodeSent {
		f.mu.Unlock()
		return &auth.Error{Code: auth.CodeCodeRejected, Message: "no verification in progress"}
	}
	f.code = code
	cred := auth.PhoneCredential{VerificationID: f.verificationID, Code: code}
	number := f.phoneNumber
	f.mu.Unlock()

	result, err := f.provider.SignInWithCredential(ctx, cred)
	if err != nil {
		f.mu.Lock()
		f.code = ""
		f.err = err
		f.mu.Unlock()
		return err
	}

	if result.IsNewUser {
		p := result.Principal
		if p.PhoneNumber == "" {
			p.PhoneNumber = number
		}
		user := f.newUser(p, firstName, lastName)
		user.SetDocumentID(p.ID)
		if _, err := f.users.Upsert(ctx, user); err != nil {
			f.fail(err)
			return err
		}
	}

	f.mu.Lock()
	f.state = StateVerified
	f.err = nil
	f.mu.Unlock()
	return nil
}

func (f *PhoneFlow[T]) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// NormalizeNumber ensures the number carries a leading "+".
func NormalizeNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, "+") {
		return number
	}
	return "+" + number
}
