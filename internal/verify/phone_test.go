package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/cocobologroup/seatsync/internal/auth"
	"github.com/cocobologroup/seatsync/internal/auth/authtest"
	"github.com/cocobologroup/seatsync/internal/docstore/docstoretest"
	"github.com/cocobologroup/seatsync/internal/model"
	"github.com/cocobologroup/seatsync/internal/repo"
)

func guestFromPrincipal(p auth.Principal, first, last string) *model.Guest {
	return &model.Guest{
		FirstName:   first,
		LastName:    last,
		PhoneNumber: p.PhoneNumber,
		Email:       p.Email,
	}
}

func newPhoneFixture(t *testing.T) (*PhoneFlow[*model.Guest], *authtest.FakeProvider, *docstoretest.MemStore) {
	t.Helper()
	mem := docstoretest.NewMemStore()
	guests := repo.New(mem, func() *model.Guest { return &model.Guest{} })
	provider := &authtest.FakeProvider{
		VerificationID: "v1",
		AcceptCode:     "123456",
	}
	return NewPhoneFlow(provider, guests, guestFromPrincipal), provider, mem
}

func TestPhoneFlow_HappyPath(t *testing.T) {
	ctx := context.Background()
	flow, provider, _ := newPhoneFixture(t)
	provider.SignInPrincipal = auth.Principal{ID: "u1"}

	if flow.State() != StateEnteringNumber {
		t.Fatalf("initial state = %s", flow.State())
	}

	if err := flow.SendVerificationCode(ctx, "15551234567"); err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	if flow.State() != StateCodeSent {
		t.Errorf("state = %s, want codeSent", flow.State())
	}
	if provider.LastNumber != "+15551234567" {
		t.Errorf("number sent to provider = %q, want normalized +15551234567", provider.LastNumber)
	}

	if err := flow.SubmitCode(ctx, "123456", "Jane", "Doe"); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	if flow.State() != StateVerified {
		t.Errorf("state = %s, want verified", flow.State())
	}
	if flow.Err() != nil {
		t.Errorf("err = %v, want nil", flow.Err())
	}
}

func TestPhoneFlow_RejectedCodeClearsAndStays(t *testing.T) {
	ctx := context.Background()
	flow, _, _ := newPhoneFixture(t)

	if err := flow.SendVerificationCode(ctx, "+15551234567"); err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}

	err := flow.SubmitCode(ctx, "000000", "Jane", "Doe")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !auth.IsCode(err, auth.CodeCodeRejected) {
		t.Errorf("error = %v, want code-rejected", err)
	}
	if flow.State() != StateCodeSent {
		t.Errorf("state = %s, want codeSent (rejection does not reset the flow)", flow.State())
	}
	if flow.Code() != "" {
		t.Errorf("entered code = %q, want cleared", flow.Code())
	}
	if flow.Err() == nil {
		t.Error("provider's rejection reason should be recorded")
	}

	// Re-entry with the right code still succeeds.
	if err := flow.SubmitCode(ctx, "123456", "Jane", "Doe"); err != nil {
		t.Fatalf("retry SubmitCode: %v", err)
	}
	if flow.State() != StateVerified {
		t.Errorf("state = %s, want verified", flow.State())
	}
}

func TestPhoneFlow_SendFailureStaysEnteringNumber(t *testing.T) {
	ctx := context.Background()
	flow, provider, _ := newPhoneFixture(t)
	provider.VerificationErr = &auth.Error{Code: auth.CodeQuotaExceeded}

	if err := flow.SendVerificationCode(ctx, "+15551234567"); err == nil {
		t.Fatal("expected failure")
	}
	if flow.State() != StateEnteringNumber {
		t.Errorf("state = %s, want enteringNumber", flow.State())
	}
	if !auth.IsCode(flow.Err(), auth.CodeQuotaExceeded) {
		t.Errorf("err = %v, want quota-exceeded", flow.Err())
	}
}

func TestPhoneFlow_InvalidNumberRejectedLocally(t *testing.T) {
	ctx := context.Background()
	flow, provider, _ := newPhoneFixture(t)

	err := flow.SendVerificationCode(ctx, "not a number")
	if err == nil {
		t.Fatal("expected validation failure")
	}
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("error = %v, want *ValidationError", err)
	}
	if provider.VerificationRequests != 0 {
		t.Error("invalid number must not reach the provider")
	}
}

func TestPhoneFlow_FirstSignInCreatesUser(t *testing.T) {
	ctx := context.Background()
	flow, provider, mem := newPhoneFixture(t)
	provider.SignInPrincipal = auth.Principal{ID: "u1"}
	provider.IsNewUser = true

	if err := flow.SendVerificationCode(ctx, "15551234567"); err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	if err := flow.SubmitCode(ctx, "123456", "Jane", "Doe"); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}

	snap, err := mem.Get(ctx, "guests", "u1")
	if err != nil {
		t.Fatalf("created user record missing: %v", err)
	}
	if snap.Fields["firstName"] != "Jane" || snap.Fields["lastName"] != "Doe" {
		t.Errorf("names = %v/%v", snap.Fields["firstName"], snap.Fields["lastName"])
	}
	if snap.Fields["phoneNumber"] != "+15551234567" {
		t.Errorf("phoneNumber = %v, want the verified number", snap.Fields["phoneNumber"])
	}
}

func TestPhoneFlow_SubmitBeforeSend(t *testing.T) {
	flow, _, _ := newPhoneFixture(t)
	if err := flow.SubmitCode(context.Background(), "123456", "", ""); err == nil {
		t.Error("submit without a pending verification should fail")
	}
}
