package auth

import "errors"

// Error codes.
const (
	CodeInvalidCredential    = "invalid-credential"
	CodeCodeRejected         = "code-rejected"
	CodeSecondFactorRequired = "second-factor-required"
	CodeQuotaExceeded        = "quota-exceeded"
	CodeInvalidPhone         = "invalid-phone"
)

// Error is a credential or session failure from the auth provider.
type Error struct {
	Code    string
	Message string
	// Resolver is set when Code is CodeSecondFactorRequired.
	Resolver *Resolver
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// IsCode reports whether err is an auth Error with the given code.
func IsCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}

// SecondFactorResolver extracts the resolver from a
// second-factor-required failure. Any other error returns nil, false.
func SecondFactorResolver(err error) (*Resolver, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae.Code == CodeSecondFactorRequired && ae.Resolver != nil {
		return ae.Resolver, true
	}
	return nil, false
}
