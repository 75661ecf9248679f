package service

import "errors"

var (
	// ErrUserAlreadyExists is returned when registering with an email that is
	// already taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified is returned on login with correct credentials for an
	// account that has not completed email verification.
	ErrEmailNotVerified = errors.New("please verify your email before logging in")
	// ErrInvalidToken is returned on redemption of a verification or reset
	// token that does not match an unexpired record. Not-found and expired are
	// deliberately indistinguishable.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUserNotFound is returned by forgot-password and resend-verification
	// for an unknown email.
	ErrUserNotFound = errors.New("no user with that email")
	// ErrAlreadyVerified is returned when requesting a new verification email
	// for an account that has already been verified.
	ErrAlreadyVerified = errors.New("email is already verified")
)

// ValidationError reports malformed or missing input. The HTTP layer maps it
// to a 400 with the message as-is.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErr(msg string) error {
	return &ValidationError{Msg: msg}
}
