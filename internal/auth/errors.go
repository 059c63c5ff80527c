package auth

import "errors"

// Sentinel errors for authentication and session operations.
var (
	// ErrInvalidCredentials is returned when the username is unknown or
	// the password does not match. Both cases share one error so the
	// response never reveals which part was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNoCredentials is returned when a request carries no bearer token.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrTokenIssuance is returned when signing a new token fails.
	ErrTokenIssuance = errors.New("token issuance failed")

	// ErrSessionStore is returned when the session store is unreachable
	// or an operation against it fails.
	ErrSessionStore = errors.New("session store unavailable")

	// ErrTokenExpiredOrRevoked is returned when a token has no live
	// session record, either because it expired or was logged out.
	ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")

	// ErrInvalidToken is returned when a token fails structural or
	// signature validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUserNotFound is returned by a UserStore when the username does
	// not exist. Callers map it to ErrInvalidCredentials before it
	// reaches a client.
	ErrUserNotFound = errors.New("user not found")
)
