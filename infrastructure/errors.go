package infrastructure

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrAccountLocked     = errors.New("account locked")
	ErrPasswordExpired   = errors.New("password has expired")
	ErrPasswordPolicy    = errors.New("password does not meet the policy")
	ErrPasswordReused    = errors.New("password was used before")

	ErrOTPInvalid   = errors.New("invalid or expired otp")
	ErrOTPWrongType = errors.New("otp type does not match the requested operation")

	ErrMissingToken        = errors.New("missing access token")
	ErrInvalidToken        = errors.New("invalid access token")
	ErrTokenExpired        = errors.New("access token has expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrMailDispatch = errors.New("failed to send otp email")

	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("access denied")
	ErrInternalServer = errors.New("internal server error")
)
