package auth

import "bazaar/internal/user"

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type SendOTPRequest struct {
	Email string `json:"email"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type SignUpResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type SignInResponse struct {
	AccessToken string     `json:"accessToken,omitempty"`
	User        *user.User `json:"user,omitempty"`
	Data        string     `json:"data,omitempty"`
}

type VerifyOTPResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message,omitempty"`
	AccessToken string     `json:"accessToken,omitempty"`
	User        *user.User `json:"user,omitempty"`
}

type RefreshTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
