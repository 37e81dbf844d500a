package otp

import "time"

type Purpose string

const (
	PurposeVerification Purpose = "verification"
	PurposeTwoFactor    Purpose = "2fa"
)

type Code struct {
	Email     string
	Code      string
	Purpose   Purpose
	CreatedAt time.Time
}
