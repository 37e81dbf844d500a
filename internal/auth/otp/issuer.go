package otp

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"bazaar/infrastructure"
)

// Mailer dispatches generated codes. Implemented by the email sender.
type Mailer interface {
	SendVerificationCode(to, name, code string) error
	SendTwoFactorCode(to, name, code string) error
}

type Issuer struct {
	store  Store
	mailer Mailer
}

func NewIssuer(store Store, mailer Mailer) *Issuer {
	return &Issuer{store: store, mailer: mailer}
}

func generateCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

// Issue generates a six-digit code, persists it, then dispatches it by
// email. The code is persisted before dispatch so a failed send can be
// retried without regenerating state; the caller still sees the dispatch
// failure as ErrMailDispatch.
func (i *Issuer) Issue(ctx context.Context, email, name string, purpose Purpose) (*Code, error) {
	code := &Code{
		Email:     email,
		Code:      generateCode(),
		Purpose:   purpose,
		CreatedAt: time.Now(),
	}
	if err := i.store.Save(ctx, code); err != nil {
		return nil, err
	}

	var err error
	switch purpose {
	case PurposeTwoFactor:
		err = i.mailer.SendTwoFactorCode(email, name, code.Code)
	default:
		err = i.mailer.SendVerificationCode(email, name, code.Code)
	}
	if err != nil {
		return code, fmt.Errorf("%w: %v", infrastructure.ErrMailDispatch, err)
	}
	return code, nil
}

// Consume looks up the code by (email, code), verifies the stored purpose
// against the expected one and deletes it. Deletion happens only after the
// purpose check passes, so a wrong-purpose presentation does not burn the
// code.
func (i *Issuer) Consume(ctx context.Context, email, code string, purpose Purpose) error {
	stored, err := i.store.Find(ctx, email, code)
	if err != nil {
		return err
	}
	if stored.Purpose != purpose {
		return infrastructure.ErrOTPWrongType
	}
	return i.store.Delete(ctx, email, code)
}
