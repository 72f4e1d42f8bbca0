package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/adiwinata/fittrack/internal/client/api"
	"github.com/adiwinata/fittrack/internal/shared"
)

// getSimpleText and getPassword are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in
// tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// registerInput is validated client-side before any network call; the
// backend revalidates and may still reject with field-level messages.
type registerInput struct {
	Name       string `validate:"required"`
	Username   string `validate:"required,min=4,alphanum"`
	Email      string `validate:"required,email"`
	Phone      string `validate:"required,min=8"`
	BirthPlace string `validate:"required"`
	BirthDate  string `validate:"required,datetime=2006-01-02"`
	Password   string `validate:"required,min=8"`
}

// Login prompts for credentials and submits them. Field detail of a
// rejection is rendered here; the state machine itself only keeps the
// message.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	if err := a.auth.Login(ctx, username, string(password)); err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			printlnFn("Invalid username or password.")
			a.auth.DismissError()
			return nil
		}
		return err
	}

	printlnFn("Login successful.")
	return nil
}

// Register collects the account fields, validates them locally, lets the
// user pick a work unit from the reference data, and submits. On success
// the account waits for email verification; no session is created.
func (a *App) Register(ctx context.Context) error {
	in := registerInput{}
	var err error

	if in.Name, err = getSimpleText(a.reader, "Full name", os.Stdout); err != nil {
		return err
	}
	if in.Username, err = getSimpleText(a.reader, "Username", os.Stdout); err != nil {
		return err
	}
	if in.Email, err = getSimpleText(a.reader, "Email", os.Stdout); err != nil {
		return err
	}
	if in.Phone, err = getSimpleText(a.reader, "Phone", os.Stdout); err != nil {
		return err
	}
	if in.BirthPlace, err = getSimpleText(a.reader, "Birth place", os.Stdout); err != nil {
		return err
	}
	if in.BirthDate, err = getSimpleText(a.reader, "Birth date (YYYY-MM-DD)", os.Stdout); err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)
	in.Password = string(password)

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				printlnFn(fmt.Sprintf("%s: failed %q check", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return nil
		}
		return err
	}

	workUnitID, err := a.pickWorkUnit(ctx)
	if err != nil {
		return err
	}

	req := api.RegisterRequest{
		Name:       in.Name,
		Username:   in.Username,
		Email:      in.Email,
		Phone:      in.Phone,
		BirthPlace: in.BirthPlace,
		BirthDate:  in.BirthDate,
		WorkUnitID: workUnitID,
		Password:   in.Password,
	}

	if err := a.auth.Register(ctx, req); err != nil {
		var ve *api.ValidationError
		if errors.As(err, &ve) {
			printlnFn("Registration rejected:", ve.Message)
			for field, msgs := range ve.Fields {
				printlnFn(fmt.Sprintf("  %s: %s", field, strings.Join(msgs, "; ")))
			}
			a.auth.DismissError()
			return nil
		}
		return err
	}

	st := a.auth.State()
	printlnFn("Almost there! A verification code was sent to", st.PendingVerificationEmail)
	printlnFn("Type 'verified' once you have confirmed your email, then log in.")
	return nil
}

// pickWorkUnit walks the parent/child reference data. These lookups are
// idempotent GETs and retried by the API client on transient failures.
func (a *App) pickWorkUnit(ctx context.Context) (int64, error) {
	parents, err := a.api.WorkUnitParents(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading work units: %w", err)
	}
	if len(parents) == 0 {
		return 0, errors.New("no work units available")
	}

	printlnFn("Work units:")
	for _, p := range parents {
		printlnFn(fmt.Sprintf("  %d: %s", p.ID, p.Name))
	}

	parentID, ok, err := GetInt(a.reader, "Work unit id", os.Stdout)
	if err != nil || !ok {
		return 0, errors.New("a work unit is required")
	}

	children, err := a.api.WorkUnitChildren(ctx, int64(parentID))
	if err != nil {
		return 0, fmt.Errorf("loading work unit divisions: %w", err)
	}
	if len(children) == 0 {
		return int64(parentID), nil
	}

	printlnFn("Divisions:")
	for _, c := range children {
		printlnFn(fmt.Sprintf("  %d: %s", c.ID, c.Name))
	}
	childID, ok, err := GetInt(a.reader, "Division id (empty to keep the unit itself)", os.Stdout)
	if err != nil {
		return 0, err
	}
	if !ok {
		return int64(parentID), nil
	}
	return int64(childID), nil
}

// RegenerateOTP asks the backend to send a fresh verification code.
func (a *App) RegenerateOTP(ctx context.Context) error {
	email := a.auth.State().PendingVerificationEmail
	if email == "" {
		var err error
		if email, err = getSimpleText(a.reader, "Email", os.Stdout); err != nil {
			return err
		}
	}

	msg, err := a.api.RegenerateOTP(ctx, email)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "A new verification code has been sent."
	}
	printlnFn(msg)
	return nil
}

// ForgotPassword triggers the reset email.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}

	msg, err := a.api.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Password reset email sent."
	}
	printlnFn(msg)
	return nil
}

// Logout drops the session; local state is cleared even when the backend
// call fails.
func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	printlnFn("Logged out.")
	return nil
}
