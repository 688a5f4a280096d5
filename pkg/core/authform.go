package core

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether value looks like local@domain.tld.
func ValidEmail(value string) bool {
	return emailShape.MatchString(value)
}

var credentialsValidator = newCredentialsValidator()

func newCredentialsValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return v
}

// ValidateCredentials checks presence first, then the email shape.
func ValidateCredentials(creds Credentials) error {
	err := credentialsValidator.Struct(creds)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return ErrMissingCredentials
		}
	}
	return ErrInvalidEmail
}

// AuthForm runs sign-in and sign-up for the auth screen.
type AuthForm struct {
	auth   AuthGateway
	logger *slog.Logger
	busy   atomic.Bool
}

// NewAuthForm creates a form bound to the auth gateway.
func NewAuthForm(auth AuthGateway, logger *slog.Logger) *AuthForm {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthForm{auth: auth, logger: logger}
}

// Busy reports whether a request is in flight; surfaces disable submission meanwhile.
func (f *AuthForm) Busy() bool {
	return f.busy.Load()
}

// SignIn validates and signs in. A successful sign-in yields no notice: the
// session controller switches views on its own.
func (f *AuthForm) SignIn(ctx context.Context, email, password string) (*Notice, error) {
	return f.submit(ctx, Credentials{Email: email, Password: password}, "Login failed",
		func(ctx context.Context, creds Credentials) (*Notice, error) {
			if _, err := f.auth.SignInWithPassword(ctx, creds); err != nil {
				return nil, err
			}
			return nil, nil
		})
}

// SignUp validates and registers a new account.
func (f *AuthForm) SignUp(ctx context.Context, email, password string) (*Notice, error) {
	return f.submit(ctx, Credentials{Email: email, Password: password}, "Signup failed",
		func(ctx context.Context, creds Credentials) (*Notice, error) {
			if _, err := f.auth.SignUp(ctx, creds); err != nil {
				return nil, err
			}
			return &Notice{Kind: NoticeSuccess, Title: "Success", Message: "Account created. You can log in now."}, nil
		})
}

func (f *AuthForm) submit(
	ctx context.Context,
	creds Credentials,
	failTitle string,
	call func(context.Context, Credentials) (*Notice, error),
) (*Notice, error) {
	if err := ValidateCredentials(creds); err != nil {
		return validationNotice(err), err
	}

	if !f.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer f.busy.Store(false)

	notice, err := call(ctx, creds)
	if err != nil {
		f.logger.Debug("auth request failed", "email", creds.Email, "error", err)
		return &Notice{Kind: NoticeError, Title: failTitle, Message: ErrorMessage(err)}, err
	}
	return notice, nil
}

func validationNotice(err error) *Notice {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return &Notice{Kind: NoticeValidation, Title: "Error", Message: "Email and password are required"}
	case errors.Is(err, ErrInvalidEmail):
		return &Notice{Kind: NoticeValidation, Title: "Invalid Email", Message: "Please enter a valid email address"}
	}
	return &Notice{Kind: NoticeValidation, Title: "Error", Message: err.Error()}
}
