package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notekeep/pkg/core"
)

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "me@example.com", "first.last+tag@sub.domain.org"}
	invalid := []string{"", "plain", "a@b", "@b.co", "a@.", "a b@c.de", "a@b c.de", "a@@b.co"}

	for _, v := range valid {
		assert.True(t, core.ValidEmail(v), v)
	}
	for _, v := range invalid {
		assert.False(t, core.ValidEmail(v), v)
	}
}

func TestAuthForm_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
		title    string
		message  string
	}{
		{"missing email", "", "secret", core.ErrMissingCredentials, "Error", "Email and password are required"},
		{"missing password", "me@example.com", "", core.ErrMissingCredentials, "Error", "Email and password are required"},
		{"both missing", "", "", core.ErrMissingCredentials, "Error", "Email and password are required"},
		{"malformed email", "not-an-email", "secret", core.ErrInvalidEmail, "Invalid Email", "Please enter a valid email address"},
		{"no tld", "me@example", "secret", core.ErrInvalidEmail, "Invalid Email", "Please enter a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			form := core.NewAuthForm(gw, nil)

			for _, submit := range []func(context.Context, string, string) (*core.Notice, error){form.SignIn, form.SignUp} {
				notice, err := submit(context.Background(), tt.email, tt.password)
				assert.ErrorIs(t, err, tt.wantErr)
				require.NotNil(t, notice)
				assert.Equal(t, core.NoticeValidation, notice.Kind)
				assert.Equal(t, tt.title, notice.Title)
				assert.Equal(t, tt.message, notice.Message)
			}
			assert.Empty(t, gw.Calls(), "invalid input never reaches the gateway")
		})
	}
}

func TestAuthForm_SignIn(t *testing.T) {
	gw := newFakeGateway()
	form := core.NewAuthForm(gw, nil)

	notice, err := form.SignIn(context.Background(), "me@example.com", "secret")
	require.NoError(t, err)
	assert.Nil(t, notice)

	calls := gw.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, core.Credentials{Email: "me@example.com", Password: "secret"}, calls[0].Creds)
	assert.False(t, form.Busy())
}

func TestAuthForm_SignInFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.signInErr = &core.GatewayError{Status: 400, Code: "invalid_grant", Message: "Invalid login credentials"}
	form := core.NewAuthForm(gw, nil)

	notice, err := form.SignIn(context.Background(), "me@example.com", "wrong")
	require.Error(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, core.NoticeError, notice.Kind)
	assert.Equal(t, "Login failed", notice.Title)
	assert.Equal(t, "Invalid login credentials", notice.Message)
	assert.False(t, form.Busy(), "busy released after failure")
}

func TestAuthForm_SignUp(t *testing.T) {
	gw := newFakeGateway()
	form := core.NewAuthForm(gw, nil)

	notice, err := form.SignUp(context.Background(), "new@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, core.NoticeSuccess, notice.Kind)
	assert.Equal(t, "Success", notice.Title)
	assert.Equal(t, "Account created. You can log in now.", notice.Message)
	assert.Equal(t, []string{"signUp"}, gw.Ops())

	gw.signUpErr = &core.GatewayError{Status: 422, Message: "User already registered"}
	notice, err = form.SignUp(context.Background(), "new@example.com", "secret")
	require.Error(t, err)
	assert.Equal(t, "Signup failed", notice.Title)
	assert.Equal(t, "User already registered", notice.Message)
}

func TestAuthForm_RejectsConcurrentSubmit(t *testing.T) {
	blocker := &blockingSignIn{fakeGateway: newFakeGateway(), entered: make(chan struct{}), release: make(chan struct{})}
	form := core.NewAuthForm(blocker, nil)

	done := make(chan error, 1)
	go func() {
		_, err := form.SignIn(context.Background(), "me@example.com", "secret")
		done <- err
	}()
	<-blocker.entered
	assert.True(t, form.Busy())

	notice, err := form.SignIn(context.Background(), "me@example.com", "secret")
	assert.ErrorIs(t, err, core.ErrBusy)
	assert.Nil(t, notice)

	close(blocker.release)
	require.NoError(t, <-done)
	assert.False(t, form.Busy())
}

type blockingSignIn struct {
	*fakeGateway
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSignIn) SignInWithPassword(ctx context.Context, creds core.Credentials) (*core.Session, error) {
	close(b.entered)
	<-b.release
	return b.fakeGateway.SignInWithPassword(ctx, creds)
}
