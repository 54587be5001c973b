package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInNormalizesEmail(t *testing.T) {
	svc := New(Options{Dir: t.TempDir()})

	profile := svc.SignIn(ModeLogin, "  Jane.Doe@Example.com ", "secret", "")
	require.NotNil(t, profile)
	assert.Equal(t, "local-jane.doe@example.com", profile.ID)
	assert.Equal(t, "jane.doe@example.com", profile.Email)
	assert.Equal(t, "Jane.Doe", profile.DisplayName)
	assert.NotEmpty(t, profile.CreatedAt)
}

func TestSignInIsIdempotentPerEmail(t *testing.T) {
	svc := New(Options{Dir: t.TempDir()})

	first := svc.SignIn(ModeLogin, "user@example.com", "a", "")
	second := svc.SignIn(ModeSignup, "USER@example.com", "b", "Someone Else")
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
}

func TestSignInDisplayName(t *testing.T) {
	svc := New(Options{Dir: t.TempDir()})

	tests := []struct {
		name     string
		mode     Mode
		email    string
		fullName string
		want     string
	}{
		{name: "login derives from local part", mode: ModeLogin, email: "barber@shop.io", want: "barber"},
		{name: "login keeps local part casing", mode: ModeLogin, email: "Sam.Cutter@Shop.io", want: "Sam.Cutter"},
		{name: "signup uses full name", mode: ModeSignup, email: "barber@shop.io", fullName: "  Sam Cutter ", want: "Sam Cutter"},
		{name: "signup without name falls back to local part", mode: ModeSignup, email: "barber@shop.io", fullName: "   ", want: "barber"},
		{name: "no at sign falls back to guest label", mode: ModeLogin, email: "not-an-email", want: "Guest Styler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := svc.SignIn(tt.mode, tt.email, "pw", tt.fullName)
			require.NotNil(t, profile)
			assert.Equal(t, tt.want, profile.DisplayName)
		})
	}
}

func TestSignInEmptyEmailIsSilentNoOp(t *testing.T) {
	svc := New(Options{Dir: t.TempDir()})

	assert.Nil(t, svc.SignIn(ModeLogin, "", "pw", ""))
	assert.Nil(t, svc.SignIn(ModeLogin, "   ", "pw", ""))
}

func TestLastProfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	svc := New(Options{Dir: dir})

	assert.Nil(t, svc.LastProfile())

	profile := svc.SignIn(ModeSignup, "keeper@example.com", "pw", "Keeper")
	require.NotNil(t, profile)

	loaded := New(Options{Dir: dir}).LastProfile()
	require.NotNil(t, loaded)
	assert.Equal(t, profile.ID, loaded.ID)
	assert.Equal(t, "Keeper", loaded.DisplayName)
}
